package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskboard/pkg/types"
)

func newTasksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Work with the task collection",
	}
	cmd.AddCommand(newTasksListCommand(), newTasksBulkStatusCommand())
	return cmd
}

func newTasksListCommand() *cobra.Command {
	var (
		assignedTo string
		page       int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, one page at a time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := requireScreen(a, types.RoleUser); err != nil {
				return err
			}
			if err := a.Tasks.Load(cmd.Context(), assignedTo); err != nil {
				return fmt.Errorf("failed to load tasks: %w", err)
			}

			a.Tasks.SetPage(page)
			for _, t := range a.Tasks.PageTasks() {
				fmt.Printf("%-36s  %-12s  %s\n", t.ID, t.Status, t.Title)
			}
			first, last, total := a.Tasks.ItemRange()
			fmt.Printf("Showing %d to %d of %d entries (page %d/%d)\n",
				first, last, total, a.Tasks.Page(), a.Tasks.PageCount())
			return nil
		},
	}
	cmd.Flags().StringVar(&assignedTo, "assigned-to", "", "filter by assignee user id")
	cmd.Flags().IntVar(&page, "page", 1, "page to display")
	return cmd
}

func newTasksBulkStatusCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "bulk-status <status> [task-id...]",
		Short: "Set one status on many tasks as a single batch",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := requireScreen(a, types.RoleUser); err != nil {
				return err
			}
			if err := a.Tasks.Load(cmd.Context(), ""); err != nil {
				return fmt.Errorf("failed to load tasks: %w", err)
			}

			if all {
				a.Tasks.ToggleSelectAll()
			} else {
				if len(args) < 2 {
					return fmt.Errorf("pass task ids or --all")
				}
				for _, id := range args[1:] {
					a.Tasks.ToggleSelect(id)
				}
			}

			count := len(a.Tasks.Selected())
			if err := a.Tasks.BulkUpdateStatus(cmd.Context(), types.Status(args[0])); err != nil {
				return fmt.Errorf("bulk update failed: %w", err)
			}
			fmt.Printf("Updated %d task(s) to %s\n", count, args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "select every loaded task")
	return cmd
}
