package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskboard/pkg/types"
)

func newUsersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts (admin)",
	}
	cmd.AddCommand(newUsersListCommand(), newUsersStatusCommand(true), newUsersStatusCommand(false))
	return cmd
}

func newUsersListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := requireScreen(a, types.RoleAdmin); err != nil {
				return err
			}

			users, err := a.API.ListUsers(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}
			for _, u := range users {
				state := "active"
				if !u.Active {
					state = "deactivated"
				}
				fmt.Printf("%-36s  %-6s  %-11s  %s <%s>\n", u.ID, u.Role, state, u.Name, u.Email)
			}
			return nil
		},
	}
}

func newUsersStatusCommand(activate bool) *cobra.Command {
	use, short := "deactivate <user-id>", "Deactivate an account and force-log it out"
	if activate {
		use, short = "activate <user-id>", "Reactivate an account"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := requireScreen(a, types.RoleAdmin); err != nil {
				return err
			}
			if err := a.API.SetUserStatus(cmd.Context(), args[0], activate); err != nil {
				return fmt.Errorf("failed to update user status: %w", err)
			}
			fmt.Println("Done.")
			return nil
		},
	}
}
