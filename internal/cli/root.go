package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskboard/internal/app"
	"taskboard/internal/config"
	"taskboard/internal/guard"
	"taskboard/pkg/types"
)

// NewRootCommand assembles the taskboard CLI.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "taskboard",
		Short:         "Terminal client for the taskboard task-management service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newLoginCommand(),
		newRegisterCommand(),
		newLogoutCommand(),
		newWhoamiCommand(),
		newTasksCommand(),
		newUsersCommand(),
		newWatchCommand(),
	)
	return root
}

// openApp loads configuration, builds the client and runs the session
// bootstrap. Callers own Close.
func openApp() (*app.Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := a.Start(); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// requireScreen evaluates the route guard for a screen requiring the
// given role and translates redirects into errors, since a CLI cannot
// navigate.
func requireScreen(a *app.Application, required types.Role) error {
	switch d := guard.Decide(a.Session.Snapshot(), required); d.Kind {
	case guard.Render:
		return nil
	case guard.Redirect:
		if d.Path == guard.AdminLogin || d.Path == guard.UserLogin {
			return fmt.Errorf("not logged in: run 'taskboard login' first")
		}
		return fmt.Errorf("this command requires the %s role", required)
	default:
		return fmt.Errorf("session is still loading, try again")
	}
}
