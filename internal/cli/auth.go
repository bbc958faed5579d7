package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskboard/internal/guard"
	"taskboard/pkg/types"
)

func newLoginCommand() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and persist the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			res := a.Session.Login(cmd.Context(), email, password)
			if !res.OK {
				return fmt.Errorf("login failed: %s", res.Err)
			}

			snap := a.Session.Snapshot()
			fmt.Printf("Logged in as %s (%s)\n", snap.User.Name, snap.User.Role)
			fmt.Printf("Home: %s\n", guard.HomeFor(snap.User.Role))
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newRegisterCommand() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account (log in separately afterwards)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			res := a.Session.Register(cmd.Context(), types.Registration{
				Name:     name,
				Email:    email,
				Password: password,
			})
			if !res.OK {
				return fmt.Errorf("registration failed: %s", res.Err)
			}
			fmt.Println("Account created. Run 'taskboard login' to start a session.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "display name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and clear stored credentials",
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			a.Session.Logout("")
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			snap := a.Session.Snapshot()
			if !snap.IsAuthenticated() {
				fmt.Println("Not logged in.")
				return nil
			}
			fmt.Printf("%s <%s> role=%s admin=%v\n", snap.User.Name, snap.User.Email, snap.User.Role, snap.IsAdmin())
			return nil
		},
	}
}
