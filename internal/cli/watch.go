package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"taskboard/internal/session"
	"taskboard/pkg/types"
)

// watch keeps the process alive with the push channel bound so
// server-initiated invalidations take effect immediately, the way a
// browser tab would experience them.
func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Hold the session open and react to server pushes",
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := requireScreen(a, types.RoleUser); err != nil {
				return err
			}

			loggedOut := make(chan string, 1)
			a.Session.Subscribe(func(snap session.Snapshot) {
				if !snap.IsAuthenticated() {
					select {
					case loggedOut <- snap.Reason:
					default:
					}
				}
			})
			a.Channel.OnEvent(func(ev types.Event) {
				fmt.Printf("event: %s\n", ev.Name)
			})

			fmt.Println("Watching for server events. Ctrl-C to stop.")
			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			select {
			case reason := <-loggedOut:
				if reason == "" {
					reason = "session ended"
				}
				fmt.Printf("Logged out: %s\n", reason)
			case <-stop:
				fmt.Println("Stopping.")
			}
			return nil
		},
	}
}
