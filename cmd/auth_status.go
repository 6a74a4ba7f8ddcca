package cmd

import (
	"errors"
	"fmt"
	"time"

	"ghnotifier/internal/github"
	"ghnotifier/internal/notifications"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newAuthStatusCmd(opts *rootOptions) *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Long: `Show whether an access token is stored and where.

With --verify the token is also sent to the notifications API, which tells
a revoked token apart from a working one. The command exits with code 2
when no usable token is available.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			store, err := newTokenStore(opts.cfg)
			if err != nil {
				return err
			}
			token, err := store.Load()
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Token file: %s\n", store.Path())
			if token == "" {
				fmt.Fprintf(out, "  Status:    %s\n", text.FgYellow.Sprint("Not authenticated"))
				return &AuthRequiredError{Reason: "no token is stored"}
			}

			if !verify {
				fmt.Fprintf(out, "  Status:    %s\n", text.FgGreen.Sprint("Token stored"))
				return nil
			}

			client, err := newGitHubClient(opts.cfg)
			if err != nil {
				return err
			}
			since := notifications.FormatSince(time.Now())
			if _, err := client.ListNotifications(cmd.Context(), token, since); err != nil {
				var protocolErr *github.ProtocolError
				if errors.As(err, &protocolErr) && protocolErr.IsUnauthorized() {
					fmt.Fprintf(out, "  Status:    %s\n", text.FgRed.Sprint("Token rejected by GitHub"))
					return &AuthRequiredError{Reason: "GitHub rejected the stored token", Err: err}
				}
				fmt.Fprintf(out, "  Status:    %s\n", text.FgRed.Sprint("Connection failed"))
				return err
			}
			fmt.Fprintf(out, "  Status:    %s\n", text.FgGreen.Sprint("Authenticated"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "Check the token against the notifications API")
	return cmd
}
