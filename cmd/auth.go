package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAuthCmd(opts *rootOptions) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the GitHub authorization of ghnotifier",
		Long: `Manage the access token ghnotifier uses to read your notifications.

Examples:
  ghnotifier auth login            # Authorize this device if no token is stored
  ghnotifier auth login --force    # Authorize again, replacing the stored token
  ghnotifier auth status           # Show whether a token is stored
  ghnotifier auth status --verify  # Also check the token against GitHub
  ghnotifier auth logout           # Remove the stored token`,
	}

	authCmd.AddCommand(newAuthLoginCmd(opts))
	authCmd.AddCommand(newAuthLogoutCmd(opts))
	authCmd.AddCommand(newAuthStatusCmd(opts))
	return authCmd
}

func newAuthLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored access token",
		Long: `Remove the stored access token.

A running "ghnotifier watch" notices the removal and stops.
The authorization itself stays listed on GitHub until you revoke it under
Settings > Applications.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newTokenStore(opts.cfg)
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return fmt.Errorf("failed to logout: %w", err)
			}
			opts.printf(cmd.OutOrStdout(), "Logged out, removed %s\n", store.Path())
			return nil
		},
	}
}
