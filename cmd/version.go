package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newVersionCmd creates the Cobra command for displaying the application version.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of ghnotifier",
		Long:  `All software has versions. This is ghnotifier's.`,
		Args:  cobra.NoArgs,
		// The version must print even when the configuration is broken.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ghnotifier version %s\n", appVersion)
		},
	}
}
