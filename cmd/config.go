package cmd

import (
	"fmt"

	"ghnotifier/internal/config"

	"github.com/spf13/cobra"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the configuration file",
		Long: `Create or inspect the ghnotifier configuration.

Settings come from built-in defaults, the YAML config file and
GHNOTIFIER_* environment variables, in increasing order of precedence.
Nested keys use underscores in variable names: GHNOTIFIER_POLLER_MAX_INFLIGHT.`,
	}

	configCmd.AddCommand(newConfigInitCmd(opts))
	configCmd.AddCommand(newConfigShowCmd(opts))
	return configCmd
}

func newConfigInitCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		// The existing file may be the reason for running init, so it is not loaded.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.initLogging(cmd, opts.logLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configFile
			if path == "" {
				p, err := config.DefaultConfigFile()
				if err != nil {
					return err
				}
				path = p
			}
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			opts.printf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := opts.cfg.Render()
			if err != nil {
				return err
			}
			if src := opts.cfg.Source(); src != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# source: %s\n", src)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "# source: defaults")
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
