package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"ghnotifier/internal/config"
	"ghnotifier/internal/deviceflow"
	"ghnotifier/internal/github"
	"ghnotifier/pkg/logging"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates no usable token is stored, or GitHub rejected it.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the device authorization did not complete.
	ExitCodeAuthFailed = 3
)

// appVersion is injected from main at build time.
var appVersion = "dev"

// rootOptions carries the global flags and the configuration loaded from them.
type rootOptions struct {
	configFile string
	logLevel   string
	quiet      bool

	cfg *config.Config

	// openVerificationURI is set by "auth login --open".
	openVerificationURI func(string) error
}

// printf prints progress output unless --quiet is set.
func (o *rootOptions) printf(w io.Writer, format string, args ...interface{}) {
	if !o.quiet {
		fmt.Fprintf(w, format, args...)
	}
}

// println prints a line unless --quiet is set.
func (o *rootOptions) println(w io.Writer, a ...interface{}) {
	if !o.quiet {
		fmt.Fprintln(w, a...)
	}
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "ghnotifier",
		Short: "Show GitHub notifications on your desktop",
		Long: `ghnotifier authorizes itself against GitHub with the OAuth device flow,
then polls your notifications and shows every new one on the desktop.

Run without a subcommand it logs in when no token is stored yet and then
starts watching, the same as "ghnotifier auth login && ghnotifier watch".`,
		// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
		SilenceUsage: true,
		Version:      appVersion,
		Args:         cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := ensureToken(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), opts, cmd.OutOrStdout(), token)
		},
	}
	rootCmd.SetVersionTemplate(`{{printf "ghnotifier version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Config file (default is <user config dir>/ghnotifier/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides log.level)")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress non-essential output")

	rootCmd.AddCommand(newAuthCmd(opts))
	rootCmd.AddCommand(newWatchCmd(opts))
	rootCmd.AddCommand(newHistoryCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())

	return rootCmd
}

// load reads the configuration and sets up logging on stderr.
func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return err
	}
	o.cfg = cfg

	levelName := cfg.Log.Level
	if o.logLevel != "" {
		levelName = o.logLevel
	}
	return o.initLogging(cmd, levelName)
}

func (o *rootOptions) initLogging(cmd *cobra.Command, levelName string) error {
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	logging.InitForCLI(level, cmd.ErrOrStderr())
	return nil
}

// SetVersion sets the version reported by the CLI.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	appVersion = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return appVersion
}

// Execute runs the CLI and exits with a semantic exit code on failure.
// SIGINT and SIGTERM cancel the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	var authRequired *AuthRequiredError
	if errors.As(err, &authRequired) {
		return ExitCodeAuthRequired
	}

	var protocolErr *github.ProtocolError
	if errors.As(err, &protocolErr) && protocolErr.IsUnauthorized() {
		return ExitCodeAuthRequired
	}

	var authFailed *AuthFailedError
	if errors.As(err, &authFailed) {
		return ExitCodeAuthFailed
	}

	var denied *deviceflow.AuthorizationError
	if errors.As(err, &denied) || errors.Is(err, deviceflow.ErrTimeout) {
		return ExitCodeAuthFailed
	}

	// Default to general error
	return ExitCodeError
}
