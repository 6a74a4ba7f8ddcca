package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"ghnotifier/internal/config"
	"ghnotifier/internal/github"
	"ghnotifier/internal/history"
	"ghnotifier/internal/notifications"
	"ghnotifier/internal/sink"
	"ghnotifier/internal/tokenstore"
	"ghnotifier/pkg/logging"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"
)

// errTokenChanged cancels a poll run when the token file changes.
var errTokenChanged = errors.New("stored token changed")

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll GitHub and show new notifications",
		Long: `Poll the notifications API with the stored token and show every new
notification until interrupted.

The polling cadence follows the X-Poll-Interval header sent by GitHub.
Removing the token with "ghnotifier auth logout" stops a running watch;
replacing it with "ghnotifier auth login --force" makes it continue with
the new token. When started by systemd with Type=notify, readiness and
a status line are reported to the service manager.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newTokenStore(opts.cfg)
			if err != nil {
				return err
			}
			token, err := store.Load()
			if err != nil {
				return err
			}
			if token == "" {
				return &AuthRequiredError{Reason: "no token is stored"}
			}
			return runWatch(cmd.Context(), opts, cmd.OutOrStdout(), token)
		},
	}
}

// runWatch polls with token until ctx is cancelled, the token is removed or
// a fetch fails. Cancellation of ctx is a clean exit.
func runWatch(ctx context.Context, opts *rootOptions, out io.Writer, token string) error {
	cfg := opts.cfg

	client, err := newGitHubClient(cfg)
	if err != nil {
		return err
	}
	store, err := newTokenStore(cfg)
	if err != nil {
		return err
	}
	policy, err := notifications.ParsePolicy(cfg.Poller.Backpressure)
	if err != nil {
		return err
	}

	var hist *history.Store
	if cfg.History.Enabled {
		hist, err = history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer hist.Close()
	}

	for {
		err := watchWithToken(ctx, cfg, client, store, hist, policy, out, token)
		if !errors.Is(err, errTokenChanged) {
			return err
		}

		next, loadErr := store.Load()
		if loadErr != nil {
			return loadErr
		}
		if next == "" {
			return &AuthRequiredError{Reason: "the stored token was removed"}
		}
		if next != token {
			logging.Info("Watch", "Stored token was replaced, continuing with the new token")
		}
		token = next
	}
}

func watchWithToken(
	ctx context.Context,
	cfg *config.Config,
	client *github.Client,
	store *tokenstore.Store,
	hist *history.Store,
	policy notifications.Policy,
	out io.Writer,
	token string,
) error {
	target, err := buildSink(cfg, client, hist, out, token)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	watcher := tokenstore.NewWatcher(tokenstore.WatcherConfig{
		Path: store.Path(),
		OnChange: func() {
			current, err := store.Load()
			if err != nil {
				logging.Error("Watch", err, "Failed to reload token")
				return
			}
			if current != token {
				cancel(errTokenChanged)
			}
		},
	})
	if err := watcher.Start(); err != nil {
		return err
	}
	defer watcher.Stop()

	dispatcher := notifications.NewDispatcher(target, cfg.Poller.MaxInFlight, policy,
		notifications.WithDispatchLogger(logging.With("Dispatcher")))

	poller := notifications.NewPoller(
		notifications.Config{DefaultInterval: cfg.Poller.DefaultInterval},
		client,
		dispatcher,
		notifications.WithLogger(logging.With("Poller")),
		notifications.WithCycleHook(func(c notifications.Cycle) {
			sdNotify(fmt.Sprintf("STATUS=%d new notification(s) in the last poll, next poll in %s", c.Fetched, c.Next))
			if hist != nil && cfg.History.Retain > 0 {
				if _, err := hist.Prune(ctx, cfg.History.Retain); err != nil {
					logging.Warn("Watch", "Failed to prune history: %v", err)
				}
			}
		}),
	)

	logging.Info("Watch", "Watching notifications (max %d concurrent deliveries, %s policy)",
		cfg.Poller.MaxInFlight, policy)
	sdNotify(daemon.SdNotifyReady)

	err = poller.Run(runCtx, token)

	dispatcher.Wait()
	stats := dispatcher.Stats()
	logging.Info("Watch", "Stopped polling: %d dispatched, %d delivered, %d failed, %d skipped",
		stats.Dispatched, stats.Delivered, stats.Failed, stats.Skipped)

	if cause := context.Cause(runCtx); errors.Is(cause, errTokenChanged) && ctx.Err() == nil {
		return errTokenChanged
	}
	sdNotify(daemon.SdNotifyStopping)

	if ctx.Err() != nil {
		return nil
	}

	var protocolErr *github.ProtocolError
	if errors.As(err, &protocolErr) && protocolErr.IsUnauthorized() {
		return &AuthRequiredError{Reason: "GitHub rejected the stored token", Err: err}
	}
	return err
}

// buildSink assembles the sinks enabled in the configuration.
func buildSink(cfg *config.Config, client *github.Client, hist *history.Store, out io.Writer, token string) (notifications.Sink, error) {
	renderer, err := sink.NewRenderer(cfg.Sink.Template)
	if err != nil {
		return nil, err
	}

	var sinks sink.Multi
	if cfg.Sink.Console {
		sinks = append(sinks, sink.NewConsole(out, renderer))
	}
	if cfg.Sink.Desktop {
		sinks = append(sinks, sink.NewDesktop(renderer, sink.WithIcon(cfg.Sink.Icon)))
	}
	if cfg.Sink.OpenBrowser {
		sinks = append(sinks, sink.NewBrowserOpener(client, token, nil))
	}
	if hist != nil {
		sinks = append(sinks, sink.NewRecorder(hist))
	}
	if len(sinks) == 0 {
		logging.Warn("Watch", "All sinks are disabled, notifications will be dropped")
	}
	return sinks, nil
}

// sdNotify reports state to systemd; it is a no-op outside a notify service.
func sdNotify(state string) {
	if _, err := daemon.SdNotify(false, state); err != nil {
		logging.Debug("Watch", "systemd notification failed: %v", err)
	}
}
