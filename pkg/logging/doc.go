// Package logging provides the structured logger used across ghnotifier.
//
// It is a thin layer over log/slog that tags every entry with a subsystem
// name so that output from the device authorization flow, the notification
// poller and the sinks can be told apart:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("DeviceFlow", "Polling token endpoint every %s", interval)
//	logging.Warn("Poller", "Ignoring malformed X-Poll-Interval header %q", raw)
//	logging.Error("Sink", err, "Failed to show desktop notification")
//
// Components that take a *slog.Logger (via a WithLogger option) get one from
// With(subsystem), which carries the same subsystem attribute.
//
// Log output is written to stderr by the CLI. User-facing status lines go to
// stdout and are not routed through this package. Access tokens are never
// logged.
package logging
