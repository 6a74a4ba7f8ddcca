package sink

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"ghnotifier/internal/notifications"
)

// CommandRunner runs an external program to completion.
type CommandRunner func(ctx context.Context, name string, args ...string) error

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Desktop shows notifications through the platform notification service:
// notify-send on Linux and osascript on macOS.
type Desktop struct {
	renderer *Renderer
	icon     string
	goos     string
	run      CommandRunner
}

// DesktopOption configures the Desktop sink.
type DesktopOption func(*Desktop)

// WithIcon sets the icon passed to notify-send.
func WithIcon(icon string) DesktopOption {
	return func(d *Desktop) {
		d.icon = icon
	}
}

// WithCommandRunner replaces the function used to run the notifier program.
func WithCommandRunner(run CommandRunner) DesktopOption {
	return func(d *Desktop) {
		d.run = run
	}
}

// WithPlatform overrides runtime.GOOS.
func WithPlatform(goos string) DesktopOption {
	return func(d *Desktop) {
		d.goos = goos
	}
}

// NewDesktop creates a Desktop sink.
func NewDesktop(renderer *Renderer, opts ...DesktopOption) *Desktop {
	d := &Desktop{
		renderer: renderer,
		goos:     runtime.GOOS,
		run:      runCommand,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Deliver shows n as a desktop notification.
func (d *Desktop) Deliver(ctx context.Context, n notifications.Notification) error {
	msg, err := d.renderer.Render(n)
	if err != nil {
		return err
	}
	name, args, err := d.command(msg)
	if err != nil {
		return err
	}
	if err := d.run(ctx, name, args...); err != nil {
		return fmt.Errorf("failed to show desktop notification: %w", err)
	}
	return nil
}

func (d *Desktop) command(msg Message) (string, []string, error) {
	switch d.goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		args := []string{"--app-name=ghnotifier"}
		if d.icon != "" {
			args = append(args, "--icon="+d.icon)
		}
		return "notify-send", append(args, "--", msg.Summary, msg.Body), nil
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s",
			appleScriptString(msg.Body), appleScriptString(msg.Summary))
		return "osascript", []string{"-e", script}, nil
	default:
		return "", nil, fmt.Errorf("desktop notifications are not supported on %s", d.goos)
	}
}

func appleScriptString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
