package sink

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"ghnotifier/internal/notifications"
)

// OpenBrowser opens url in the default web browser without waiting for it.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	if _, err := startDetached(cmd); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

// startDetached starts cmd and reaps it in the background. The returned
// channel receives the result of Wait.
func startDetached(cmd *exec.Cmd) (<-chan error, error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()
	return done, nil
}

// Resolver maps an API URL to the web page of the same resource.
// *github.Client implements it.
type Resolver interface {
	ResolveHTMLURL(ctx context.Context, token, apiURL string) (string, error)
}

// BrowserOpener opens the latest comment of each notification in a browser.
// Notifications without a comment URL are ignored.
type BrowserOpener struct {
	resolver Resolver
	token    string
	open     func(url string) error
}

// NewBrowserOpener creates a BrowserOpener authenticating lookups with token.
// A nil open uses OpenBrowser.
func NewBrowserOpener(resolver Resolver, token string, open func(string) error) *BrowserOpener {
	if open == nil {
		open = OpenBrowser
	}
	return &BrowserOpener{resolver: resolver, token: token, open: open}
}

// Deliver resolves n's comment URL and opens it.
func (b *BrowserOpener) Deliver(ctx context.Context, n notifications.Notification) error {
	if n.CommentURL == "" {
		return nil
	}
	htmlURL, err := b.resolver.ResolveHTMLURL(ctx, b.token, n.CommentURL)
	if err != nil {
		return fmt.Errorf("resolve follow-up url: %w", err)
	}
	return b.open(htmlURL)
}
