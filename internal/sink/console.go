package sink

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"

	"ghnotifier/internal/notifications"
)

// Console prints notifications to a terminal.
type Console struct {
	mu       sync.Mutex
	out      io.Writer
	renderer *Renderer
	now      func() time.Time
}

// NewConsole creates a Console writing to out.
func NewConsole(out io.Writer, renderer *Renderer) *Console {
	return &Console{out: out, renderer: renderer, now: time.Now}
}

// Deliver writes the rendered notification, one indented line per body line.
func (c *Console) Deliver(_ context.Context, n notifications.Notification) error {
	msg, err := c.renderer.Render(n)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n",
		text.FgHiBlack.Sprint(c.now().Format("15:04:05")),
		text.Colors{text.Bold, text.FgCyan}.Sprint(msg.Summary))
	for _, line := range strings.Split(msg.Body, "\n") {
		fmt.Fprintf(&b, "  %s\n", line)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = io.WriteString(c.out, b.String())
	return err
}
