package notifications

import (
	"context"
	"log/slog"
	"time"

	"ghnotifier/internal/github"
)

// Fetcher lists notifications. *github.Client implements it.
type Fetcher interface {
	ListNotifications(ctx context.Context, token, since string) (*github.NotificationsResponse, error)
}

// Config holds the Poller settings.
type Config struct {
	// DefaultInterval defaults to DefaultInterval.
	DefaultInterval time.Duration
}

// Cycle summarizes one completed poll cycle.
type Cycle struct {
	Number int
	// Since is the cursor sent with the request, empty on the first cycle.
	Since      string
	Fetched    int
	Dispatched int
	// Next is the wait before the following cycle.
	Next time.Duration
}

// Poller fetches notifications since a moving cursor and hands every item to
// a Dispatcher, waiting the server-requested cadence between fetches.
type Poller struct {
	cfg        Config
	fetcher    Fetcher
	dispatcher *Dispatcher
	sleep      SleepFunc
	now        func() time.Time
	logger     *slog.Logger
	onCycle    func(Cycle)
}

// Option configures the Poller.
type Option func(*Poller)

// WithSleep replaces the function used to wait between cycles.
func WithSleep(fn SleepFunc) Option {
	return func(p *Poller) {
		p.sleep = fn
	}
}

// WithNow replaces the clock used to advance the cursor.
func WithNow(fn func() time.Time) Option {
	return func(p *Poller) {
		p.now = fn
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) {
		p.logger = logger
	}
}

// WithCycleHook registers a callback invoked after every dispatched cycle,
// before the poller goes to sleep.
func WithCycleHook(fn func(Cycle)) Option {
	return func(p *Poller) {
		p.onCycle = fn
	}
}

// NewPoller creates a Poller.
func NewPoller(cfg Config, fetcher Fetcher, dispatcher *Dispatcher, opts ...Option) *Poller {
	if cfg.DefaultInterval <= 0 {
		cfg.DefaultInterval = DefaultInterval
	}
	p := &Poller{
		cfg:        cfg,
		fetcher:    fetcher,
		dispatcher: dispatcher,
		sleep:      sleep,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run polls until ctx is cancelled or a fetch fails. It returns ctx.Err() on
// cancellation and the *github.TransportError or *github.ProtocolError
// otherwise; failed fetches are not retried.
//
// The cursor moves to the current time right before each request is sent, so
// notifications created while a request is in flight can be missed.
func (p *Poller) Run(ctx context.Context, token string) error {
	var cursor time.Time

	for cycle := 1; ; cycle++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		var since string
		if !cursor.IsZero() {
			since = FormatSince(cursor)
		}
		cursor = p.now()

		resp, err := p.fetcher.ListNotifications(ctx, token, since)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}

		next, ok := ParseCadence(resp.PollInterval, p.cfg.DefaultInterval)
		if !ok && resp.PollInterval != "" {
			p.logger.Warn("Ignoring malformed poll interval header",
				"value", resp.PollInterval, "fallback", next)
		}

		dispatched := 0
		for _, item := range resp.Notifications {
			if p.dispatcher.Dispatch(ctx, FromAPI(item)) {
				dispatched++
			}
		}

		p.logger.Debug("Poll cycle completed",
			"cycle", cycle,
			"fetched", len(resp.Notifications),
			"dispatched", dispatched,
			"next", next)
		if p.onCycle != nil {
			p.onCycle(Cycle{
				Number:     cycle,
				Since:      since,
				Fetched:    len(resp.Notifications),
				Dispatched: dispatched,
				Next:       next,
			})
		}

		if err := p.sleep(ctx, next); err != nil {
			return err
		}
	}
}
