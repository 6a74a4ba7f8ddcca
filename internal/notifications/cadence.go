package notifications

import (
	"context"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultInterval is the cadence used when the server does not send a
	// usable X-Poll-Interval header.
	DefaultInterval = 60 * time.Second

	// SinceLayout is the ISO-8601 UTC layout of the since query parameter.
	SinceLayout = "2006-01-02T15:04:05Z"
)

// FormatSince renders t as the since query parameter.
func FormatSince(t time.Time) string {
	return t.UTC().Format(SinceLayout)
}

// ParseCadence interprets an X-Poll-Interval value as whole seconds. An empty,
// non-numeric or non-positive value yields fallback and false.
func ParseCadence(header string, fallback time.Duration) (time.Duration, bool) {
	seconds, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || seconds <= 0 {
		return fallback, false
	}
	return time.Duration(seconds) * time.Second, true
}

// SleepFunc suspends for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
