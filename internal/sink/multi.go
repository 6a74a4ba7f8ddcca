package sink

import (
	"context"
	"errors"

	"ghnotifier/internal/notifications"
)

// Multi delivers every notification to each of its sinks in order. A failing
// sink does not stop the others; their errors are joined.
type Multi []notifications.Sink

// Deliver implements notifications.Sink.
func (m Multi) Deliver(ctx context.Context, n notifications.Notification) error {
	var errs []error
	for _, s := range m {
		if err := s.Deliver(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
