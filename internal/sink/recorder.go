package sink

import (
	"context"
	"fmt"

	"ghnotifier/internal/history"
	"ghnotifier/internal/notifications"
)

// Appender stores delivery records. *history.Store implements it.
type Appender interface {
	Append(ctx context.Context, rec *history.Record) error
}

// Recorder logs every delivered notification to the history store.
type Recorder struct {
	store Appender
}

// NewRecorder creates a Recorder.
func NewRecorder(store Appender) *Recorder {
	return &Recorder{store: store}
}

// Deliver appends a record for n.
func (r *Recorder) Deliver(ctx context.Context, n notifications.Notification) error {
	rec := &history.Record{
		NotificationID: n.ID,
		Repository:     n.RepositoryFullName,
		SubjectType:    n.SubjectType,
		SubjectTitle:   n.SubjectTitle,
		Reason:         n.Reason,
		CommentURL:     n.CommentURL,
	}
	if err := r.store.Append(ctx, rec); err != nil {
		return fmt.Errorf("record notification %s: %w", n.ID, err)
	}
	return nil
}
