package notifications

import (
	"context"
	"time"

	"ghnotifier/internal/github"
)

// Notification is a single unread item handed to a Sink. It is read once per
// poll cycle and never cached or deduplicated across cycles.
type Notification struct {
	ID                 string
	Reason             string
	SubjectTitle       string
	SubjectType        string
	RepositoryFullName string
	// CommentURL is the API URL of the latest comment, empty when the
	// subject has none.
	CommentURL string
	UpdatedAt  time.Time
}

// FromAPI converts a notifications endpoint element.
func FromAPI(n github.Notification) Notification {
	out := Notification{
		ID:                 n.ID,
		Reason:             n.Reason,
		SubjectTitle:       n.Subject.Title,
		SubjectType:        n.Subject.Type,
		RepositoryFullName: n.Repository.FullName,
		UpdatedAt:          n.UpdatedAt,
	}
	if n.Subject.LatestCommentURL != nil {
		out.CommentURL = *n.Subject.LatestCommentURL
	}
	return out
}

// Sink receives dispatched notifications. Deliver may be called concurrently.
type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, n Notification) error

// Deliver calls f(ctx, n).
func (f SinkFunc) Deliver(ctx context.Context, n Notification) error {
	return f(ctx, n)
}
