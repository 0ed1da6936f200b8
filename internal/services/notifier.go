package services

import (
	"context"
	"time"

	"github.com/lunaro-social/backend/internal/models"
	"github.com/lunaro-social/backend/internal/repositories"
	"github.com/rs/zerolog"
)

// EventKind names the notification events the core emits.
type EventKind string

const (
	EventComment      EventKind = "comment"
	EventCommentReply EventKind = "comment_reply"
	EventFlagReviewed EventKind = "flag_reviewed"
	EventFollow       EventKind = "follow"
	EventLike         EventKind = "like"
)

// Event is an abstract notification emitted after a transaction commits.
// Delivery is entirely the dispatcher's concern.
type Event struct {
	Kind        EventKind
	ActorID     uint
	RecipientID uint
	TargetType  string
	TargetID    string
	Message     string
}

// Notifier dispatches events best-effort. Dispatch must never block the
// caller and must never fail the already-committed operation that emitted
// the event.
type Notifier interface {
	Dispatch(event Event)
}

// RepoNotifier persists events as notification rows, asynchronously.
type RepoNotifier struct {
	store repositories.Store
	log   zerolog.Logger
}

// NewRepoNotifier creates a new RepoNotifier
func NewRepoNotifier(store repositories.Store, log zerolog.Logger) *RepoNotifier {
	return &RepoNotifier{store: store, log: log}
}

// Dispatch writes the notification in the background. Failures are logged
// and dropped; this core does not retry.
func (n *RepoNotifier) Dispatch(event Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		message := event.Message
		if message == "" {
			message = defaultMessage(ctx, n.store, event)
		}

		notification := &models.Notification{
			Type:        string(event.Kind),
			ActorID:     event.ActorID,
			RecipientID: event.RecipientID,
			TargetID:    event.TargetID,
			TargetType:  event.TargetType,
			Message:     message,
		}
		if err := n.store.Notifications().CreateNotification(ctx, notification); err != nil {
			n.log.Warn().Err(err).
				Str("kind", string(event.Kind)).
				Uint("recipient_id", event.RecipientID).
				Msg("failed to persist notification")
		}
	}()
}

func defaultMessage(ctx context.Context, store repositories.Store, event Event) string {
	name := "Someone"
	if actor, err := store.Users().GetUserByID(ctx, event.ActorID); err == nil {
		name = actor.Name
	}
	switch event.Kind {
	case EventComment:
		return name + " commented on your post"
	case EventCommentReply:
		return name + " replied to your comment"
	case EventFollow:
		return name + " started following you"
	case EventLike:
		return name + " liked your post"
	case EventFlagReviewed:
		return "Your report has been reviewed"
	}
	return ""
}
