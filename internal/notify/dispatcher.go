package notify

import (
	"context"
	"time"

	"github.com/influencer-marketplace/backend/internal/events"
	"github.com/influencer-marketplace/backend/internal/models"
	"go.uber.org/zap"
)

// Dispatcher delivers an already-recorded notification to its recipient.
type Dispatcher interface {
	Send(ctx context.Context, n models.Notification) error
}

// PublishDispatcher pushes notifications onto the event bus, where the
// websocket hub and the push bridge pick them up.
type PublishDispatcher struct {
	publisher events.Publisher
	timeout   time.Duration
	log       *zap.Logger
}

func NewPublishDispatcher(publisher events.Publisher, log *zap.Logger) *PublishDispatcher {
	return &PublishDispatcher{publisher: publisher, timeout: 3 * time.Second, log: log}
}

func (d *PublishDispatcher) Send(ctx context.Context, n models.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	err := d.publisher.Publish(ctx, events.StreamNotifications, events.Event{
		Type:    events.EventNotification,
		Payload: Payload(n),
	})
	if err != nil {
		return err
	}
	d.log.Debug("notification dispatched",
		zap.String("notification_id", n.ID.String()),
		zap.String("user_id", n.UserID.String()),
		zap.String("type", n.Type))
	return nil
}

// Payload is the wire form of a notification on the event bus.
func Payload(n models.Notification) map[string]any {
	return map[string]any{
		"id":         n.ID.String(),
		"user_id":    n.UserID.String(),
		"role":       string(n.Role),
		"type":       n.Type,
		"title":      n.Title,
		"message":    n.Message,
		"metadata":   n.Metadata,
		"created_at": n.CreatedAt,
	}
}
