package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/influencer-marketplace/backend/internal/events"
	"github.com/influencer-marketplace/backend/internal/models"
	"go.uber.org/zap"
)

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, events.Event) error {
	return errors.New("redis down")
}

func TestPublishDispatcherSendsOnNotificationStream(t *testing.T) {
	bus := events.NewLocalBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []events.Event
	_ = bus.Subscribe(ctx, events.StreamNotifications, func(e events.Event) { got = append(got, e) })

	d := NewPublishDispatcher(bus, zap.NewNop())
	n := models.Notification{ID: uuid.New(), UserID: uuid.New(), Role: models.RoleInfluencer, Type: models.NotificationShortlisted}
	if err := d.Send(ctx, n); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Payload["user_id"] != n.UserID.String() || got[0].Payload["role"] != "influencer" {
		t.Errorf("published = %+v", got)
	}
}

func TestPublishDispatcherReturnsTransportError(t *testing.T) {
	d := NewPublishDispatcher(failingPublisher{}, zap.NewNop())
	if err := d.Send(context.Background(), models.Notification{ID: uuid.New()}); err == nil {
		t.Error("expected error")
	}
}
