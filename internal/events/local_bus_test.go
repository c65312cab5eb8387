package events

import (
	"context"
	"testing"
	"time"
)

func TestLocalBusDeliversToStreamSubscribers(t *testing.T) {
	bus := NewLocalBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []Event
	if err := bus.Subscribe(ctx, StreamNotifications, func(e Event) { got = append(got, e) }); err != nil {
		t.Fatal(err)
	}
	_ = bus.Publish(ctx, StreamNotifications, Event{Type: EventNotification})
	_ = bus.Publish(ctx, CampaignStream("c1"), Event{Type: EventEngagementChanged})

	if len(got) != 1 || got[0].Type != EventNotification {
		t.Errorf("got %+v, want one notification event", got)
	}
}

func TestLocalBusUnsubscribesOnCancel(t *testing.T) {
	bus := NewLocalBus()
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_ = bus.Subscribe(ctx, "s", func(Event) { calls++ })
	cancel()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		bus.mu.RLock()
		n := len(bus.handlers["s"])
		bus.mu.RUnlock()
		if n == 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	_ = bus.Publish(context.Background(), "s", Event{})
	if calls != 0 {
		t.Errorf("handler called %d times after cancel", calls)
	}
}

func TestCampaignStream(t *testing.T) {
	if got := CampaignStream("abc"); got != "events:engagements:abc" {
		t.Errorf("CampaignStream() = %q", got)
	}
}
