package main

import (
	"testing"

	"github.com/google/uuid"
	"github.com/influencer-marketplace/backend/internal/events"
	"github.com/influencer-marketplace/backend/internal/models"
	"github.com/influencer-marketplace/backend/internal/notify"
)

func TestNotificationFromEvent(t *testing.T) {
	want := models.Notification{
		ID: uuid.New(), UserID: uuid.New(), Role: models.RoleInfluencer,
		Type: models.NotificationShortlisted, Title: "You're shortlisted", Message: "Pick your terms",
		Metadata: map[string]any{"campaign_id": "c1"},
	}
	got, err := notificationFromEvent(events.Event{Type: events.EventNotification, Payload: notify.Payload(want)})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != want.ID || got.UserID != want.UserID || got.Role != want.Role || got.Title != want.Title {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if got.Metadata["campaign_id"] != "c1" {
		t.Errorf("metadata = %v", got.Metadata)
	}
}

func TestNotificationFromEventRejects(t *testing.T) {
	tests := []struct {
		name string
		ev   events.Event
	}{
		{"wrong type", events.Event{Type: events.EventEngagementChanged}},
		{"bad id", events.Event{Type: events.EventNotification, Payload: map[string]any{"id": "x"}}},
		{"missing user", events.Event{Type: events.EventNotification, Payload: map[string]any{"id": uuid.NewString()}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := notificationFromEvent(tt.ev); err == nil {
				t.Errorf("expected error")
			}
		})
	}
}
