package events

import "context"

// Event types
const (
	EventEngagementChanged = "engagement_changed"
	EventNotification      = "notification"
)

// Streams
const (
	StreamNotifications = "events:notifications"
	StreamEngagements   = "events:engagements"
)

// CampaignStream is the per-campaign channel carrying engagement changes.
func CampaignStream(campaignID string) string {
	return StreamEngagements + ":" + campaignID
}

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
