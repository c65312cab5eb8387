package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification types
const (
	NotificationNewCampaign         = "new_campaign"
	NotificationShortlisted         = "shortlisted"
	NotificationApplicationRejected = "application_rejected"
	NotificationNegotiationReceived = "negotiation_received"
	NotificationCounterOffer        = "counter_offer"
	NotificationOfferAccepted       = "offer_accepted"
	NotificationOfferRejected       = "offer_rejected"
	NotificationContractSigned      = "contract_signed"
	NotificationContentSubmitted    = "content_submitted"
	NotificationContentApproved     = "content_approved"
	NotificationContentRejected     = "content_rejected"
)

type Notification struct {
	ID          uuid.UUID      `json:"id"`
	UserID      uuid.UUID      `json:"user_id"`
	Role        Role           `json:"role"`
	Type        string         `json:"type"`
	Title       string         `json:"title"`
	Message     string         `json:"message"`
	Metadata    map[string]any `json:"metadata"`
	ReadAt      *time.Time     `json:"read_at,omitempty"`
	DeliveredAt *time.Time     `json:"delivered_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// IsRead reports whether the recipient has already seen the notification.
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}
