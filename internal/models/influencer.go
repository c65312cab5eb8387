package models

import (
	"time"

	"github.com/google/uuid"
)

// Influencer is the profile slice consumed by eligibility and the engagement workflow.
// UserID doubles as the influencer reference on engagements.
type Influencer struct {
	UserID               uuid.UUID  `json:"user_id"`
	DisplayName          string     `json:"display_name"`
	Handle               string     `json:"handle"`
	FollowerCount        *int       `json:"follower_count,omitempty"`
	Niches               []string   `json:"niches"`
	City                 *string    `json:"city,omitempty"`
	Blocked              bool       `json:"blocked"`
	BlockedReason        *string    `json:"blocked_reason,omitempty"`
	FollowersRefreshedAt *time.Time `json:"followers_refreshed_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}
