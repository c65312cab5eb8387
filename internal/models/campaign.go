package models

import (
	"time"

	"github.com/google/uuid"
)

// Campaign statuses
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusActive    = "active"
	CampaignStatusCompleted = "completed"
)

func IsValidCampaignStatus(s string) bool {
	switch s {
	case CampaignStatusDraft, CampaignStatusActive, CampaignStatusCompleted:
		return true
	}
	return false
}

// EligibilityCriteria is a conjunction of independent sub-predicates.
// A nil pointer or empty list means the criterion is not specified.
type EligibilityCriteria struct {
	MinFollowers  *int     `json:"min_followers,omitempty"`
	MaxFollowers  *int     `json:"max_followers,omitempty"`
	AllowedNiches []string `json:"allowed_niches,omitempty"`
	AllowedCities []string `json:"allowed_cities,omitempty"`
}

type Campaign struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Niches      []string  `json:"niches"`
	// Deliverables is free text such as "1 Reel + 2 Stories".
	Deliverables        string               `json:"deliverables"`
	RequiredSubmissions *int                 `json:"required_submissions,omitempty"`
	Timeline            string               `json:"timeline"`
	BasePayout          int64                `json:"base_payout"` // minor currency units
	Currency            string               `json:"currency"`
	CanNegotiate        bool                 `json:"can_negotiate"`
	Eligibility         *EligibilityCriteria `json:"eligibility,omitempty"`
	OwnerUserID         uuid.UUID            `json:"owner_user_id"`
	OwnerRole           Role                 `json:"owner_role"` // admin / brand
	Status              string               `json:"status"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

// Normalize enforces campaign-level invariants before the row is written.
func (c *Campaign) Normalize() {
	if c.OwnerRole == RoleBrand {
		c.CanNegotiate = false
	}
	if c.Status == "" {
		c.Status = CampaignStatusDraft
	}
	if c.Niches == nil {
		c.Niches = []string{}
	}
}

func (c *Campaign) IsActive() bool {
	return c.Status == CampaignStatusActive
}
