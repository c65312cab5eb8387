package repositories

import (
	"github.com/google/uuid"
	"github.com/influencer-marketplace/backend/internal/models"
)

type CampaignFilter struct {
	OwnerUserID *uuid.UUID
	Status      *string
	Limit       int
	Offset      int
}

// PageLimit clamps a requested page size.
func PageLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 500 {
		return 500
	}
	return limit
}

type EngagementFilter struct {
	CampaignID   *uuid.UUID
	InfluencerID *uuid.UUID
	Status       *models.EngagementStatus
	Limit        int
	Offset       int
}
