package dto

import "github.com/influencer-marketplace/backend/internal/models"

// Campaigns

type CreateCampaignRequest struct {
	Name                string                      `json:"name"`
	Description         string                      `json:"description"`
	Niches              []string                    `json:"niches"`
	Deliverables        string                      `json:"deliverables"`
	RequiredSubmissions *int                        `json:"required_submissions,omitempty"`
	Timeline            string                      `json:"timeline"`
	BasePayout          int64                       `json:"base_payout"` // minor units
	Currency            string                      `json:"currency"`
	CanNegotiate        bool                        `json:"can_negotiate"`
	Eligibility         *models.EligibilityCriteria `json:"eligibility,omitempty"`
	Status              string                      `json:"status,omitempty"` // draft (default) / active
}

type UpdateCampaignStatusRequest struct {
	Status string `json:"status"`
}

// Engagements

type BulkSelectRequest struct {
	SelectedIDs []string `json:"selected_ids"`
}

// TransitionRequest carries the optional inputs of an engagement action:
// amount for negotiate/counter, links for submit-content, note for reviews.
type TransitionRequest struct {
	Amount int64    `json:"amount,omitempty"`
	Note   *string  `json:"note,omitempty"`
	Links  []string `json:"links,omitempty"`
}
