package dto

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// SuccessResponse wraps every payload. Warnings list side effects that
// failed after the action itself was committed.
type SuccessResponse struct {
	OK       bool     `json:"ok"`
	Data     any      `json:"data,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

type CampaignCreatedResponse struct {
	Campaign any `json:"campaign"`
	Notified int `json:"notified"`
}

type BulkSelectResponse struct {
	Shortlisted any `json:"shortlisted"`
	Declined    any `json:"declined"`
}

type UnreadCountResponse struct {
	Unread int `json:"unread"`
}
