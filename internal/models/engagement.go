package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EngagementStatus string

// Engagement statuses
const (
	EngagementStatusNone                 EngagementStatus = ""
	EngagementStatusApplied              EngagementStatus = "applied"
	EngagementStatusShortlisted          EngagementStatus = "shortlisted"
	EngagementStatusNotShortlisted       EngagementStatus = "not_shortlisted"
	EngagementStatusInfluencerNegotiated EngagementStatus = "influencer_negotiated"
	EngagementStatusAdminNegotiated      EngagementStatus = "admin_negotiated"
	EngagementStatusRejected             EngagementStatus = "rejected"
	EngagementStatusAccepted             EngagementStatus = "accepted"
	EngagementStatusContentPosted        EngagementStatus = "content_posted"
	EngagementStatusContentRejected      EngagementStatus = "content_rejected"
	EngagementStatusCompleted            EngagementStatus = "completed"
)

var AllEngagementStatuses = []EngagementStatus{
	EngagementStatusApplied, EngagementStatusShortlisted, EngagementStatusNotShortlisted,
	EngagementStatusInfluencerNegotiated, EngagementStatusAdminNegotiated, EngagementStatusRejected,
	EngagementStatusAccepted, EngagementStatusContentPosted, EngagementStatusContentRejected,
	EngagementStatusCompleted,
}

func IsValidEngagementStatus(s string) bool {
	for _, st := range AllEngagementStatuses {
		if string(st) == s {
			return true
		}
	}
	return false
}

// HasFinalPayout reports whether terms are settled in this status.
func (s EngagementStatus) HasFinalPayout() bool {
	switch s {
	case EngagementStatusAccepted, EngagementStatusContentPosted,
		EngagementStatusContentRejected, EngagementStatusCompleted:
		return true
	}
	return false
}

// HasPostedLinks reports whether submitted links may be present in this status.
func (s EngagementStatus) HasPostedLinks() bool {
	return s == EngagementStatusContentPosted || s == EngagementStatusCompleted
}

type Event string

// Workflow events
const (
	EventApply          Event = "apply"
	EventShortlist      Event = "shortlist"
	EventDecline        Event = "decline"
	EventAcceptBase     Event = "accept_base"
	EventNegotiate      Event = "negotiate"
	EventCounter        Event = "counter"
	EventAcceptOffer    Event = "accept_offer"
	EventRejectOffer    Event = "reject_offer"
	EventAcceptCounter  Event = "accept_counter"
	EventLeave          Event = "leave"
	EventSignContract   Event = "sign_contract"
	EventSubmitContent  Event = "submit_content"
	EventApproveContent Event = "approve_content"
	EventRejectContent  Event = "reject_content"
)

// Transition is one row of the engagement state table. To is
// EngagementStatusNone when the row is removed.
type Transition struct {
	From  EngagementStatus
	Event Event
	To    EngagementStatus
	Roles []Role
}

func (t Transition) Allows(role Role) bool {
	for _, r := range t.Roles {
		if r == role {
			return true
		}
	}
	return false
}

var (
	influencerOnly = []Role{RoleInfluencer}
	campaignSide   = []Role{RoleAdmin, RoleBrand}
	adminOnly      = []Role{RoleAdmin}
)

// Transitions is the full legal state table.
var Transitions = []Transition{
	{EngagementStatusNone, EventApply, EngagementStatusApplied, influencerOnly},

	{EngagementStatusApplied, EventShortlist, EngagementStatusShortlisted, campaignSide},
	{EngagementStatusApplied, EventDecline, EngagementStatusNotShortlisted, campaignSide},

	{EngagementStatusShortlisted, EventAcceptBase, EngagementStatusAccepted, influencerOnly},
	{EngagementStatusShortlisted, EventNegotiate, EngagementStatusInfluencerNegotiated, influencerOnly},

	{EngagementStatusInfluencerNegotiated, EventCounter, EngagementStatusAdminNegotiated, campaignSide},
	{EngagementStatusInfluencerNegotiated, EventAcceptOffer, EngagementStatusAccepted, campaignSide},
	{EngagementStatusInfluencerNegotiated, EventRejectOffer, EngagementStatusRejected, campaignSide},

	{EngagementStatusAdminNegotiated, EventAcceptCounter, EngagementStatusAccepted, influencerOnly},
	{EngagementStatusAdminNegotiated, EventNegotiate, EngagementStatusInfluencerNegotiated, influencerOnly},

	{EngagementStatusRejected, EventLeave, EngagementStatusNone, influencerOnly},
	{EngagementStatusRejected, EventAcceptBase, EngagementStatusAccepted, influencerOnly},

	{EngagementStatusAccepted, EventSignContract, EngagementStatusAccepted, influencerOnly},
	{EngagementStatusAccepted, EventSubmitContent, EngagementStatusContentPosted, influencerOnly},

	// Content review stays with the platform, brand campaigns included.
	{EngagementStatusContentPosted, EventApproveContent, EngagementStatusCompleted, adminOnly},
	{EngagementStatusContentPosted, EventRejectContent, EngagementStatusContentRejected, adminOnly},

	{EngagementStatusContentRejected, EventSubmitContent, EngagementStatusContentPosted, influencerOnly},
}

type transitionKey struct {
	from  EngagementStatus
	event Event
}

var transitionIndex = func() map[transitionKey]Transition {
	idx := make(map[transitionKey]Transition, len(Transitions))
	for _, t := range Transitions {
		idx[transitionKey{t.From, t.Event}] = t
	}
	return idx
}()

// LookupTransition returns the table row for (from, event).
func LookupTransition(from EngagementStatus, event Event) (Transition, bool) {
	t, ok := transitionIndex[transitionKey{from, event}]
	return t, ok
}

// IsTerminal reports whether no event leads out of the status.
func IsTerminal(s EngagementStatus) bool {
	for _, t := range Transitions {
		if t.From == s && t.To != s {
			return false
		}
	}
	return true
}

type Engagement struct {
	ID                        uuid.UUID        `json:"id"`
	CampaignID                uuid.UUID        `json:"campaign_id"`
	InfluencerID              uuid.UUID        `json:"influencer_id"`
	Status                    EngagementStatus `json:"status"`
	InfluencerRequestedPayout *int64           `json:"influencer_requested_payout,omitempty"`
	CounterPayout             *int64           `json:"counter_payout,omitempty"`
	FinalPayout               *int64           `json:"final_payout,omitempty"`
	NegotiationNote           *string          `json:"negotiation_note,omitempty"`
	PostedLinks               []string         `json:"posted_links,omitempty"`
	PostedAt                  *time.Time       `json:"posted_at,omitempty"`
	CompletedAt               *time.Time       `json:"completed_at,omitempty"`
	ContractSigned            bool             `json:"contract_signed"`
	Version                   int64            `json:"version"`
	CreatedAt                 time.Time        `json:"created_at"`
	UpdatedAt                 time.Time        `json:"updated_at"`
}

// Clone returns a deep copy so a decision never aliases the stored row.
func (e *Engagement) Clone() *Engagement {
	if e == nil {
		return nil
	}
	c := *e
	c.InfluencerRequestedPayout = cloneInt64(e.InfluencerRequestedPayout)
	c.CounterPayout = cloneInt64(e.CounterPayout)
	c.FinalPayout = cloneInt64(e.FinalPayout)
	if e.NegotiationNote != nil {
		n := *e.NegotiationNote
		c.NegotiationNote = &n
	}
	if e.PostedLinks != nil {
		c.PostedLinks = append([]string(nil), e.PostedLinks...)
	}
	if e.PostedAt != nil {
		t := *e.PostedAt
		c.PostedAt = &t
	}
	if e.CompletedAt != nil {
		t := *e.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// CheckInvariants validates the status-dependent field rules.
func (e *Engagement) CheckInvariants() error {
	if e.Status.HasFinalPayout() != (e.FinalPayout != nil) {
		return fmt.Errorf("final_payout presence does not match status %s", e.Status)
	}
	if e.PostedLinks != nil && !e.Status.HasPostedLinks() {
		return fmt.Errorf("posted_links must be empty in status %s", e.Status)
	}
	return nil
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// EngagementWithInfluencer embeds Engagement and adds profile info for listings and export.
type EngagementWithInfluencer struct {
	Engagement
	InfluencerName   string `json:"influencer_name"`
	InfluencerHandle string `json:"influencer_handle"`
}

// Submission statuses
const (
	SubmissionStatusSubmitted = "submitted"
	SubmissionStatusApproved  = "approved"
	SubmissionStatusRejected  = "rejected"
)

// Submission is one content delivery attempt. Attempts are kept after a rejection.
type Submission struct {
	ID           uuid.UUID  `json:"id"`
	EngagementID uuid.UUID  `json:"engagement_id"`
	Version      int        `json:"version"`
	Links        []string   `json:"links"`
	Status       string     `json:"status"`
	ReviewNote   *string    `json:"review_note,omitempty"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
}

// SubmissionReview closes the latest open submission of an engagement.
type SubmissionReview struct {
	EngagementID uuid.UUID
	Status       string
	Note         *string
	ReviewedAt   time.Time
}

// EngagementUpdate is a write gated on the row still being in ExpectedStatus
// at ExpectedVersion. Engagement.Version carries the version to store.
type EngagementUpdate struct {
	Engagement      *Engagement
	ExpectedStatus  EngagementStatus
	ExpectedVersion int64
}

// EngagementDelete removes the row only while it is unchanged since it was read.
type EngagementDelete struct {
	ID              uuid.UUID
	ExpectedStatus  EngagementStatus
	ExpectedVersion int64
}

// Changeset is everything one workflow action writes. Stores apply it in a
// single transaction; a stale gate aborts the whole set.
type Changeset struct {
	Create        *Engagement
	Updates       []EngagementUpdate
	Delete        *EngagementDelete
	Submission    *Submission
	Review        *SubmissionReview
	Notifications []Notification
	Audit         []AuditLog
}
