// Package workflow decides engagement transitions. It holds no state and does
// no I/O: callers load the current rows, ask Decide for the next state, and
// persist the decision with a write gated on Decision.From.
package workflow

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/influencer-marketplace/backend/internal/eligibility"
	"github.com/influencer-marketplace/backend/internal/models"
)

type Command struct {
	Event      models.Event
	Actor      models.Actor
	Campaign   *models.Campaign
	Engagement *models.Engagement // nil for apply
	Influencer *models.Influencer // required for apply
	Amount     int64              // negotiate / counter
	Note       *string
	Links      []string
	Admins     []uuid.UUID // recipients of content_submitted
	Now        time.Time
}

type Decision struct {
	Transition  models.Transition
	From        models.EngagementStatus
	FromVersion int64 // row version the decision was made on
	// Engagement is the next state of the row. For leave it is the row being removed.
	Engagement    *models.Engagement
	Created       bool
	Deleted       bool
	Notifications []models.Notification
	Submission    *models.Submission
	Review        *models.SubmissionReview
}

// Decide validates cmd against the transition table and the campaign's rules
// and returns the resulting state plus the notifications to emit. Title and
// Message of the notifications are left for the caller to render.
func Decide(cmd Command) (*Decision, error) {
	if cmd.Campaign == nil {
		return nil, errors.New("workflow: campaign is required")
	}
	if cmd.Now.IsZero() {
		cmd.Now = time.Now().UTC()
	}

	// Negotiability is a property of the campaign, checked before the state.
	if (cmd.Event == models.EventNegotiate || cmd.Event == models.EventCounter) && !cmd.Campaign.CanNegotiate {
		return nil, Preconditionf("campaign %s does not accept negotiation", cmd.Campaign.ID)
	}

	from := models.EngagementStatusNone
	if cmd.Engagement != nil {
		from = cmd.Engagement.Status
	}
	if cmd.Event == models.EventApply && cmd.Engagement != nil {
		return nil, Preconditionf("influencer already applied to campaign %s", cmd.Campaign.ID)
	}

	tr, ok := models.LookupTransition(from, cmd.Event)
	if !ok || !tr.Allows(cmd.Actor.Role) {
		return nil, &TransitionError{From: from, Event: cmd.Event, Role: cmd.Actor.Role}
	}

	d := &Decision{Transition: tr, From: from}
	if cmd.Engagement != nil {
		d.FromVersion = cmd.Engagement.Version
	}

	if cmd.Event == models.EventApply {
		return decideApply(cmd, d)
	}

	next := cmd.Engagement.Clone()
	next.Status = tr.To
	next.Version = cmd.Engagement.Version + 1
	next.UpdatedAt = cmd.Now
	d.Engagement = next

	c := cmd.Campaign
	switch cmd.Event {
	case models.EventShortlist:
		d.notifyInfluencer(c, next, models.NotificationShortlisted, nil)

	case models.EventDecline:
		d.notifyInfluencer(c, next, models.NotificationApplicationRejected, nil)

	case models.EventAcceptBase:
		next.FinalPayout = int64Ptr(c.BasePayout)

	case models.EventNegotiate:
		if cmd.Amount <= 0 {
			return nil, Preconditionf("requested payout must be positive")
		}
		next.InfluencerRequestedPayout = int64Ptr(cmd.Amount)
		next.NegotiationNote = cmd.Note
		d.notifyOwner(c, next, models.NotificationNegotiationReceived, map[string]any{"requested_payout": cmd.Amount})

	case models.EventCounter:
		if cmd.Amount <= 0 {
			return nil, Preconditionf("counter payout must be positive")
		}
		next.CounterPayout = int64Ptr(cmd.Amount)
		next.NegotiationNote = cmd.Note
		d.notifyInfluencer(c, next, models.NotificationCounterOffer, map[string]any{"counter_payout": cmd.Amount})

	case models.EventAcceptOffer:
		if next.InfluencerRequestedPayout == nil {
			return nil, Preconditionf("no requested payout to accept")
		}
		next.FinalPayout = int64Ptr(*next.InfluencerRequestedPayout)
		d.notifyInfluencer(c, next, models.NotificationOfferAccepted, map[string]any{"final_payout": *next.FinalPayout})

	case models.EventRejectOffer:
		d.notifyInfluencer(c, next, models.NotificationOfferRejected, nil)

	case models.EventAcceptCounter:
		if next.CounterPayout == nil {
			return nil, Preconditionf("no counter offer to accept")
		}
		next.FinalPayout = int64Ptr(*next.CounterPayout)
		d.notifyOwner(c, next, models.NotificationOfferAccepted, map[string]any{"final_payout": *next.FinalPayout})

	case models.EventLeave:
		d.Deleted = true

	case models.EventSignContract:
		if next.ContractSigned {
			return nil, Preconditionf("contract already signed")
		}
		next.ContractSigned = true
		d.notifyOwner(c, next, models.NotificationContractSigned, nil)

	case models.EventSubmitContent:
		links := FilledLinks(cmd.Links)
		required := RequiredSubmissions(c)
		if len(links) < required {
			return nil, Preconditionf("%d of %d required links submitted", len(links), required)
		}
		now := cmd.Now
		next.PostedLinks = links
		next.PostedAt = &now
		d.Submission = &models.Submission{
			ID:           uuid.New(),
			EngagementID: next.ID,
			Links:        append([]string(nil), links...),
			Status:       models.SubmissionStatusSubmitted,
			SubmittedAt:  now,
		}
		for _, id := range cmd.Admins {
			d.Notifications = append(d.Notifications, newNotification(id, models.RoleAdmin, models.NotificationContentSubmitted, c, next, map[string]any{"links": len(links)}))
		}

	case models.EventApproveContent:
		now := cmd.Now
		next.CompletedAt = &now
		d.Review = &models.SubmissionReview{EngagementID: next.ID, Status: models.SubmissionStatusApproved, Note: cmd.Note, ReviewedAt: now}
		d.notifyInfluencer(c, next, models.NotificationContentApproved, nil)

	case models.EventRejectContent:
		next.PostedLinks = nil
		next.PostedAt = nil
		d.Review = &models.SubmissionReview{EngagementID: next.ID, Status: models.SubmissionStatusRejected, Note: cmd.Note, ReviewedAt: cmd.Now}
		d.notifyInfluencer(c, next, models.NotificationContentRejected, nil)
	}

	if !d.Deleted {
		if err := next.CheckInvariants(); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func decideApply(cmd Command, d *Decision) (*Decision, error) {
	c, p := cmd.Campaign, cmd.Influencer
	if p == nil {
		return nil, errors.New("workflow: influencer profile is required to apply")
	}
	if !c.IsActive() {
		return nil, Preconditionf("campaign %s is not active", c.ID)
	}
	if p.Blocked {
		return nil, Preconditionf("influencer is blocked")
	}
	if failed := eligibility.Explain(c, p); len(failed) > 0 {
		return nil, Preconditionf("influencer is not eligible: %v", failed)
	}

	d.Created = true
	d.Engagement = &models.Engagement{
		ID:           uuid.New(),
		CampaignID:   c.ID,
		InfluencerID: p.UserID,
		Status:       models.EngagementStatusApplied,
		Version:      1,
		CreatedAt:    cmd.Now,
		UpdatedAt:    cmd.Now,
	}
	return d, nil
}

func (d *Decision) notifyInfluencer(c *models.Campaign, e *models.Engagement, typ string, extra map[string]any) {
	d.Notifications = append(d.Notifications, newNotification(e.InfluencerID, models.RoleInfluencer, typ, c, e, extra))
}

func (d *Decision) notifyOwner(c *models.Campaign, e *models.Engagement, typ string, extra map[string]any) {
	d.Notifications = append(d.Notifications, newNotification(c.OwnerUserID, c.OwnerRole, typ, c, e, extra))
}

func newNotification(userID uuid.UUID, role models.Role, typ string, c *models.Campaign, e *models.Engagement, extra map[string]any) models.Notification {
	meta := map[string]any{
		"campaign_id":   c.ID.String(),
		"influencer_id": e.InfluencerID.String(),
		"engagement_id": e.ID.String(),
	}
	for k, v := range extra {
		meta[k] = v
	}
	return models.Notification{
		ID:       uuid.New(),
		UserID:   userID,
		Role:     role,
		Type:     typ,
		Metadata: meta,
	}
}

func int64Ptr(v int64) *int64 { return &v }
