package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/influencer-marketplace/backend/internal/events"
	"github.com/influencer-marketplace/backend/internal/models"
	"github.com/influencer-marketplace/backend/internal/notify"
	"github.com/influencer-marketplace/backend/internal/repositories"
	"github.com/influencer-marketplace/backend/internal/tracing"
	"github.com/influencer-marketplace/backend/internal/workflow"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Result is a committed transition. Warnings carry notification delivery
// failures; the transition itself succeeded.
type Result struct {
	Engagement *models.Engagement
	Deleted    bool
	Warnings   []error
}

type BulkResult struct {
	Shortlisted []*models.Engagement
	Declined    []*models.Engagement
	Warnings    []error
}

// Action is the actor's input for one transition on an existing engagement.
type Action struct {
	Event  models.Event
	Amount int64
	Note   *string
	Links  []string
}

type EngagementService struct {
	stores     Stores
	catalog    *notify.Catalog
	dispatcher notify.Dispatcher
	publisher  events.Publisher
	subscriber events.Subscriber
	now        func() time.Time
	log        *zap.Logger
}

func NewEngagementService(
	stores Stores,
	catalog *notify.Catalog,
	dispatcher notify.Dispatcher,
	publisher events.Publisher,
	subscriber events.Subscriber,
	log *zap.Logger,
) *EngagementService {
	return &EngagementService{
		stores:     stores,
		catalog:    catalog,
		dispatcher: dispatcher,
		publisher:  publisher,
		subscriber: subscriber,
		now:        func() time.Time { return time.Now().UTC() },
		log:        log,
	}
}

// Apply creates the caller's engagement on an active campaign.
func (s *EngagementService) Apply(ctx context.Context, actor models.Actor, campaignID uuid.UUID) (res *Result, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "engagement.apply")
	defer func() { endSpan(span, err) }()

	if actor.Role != models.RoleInfluencer {
		return nil, &workflow.TransitionError{Event: models.EventApply, Role: actor.Role}
	}
	c, err := s.stores.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, storeErr(err)
	}
	profile, err := s.stores.Influencers.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, workflow.Preconditionf("influencer profile is incomplete")
		}
		return nil, storeErr(err)
	}
	existing, err := s.stores.Engagements.GetByPair(ctx, campaignID, actor.UserID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, storeErr(err)
	}

	d, err := workflow.Decide(workflow.Command{
		Event:      models.EventApply,
		Actor:      actor,
		Campaign:   c,
		Engagement: existing,
		Influencer: profile,
		Now:        s.now(),
	})
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, actor, c, profile, d)
}

// Transition runs one workflow event against an existing engagement.
func (s *EngagementService) Transition(ctx context.Context, actor models.Actor, engagementID uuid.UUID, a Action) (res *Result, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "engagement."+string(a.Event))
	span.SetAttributes(attribute.String("engagement.id", engagementID.String()), attribute.String("actor.role", string(actor.Role)))
	defer func() { endSpan(span, err) }()

	if a.Event == models.EventApply {
		return nil, fmt.Errorf("%w: apply targets a campaign", ErrInvalidInput)
	}

	e, c, err := s.load(ctx, actor, engagementID)
	if err != nil {
		return nil, err
	}
	profile, err := s.stores.Influencers.GetByUserID(ctx, e.InfluencerID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, storeErr(err)
	}

	var admins []uuid.UUID
	if a.Event == models.EventSubmitContent {
		if admins, err = s.stores.Users.ListIDsByRole(ctx, models.RoleAdmin); err != nil {
			return nil, storeErr(err)
		}
	}

	d, err := workflow.Decide(workflow.Command{
		Event:      a.Event,
		Actor:      actor,
		Campaign:   c,
		Engagement: e,
		Influencer: profile,
		Amount:     a.Amount,
		Note:       a.Note,
		Links:      a.Links,
		Admins:     admins,
		Now:        s.now(),
	})
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, actor, c, profile, d)
}

// BulkSelect shortlists the selected applications of a campaign and declines
// every other application still in applied. All rows are written in one
// transaction; if any row moved in the meantime nothing is written.
func (s *EngagementService) BulkSelect(ctx context.Context, actor models.Actor, campaignID uuid.UUID, selected []uuid.UUID) (res *BulkResult, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "engagement.bulk_select")
	span.SetAttributes(attribute.String("campaign.id", campaignID.String()), attribute.Int("selected", len(selected)))
	defer func() { endSpan(span, err) }()

	c, err := s.stores.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, storeErr(err)
	}
	if !canManageCampaign(actor, c) {
		return nil, ErrForbidden
	}

	applied := models.EngagementStatusApplied
	rows, err := listAllEngagements(ctx, s.stores.Engagements, repositories.EngagementFilter{CampaignID: &campaignID, Status: &applied})
	if err != nil {
		return nil, storeErr(err)
	}

	want := make(map[uuid.UUID]bool, len(selected))
	for _, id := range selected {
		want[id] = true
	}
	found := 0
	for _, r := range rows {
		if want[r.ID] {
			found++
		}
	}
	if found != len(want) {
		return nil, workflow.Preconditionf("%d of %d selected applications are no longer pending", len(want)-found, len(want))
	}

	now := s.now()
	cs := &models.Changeset{}
	res = &BulkResult{}
	for i := range rows {
		e := rows[i].Engagement
		event := models.EventDecline
		if want[e.ID] {
			event = models.EventShortlist
		}
		d, err := workflow.Decide(workflow.Command{Event: event, Actor: actor, Campaign: c, Engagement: &e, Now: now})
		if err != nil {
			return nil, err
		}
		s.render(d.Notifications, c, &models.Influencer{DisplayName: rows[i].InfluencerName, Handle: rows[i].InfluencerHandle})
		cs.Updates = append(cs.Updates, models.EngagementUpdate{Engagement: d.Engagement, ExpectedStatus: d.From, ExpectedVersion: d.FromVersion})
		cs.Notifications = append(cs.Notifications, d.Notifications...)
		cs.Audit = append(cs.Audit, transitionAudit(actor, d))
		if event == models.EventShortlist {
			res.Shortlisted = append(res.Shortlisted, d.Engagement)
		} else {
			res.Declined = append(res.Declined, d.Engagement)
		}
	}
	if len(cs.Updates) == 0 {
		return res, nil
	}

	if err := s.stores.Engagements.Commit(ctx, cs); err != nil {
		return nil, commitErr(err)
	}

	s.log.Info("applications selected",
		zap.String("campaign_id", campaignID.String()),
		zap.Int("shortlisted", len(res.Shortlisted)),
		zap.Int("declined", len(res.Declined)))

	res.Warnings = s.deliver(ctx, cs.Notifications)
	for _, e := range append(append([]*models.Engagement{}, res.Shortlisted...), res.Declined...) {
		s.publishChange(ctx, e, models.EngagementStatusApplied, false)
	}
	return res, nil
}

func (s *EngagementService) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Engagement, error) {
	e, _, err := s.load(ctx, actor, id)
	return e, err
}

// ListForCampaign returns the campaign's engagements for its owner or an admin.
func (s *EngagementService) ListForCampaign(ctx context.Context, actor models.Actor, campaignID uuid.UUID, status *models.EngagementStatus) ([]models.EngagementWithInfluencer, error) {
	c, err := s.stores.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, storeErr(err)
	}
	if !canManageCampaign(actor, c) {
		return nil, ErrForbidden
	}
	rows, err := s.stores.Engagements.List(ctx, repositories.EngagementFilter{CampaignID: &campaignID, Status: status, Limit: 500})
	if err != nil {
		return nil, storeErr(err)
	}
	return rows, nil
}

// ListMine returns the calling influencer's engagements across campaigns.
func (s *EngagementService) ListMine(ctx context.Context, actor models.Actor) ([]models.EngagementWithInfluencer, error) {
	if actor.Role != models.RoleInfluencer {
		return nil, ErrForbidden
	}
	rows, err := s.stores.Engagements.List(ctx, repositories.EngagementFilter{InfluencerID: &actor.UserID, Limit: 500})
	if err != nil {
		return nil, storeErr(err)
	}
	return rows, nil
}

func (s *EngagementService) Submissions(ctx context.Context, actor models.Actor, id uuid.UUID) ([]models.Submission, error) {
	if _, _, err := s.load(ctx, actor, id); err != nil {
		return nil, err
	}
	subs, err := s.stores.Engagements.ListSubmissions(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	return subs, nil
}

// History returns the audit trail of an engagement, newest first.
func (s *EngagementService) History(ctx context.Context, actor models.Actor, id uuid.UUID) ([]models.AuditLog, error) {
	if _, _, err := s.load(ctx, actor, id); err != nil {
		return nil, err
	}
	logs, err := s.stores.Audit.GetByEntity(ctx, "engagement", id, 100, 0)
	if err != nil {
		return nil, storeErr(err)
	}
	return logs, nil
}

// Subscribe streams engagement changes of a campaign to handler until ctx is
// done. Influencers only receive changes to their own engagement.
func (s *EngagementService) Subscribe(ctx context.Context, actor models.Actor, campaignID uuid.UUID, handler func(events.Event)) error {
	c, err := s.stores.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return storeErr(err)
	}
	switch {
	case actor.Role == models.RoleInfluencer:
		if _, err := s.stores.Engagements.GetByPair(ctx, campaignID, actor.UserID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrForbidden
			}
			return storeErr(err)
		}
		own := actor.UserID.String()
		inner := handler
		handler = func(ev events.Event) {
			if ev.Payload["influencer_id"] == own {
				inner(ev)
			}
		}
	case !canManageCampaign(actor, c):
		return ErrForbidden
	}
	return s.subscriber.Subscribe(ctx, events.CampaignStream(campaignID.String()), handler)
}

func (s *EngagementService) load(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Engagement, *models.Campaign, error) {
	e, err := s.stores.Engagements.GetByID(ctx, id)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	c, err := s.stores.Campaigns.GetByID(ctx, e.CampaignID)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	if err := authorizeEngagement(actor, c, e); err != nil {
		return nil, nil, err
	}
	return e, c, nil
}

// commit persists a single-engagement decision, then delivers its
// notifications and publishes the change.
func (s *EngagementService) commit(ctx context.Context, actor models.Actor, c *models.Campaign, profile *models.Influencer, d *workflow.Decision) (*Result, error) {
	s.render(d.Notifications, c, profile)

	cs := &models.Changeset{
		Submission:    d.Submission,
		Review:        d.Review,
		Notifications: d.Notifications,
		Audit:         []models.AuditLog{transitionAudit(actor, d)},
	}
	switch {
	case d.Created:
		cs.Create = d.Engagement
	case d.Deleted:
		cs.Delete = &models.EngagementDelete{ID: d.Engagement.ID, ExpectedStatus: d.From, ExpectedVersion: d.FromVersion}
	default:
		cs.Updates = []models.EngagementUpdate{{Engagement: d.Engagement, ExpectedStatus: d.From, ExpectedVersion: d.FromVersion}}
	}

	if err := s.stores.Engagements.Commit(ctx, cs); err != nil {
		return nil, commitErr(err)
	}

	s.log.Info("engagement transition",
		zap.String("engagement_id", d.Engagement.ID.String()),
		zap.String("campaign_id", c.ID.String()),
		zap.String("event", string(d.Transition.Event)),
		zap.String("from", string(d.From)),
		zap.String("to", string(d.Transition.To)),
		zap.String("actor_role", string(actor.Role)))

	res := &Result{Engagement: d.Engagement, Deleted: d.Deleted}
	res.Warnings = s.deliver(ctx, cs.Notifications)
	s.publishChange(ctx, d.Engagement, d.From, d.Deleted)
	return res, nil
}

func (s *EngagementService) render(ns []models.Notification, c *models.Campaign, profile *models.Influencer) {
	for i := range ns {
		renderNotification(s.catalog, &ns[i], c, profile, s.log)
	}
}

func (s *EngagementService) deliver(ctx context.Context, ns []models.Notification) []error {
	return deliverAll(ctx, s.dispatcher, s.stores.Notifications, ns, s.now, s.log)
}

func (s *EngagementService) publishChange(ctx context.Context, e *models.Engagement, from models.EngagementStatus, deleted bool) {
	status := string(e.Status)
	if deleted {
		status = ""
	}
	err := s.publisher.Publish(ctx, events.CampaignStream(e.CampaignID.String()), events.Event{
		Type: events.EventEngagementChanged,
		Payload: map[string]any{
			"engagement_id": e.ID.String(),
			"campaign_id":   e.CampaignID.String(),
			"influencer_id": e.InfluencerID.String(),
			"old_status":    string(from),
			"new_status":    status,
			"deleted":       deleted,
		},
	})
	if err != nil {
		s.log.Warn("engagement change not published", zap.String("engagement_id", e.ID.String()), zap.Error(err))
	}
}

func transitionAudit(actor models.Actor, d *workflow.Decision) models.AuditLog {
	meta := map[string]any{
		"event":      string(d.Transition.Event),
		"old_status": string(d.From),
		"new_status": string(d.Transition.To),
	}
	if fp := d.Engagement.FinalPayout; fp != nil {
		meta["final_payout"] = *fp
	}
	return actorAudit(actor, "engagement_"+string(d.Transition.Event), "engagement", d.Engagement.ID, meta)
}
