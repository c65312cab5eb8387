package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/influencer-marketplace/backend/internal/eligibility"
	"github.com/influencer-marketplace/backend/internal/models"
	"github.com/influencer-marketplace/backend/internal/notify"
	"github.com/influencer-marketplace/backend/internal/rbac"
	"github.com/influencer-marketplace/backend/internal/repositories"
	"github.com/influencer-marketplace/backend/internal/workflow"
	"go.uber.org/zap"
)

type CampaignInput struct {
	Name                string
	Description         string
	Niches              []string
	Deliverables        string
	RequiredSubmissions *int
	Timeline            string
	BasePayout          int64
	Currency            string
	CanNegotiate        bool
	Eligibility         *models.EligibilityCriteria
	Status              string
}

// CampaignResult carries the campaign plus the fan-out outcome.
type CampaignResult struct {
	Campaign *models.Campaign
	Notified int
	Warnings []error
}

// EligibilityReport tells an influencer whether they can apply and why not.
type EligibilityReport struct {
	CampaignID uuid.UUID                `json:"campaign_id"`
	Eligible   bool                     `json:"eligible"`
	Blocked    bool                     `json:"blocked"`
	Failed     []string                 `json:"failed_criteria"`
	Engagement *models.EngagementStatus `json:"engagement_status,omitempty"`
}

type CampaignService struct {
	stores     Stores
	catalog    *notify.Catalog
	dispatcher notify.Dispatcher
	now        func() time.Time
	log        *zap.Logger
}

func NewCampaignService(stores Stores, catalog *notify.Catalog, dispatcher notify.Dispatcher, log *zap.Logger) *CampaignService {
	return &CampaignService{
		stores:     stores,
		catalog:    catalog,
		dispatcher: dispatcher,
		now:        func() time.Time { return time.Now().UTC() },
		log:        log,
	}
}

// Create stores a campaign owned by the caller. A campaign created active
// notifies every eligible, unblocked influencer in the same transaction.
func (s *CampaignService) Create(ctx context.Context, actor models.Actor, in CampaignInput) (*CampaignResult, error) {
	if !rbac.HasPermission(actor.Role, rbac.PermCreateCampaign) {
		return nil, ErrForbidden
	}
	c := &models.Campaign{
		ID:                  uuid.New(),
		Name:                strings.TrimSpace(in.Name),
		Description:         in.Description,
		Niches:              in.Niches,
		Deliverables:        in.Deliverables,
		RequiredSubmissions: in.RequiredSubmissions,
		Timeline:            in.Timeline,
		BasePayout:          in.BasePayout,
		Currency:            in.Currency,
		CanNegotiate:        in.CanNegotiate,
		Eligibility:         in.Eligibility,
		OwnerUserID:         actor.UserID,
		OwnerRole:           actor.Role,
		Status:              in.Status,
		CreatedAt:           s.now(),
	}
	if c.Currency == "" {
		c.Currency = "INR"
	}
	c.Normalize()
	if err := validateCampaign(c); err != nil {
		return nil, err
	}

	var fanout []models.Notification
	if c.IsActive() {
		var err error
		if fanout, err = s.fanout(ctx, c); err != nil {
			return nil, err
		}
	}

	audit := actorAudit(actor, "campaign_created", "campaign", c.ID, map[string]any{"status": c.Status, "notified": len(fanout)})
	if err := s.stores.Campaigns.Create(ctx, c, fanout, audit); err != nil {
		return nil, storeErr(err)
	}

	s.log.Info("campaign created",
		zap.String("campaign_id", c.ID.String()),
		zap.String("owner_role", string(c.OwnerRole)),
		zap.String("status", c.Status),
		zap.Int("notified", len(fanout)))

	res := &CampaignResult{Campaign: c, Notified: len(fanout)}
	res.Warnings = deliverAll(ctx, s.dispatcher, s.stores.Notifications, fanout, s.now, s.log)
	return res, nil
}

// UpdateStatus moves a campaign draft -> active -> completed. Publishing a
// draft sends the eligibility fan-out.
func (s *CampaignService) UpdateStatus(ctx context.Context, actor models.Actor, id uuid.UUID, status string) (*CampaignResult, error) {
	if !models.IsValidCampaignStatus(status) {
		return nil, fmt.Errorf("%w: unknown campaign status %q", ErrInvalidInput, status)
	}
	c, err := s.stores.Campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	if !canManageCampaign(actor, c) {
		return nil, ErrForbidden
	}
	if !campaignStatusAllowed(c.Status, status) {
		return nil, workflow.Preconditionf("campaign cannot move from %s to %s", c.Status, status)
	}

	from := c.Status
	c.Status = status
	var fanout []models.Notification
	if status == models.CampaignStatusActive {
		if fanout, err = s.fanout(ctx, c); err != nil {
			return nil, err
		}
	}

	audit := actorAudit(actor, "campaign_"+status, "campaign", c.ID, map[string]any{"old_status": from, "new_status": status})
	if err := s.stores.Campaigns.UpdateStatus(ctx, id, from, status, fanout, audit); err != nil {
		if errors.Is(err, repositories.ErrStale) {
			return nil, workflow.Preconditionf("campaign status changed concurrently")
		}
		return nil, storeErr(err)
	}

	res := &CampaignResult{Campaign: c, Notified: len(fanout)}
	res.Warnings = deliverAll(ctx, s.dispatcher, s.stores.Notifications, fanout, s.now, s.log)
	return res, nil
}

// Get returns a campaign visible to the caller. Influencers only see active
// campaigns and campaigns they are engaged in.
func (s *CampaignService) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Campaign, error) {
	c, err := s.stores.Campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	switch actor.Role {
	case models.RoleAdmin:
		return c, nil
	case models.RoleBrand:
		if c.OwnerUserID != actor.UserID {
			return nil, ErrNotFound
		}
		return c, nil
	}
	if c.IsActive() {
		return c, nil
	}
	if _, err := s.stores.Engagements.GetByPair(ctx, id, actor.UserID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeErr(err)
	}
	return c, nil
}

// List returns campaigns for the caller's console: all for admins, owned for
// brands, and for influencers the active campaigns they can engage with.
func (s *CampaignService) List(ctx context.Context, actor models.Actor, f repositories.CampaignFilter) ([]models.Campaign, error) {
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleBrand:
		f.OwnerUserID = &actor.UserID
	case models.RoleInfluencer:
		return s.listForInfluencer(ctx, actor, f)
	default:
		return nil, ErrForbidden
	}
	cs, err := s.stores.Campaigns.List(ctx, f)
	if err != nil {
		return nil, storeErr(err)
	}
	return cs, nil
}

func (s *CampaignService) listForInfluencer(ctx context.Context, actor models.Actor, f repositories.CampaignFilter) ([]models.Campaign, error) {
	profile, err := s.stores.Influencers.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return []models.Campaign{}, nil
		}
		return nil, storeErr(err)
	}
	if profile.Blocked {
		return []models.Campaign{}, nil
	}
	limit, offset := repositories.PageLimit(f.Limit), f.Offset
	if offset < 0 {
		offset = 0
	}

	// Eligibility is evaluated here, so read active campaigns page by page
	// until the requested window of visible ones is filled.
	active := models.CampaignStatusActive
	page := repositories.CampaignFilter{Status: &active, Limit: storePageSize}
	var visible []models.Campaign
	for len(visible) < offset+limit {
		cs, err := s.stores.Campaigns.List(ctx, page)
		if err != nil {
			return nil, storeErr(err)
		}
		visible = append(visible, eligibility.Filter(cs, profile)...)
		if len(cs) < storePageSize {
			break
		}
		page.Offset += storePageSize
	}
	return paginate(visible, limit, offset), nil
}

// Eligibility explains whether the calling influencer may apply to a campaign.
func (s *CampaignService) Eligibility(ctx context.Context, actor models.Actor, campaignID uuid.UUID) (*EligibilityReport, error) {
	if !rbac.HasPermission(actor.Role, rbac.PermApply) {
		return nil, ErrForbidden
	}
	c, err := s.Get(ctx, actor, campaignID)
	if err != nil {
		return nil, err
	}
	profile, err := s.stores.Influencers.GetByUserID(ctx, actor.UserID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, storeErr(err)
	}
	return s.explain(ctx, c, profile)
}

// Check evaluates any influencer against a campaign; used by admin tooling.
func (s *CampaignService) Check(ctx context.Context, campaignID, influencerID uuid.UUID) (*EligibilityReport, error) {
	c, err := s.stores.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, storeErr(err)
	}
	profile, err := s.stores.Influencers.GetByUserID(ctx, influencerID)
	if err != nil {
		return nil, storeErr(err)
	}
	return s.explain(ctx, c, profile)
}

func (s *CampaignService) explain(ctx context.Context, c *models.Campaign, profile *models.Influencer) (*EligibilityReport, error) {
	rep := &EligibilityReport{CampaignID: c.ID, Failed: eligibility.Explain(c, profile)}
	if rep.Failed == nil {
		rep.Failed = []string{}
	}
	if profile != nil {
		rep.Blocked = profile.Blocked
		e, err := s.stores.Engagements.GetByPair(ctx, c.ID, profile.UserID)
		switch {
		case err == nil:
			rep.Engagement = &e.Status
		case !errors.Is(err, repositories.ErrNotFound):
			return nil, storeErr(err)
		}
	}
	rep.Eligible = len(rep.Failed) == 0 && !rep.Blocked
	return rep, nil
}

// fanout builds one new_campaign notification per influencer the listing
// filter would show the campaign to.
func (s *CampaignService) fanout(ctx context.Context, c *models.Campaign) ([]models.Notification, error) {
	profiles, err := s.stores.Influencers.ListUnblocked(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	audience := eligibility.Audience(c, profiles)
	out := make([]models.Notification, 0, len(audience))
	for i := range audience {
		p := &audience[i]
		n := models.Notification{
			ID:     uuid.New(),
			UserID: p.UserID,
			Role:   models.RoleInfluencer,
			Type:   models.NotificationNewCampaign,
			Metadata: map[string]any{
				"campaign_id":   c.ID.String(),
				"influencer_id": p.UserID.String(),
			},
			CreatedAt: s.now(),
		}
		renderNotification(s.catalog, &n, c, p, s.log)
		out = append(out, n)
	}
	return out, nil
}

func validateCampaign(c *models.Campaign) error {
	var problems []string
	if c.Name == "" {
		problems = append(problems, "name is required")
	}
	if c.BasePayout < 0 {
		problems = append(problems, "base_payout must be non-negative")
	}
	if !models.IsValidCampaignStatus(c.Status) || c.Status == models.CampaignStatusCompleted {
		problems = append(problems, "status must be draft or active")
	}
	if c.RequiredSubmissions != nil && *c.RequiredSubmissions <= 0 {
		problems = append(problems, "required_submissions must be positive")
	}
	if ec := c.Eligibility; ec != nil {
		if ec.MinFollowers != nil && *ec.MinFollowers < 0 {
			problems = append(problems, "min_followers must be non-negative")
		}
		if ec.MinFollowers != nil && ec.MaxFollowers != nil && *ec.MinFollowers > *ec.MaxFollowers {
			problems = append(problems, "min_followers exceeds max_followers")
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

func campaignStatusAllowed(from, to string) bool {
	switch from {
	case models.CampaignStatusDraft:
		return to == models.CampaignStatusActive || to == models.CampaignStatusCompleted
	case models.CampaignStatusActive:
		return to == models.CampaignStatusCompleted
	}
	return false
}

func paginate[T any](items []T, limit, offset int) []T {
	limit = repositories.PageLimit(limit)
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
