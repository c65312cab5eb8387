package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/influencer-marketplace/backend/internal/models"
	"github.com/influencer-marketplace/backend/internal/repositories"
	"github.com/influencer-marketplace/backend/internal/workflow"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput: the request is malformed; nothing was read or written.
	ErrInvalidInput = errors.New("invalid input")
)

// The interfaces below are implemented by both the Postgres repositories and
// the embedded sqlite store.

type CampaignStore interface {
	Create(ctx context.Context, c *models.Campaign, fanout []models.Notification, audit models.AuditLog) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string, fanout []models.Notification, audit models.AuditLog) error
	List(ctx context.Context, f repositories.CampaignFilter) ([]models.Campaign, error)
}

type InfluencerStore interface {
	Upsert(ctx context.Context, p *models.Influencer) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Influencer, error)
	ListUnblocked(ctx context.Context) ([]models.Influencer, error)
	ListStale(ctx context.Context, before time.Time, limit int) ([]models.Influencer, error)
	UpdateFollowerCount(ctx context.Context, userID uuid.UUID, count int, at time.Time) error
	SetBlocked(ctx context.Context, userID uuid.UUID, blocked bool, reason *string) error
}

type EngagementStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Engagement, error)
	GetByPair(ctx context.Context, campaignID, influencerID uuid.UUID) (*models.Engagement, error)
	List(ctx context.Context, f repositories.EngagementFilter) ([]models.EngagementWithInfluencer, error)
	ListSubmissions(ctx context.Context, engagementID uuid.UUID) ([]models.Submission, error)
	Commit(ctx context.Context, cs *models.Changeset) error
}

type NotificationStore interface {
	Recent(ctx context.Context, userID uuid.UUID, role models.Role, limit int) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID, role models.Role) (int, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID, role models.Role, at time.Time) (int64, error)
	ListUndelivered(ctx context.Context, before time.Time, limit int) ([]models.Notification, error)
	MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error
}

type AuditStore interface {
	Log(ctx context.Context, entry models.AuditLog) error
	GetByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]models.AuditLog, error)
}

type UserStore interface {
	Upsert(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListIDsByRole(ctx context.Context, role models.Role) ([]uuid.UUID, error)
	UpdateLastActive(ctx context.Context, id uuid.UUID) error
}

// storePageSize is the page size used when a caller needs every matching row.
var storePageSize = 500

// listAllEngagements pages through the store until f is exhausted.
func listAllEngagements(ctx context.Context, store EngagementStore, f repositories.EngagementFilter) ([]models.EngagementWithInfluencer, error) {
	var out []models.EngagementWithInfluencer
	f.Limit = storePageSize
	for f.Offset = 0; ; f.Offset += storePageSize {
		page, err := store.List(ctx, f)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < storePageSize {
			return out, nil
		}
	}
}

// Stores bundles one backend's repositories.
type Stores struct {
	Users         UserStore
	Influencers   InfluencerStore
	Campaigns     CampaignStore
	Engagements   EngagementStore
	Notifications NotificationStore
	Audit         AuditStore
}

// storeErr classifies a repository error for callers: missing rows become
// ErrNotFound, everything else is a retryable store failure.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return workflow.StoreUnavailable(err)
}

// commitErr classifies a failed changeset write.
func commitErr(err error) error {
	switch {
	case errors.Is(err, repositories.ErrStale):
		return workflow.Preconditionf("engagement was changed by someone else, reload and retry")
	case errors.Is(err, repositories.ErrDuplicate):
		return workflow.Preconditionf("influencer already applied to this campaign")
	}
	return storeErr(err)
}

func canManageCampaign(actor models.Actor, c *models.Campaign) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleBrand:
		return c.OwnerUserID == actor.UserID
	}
	return false
}

func authorizeEngagement(actor models.Actor, c *models.Campaign, e *models.Engagement) error {
	if actor.Role == models.RoleInfluencer {
		if e.InfluencerID != actor.UserID {
			return ErrForbidden
		}
		return nil
	}
	if !canManageCampaign(actor, c) {
		return ErrForbidden
	}
	return nil
}

func actorAudit(actor models.Actor, action, entityType string, entityID uuid.UUID, meta map[string]any) models.AuditLog {
	uid := actor.UserID
	return models.AuditLog{
		ID:          uuid.New(),
		ActorUserID: &uid,
		ActorType:   string(actor.Role),
		Action:      action,
		EntityType:  entityType,
		EntityID:    &entityID,
		Meta:        meta,
	}
}
