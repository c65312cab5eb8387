package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store groups the Postgres repositories behind one pool.
type Store struct {
	pool *pgxpool.Pool

	Users         *UserRepo
	Influencers   *InfluencerRepo
	Campaigns     *CampaignRepo
	Engagements   *EngagementRepo
	Notifications *NotificationRepo
	Audit         *AuditRepo
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:          pool,
		Users:         NewUserRepo(pool),
		Influencers:   NewInfluencerRepo(pool),
		Campaigns:     NewCampaignRepo(pool),
		Engagements:   NewEngagementRepo(pool),
		Notifications: NewNotificationRepo(pool),
		Audit:         NewAuditRepo(pool),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
