package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/influencer-marketplace/backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InfluencerRepo struct {
	pool *pgxpool.Pool
}

func NewInfluencerRepo(pool *pgxpool.Pool) *InfluencerRepo {
	return &InfluencerRepo{pool: pool}
}

const influencerColumns = `user_id, display_name, handle, follower_count, niches, city, blocked, blocked_reason,
		followers_refreshed_at, created_at, updated_at`

func (r *InfluencerRepo) Upsert(ctx context.Context, p *models.Influencer) error {
	if p.Niches == nil {
		p.Niches = []string{}
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO influencers (user_id, display_name, handle, follower_count, niches, city, blocked, blocked_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			handle = EXCLUDED.handle,
			follower_count = COALESCE(EXCLUDED.follower_count, influencers.follower_count),
			niches = EXCLUDED.niches,
			city = EXCLUDED.city,
			blocked = EXCLUDED.blocked,
			blocked_reason = EXCLUDED.blocked_reason,
			updated_at = now()
		RETURNING created_at, updated_at
	`, p.UserID, p.DisplayName, p.Handle, p.FollowerCount, p.Niches, p.City, p.Blocked, p.BlockedReason,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return mapErr(err)
}

func (r *InfluencerRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Influencer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+influencerColumns+` FROM influencers WHERE user_id = $1`, userID)
	p, err := scanInfluencer(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

// ListUnblocked returns every influencer who may enter new engagements.
func (r *InfluencerRepo) ListUnblocked(ctx context.Context) ([]models.Influencer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+influencerColumns+` FROM influencers WHERE NOT blocked ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInfluencers(rows)
}

// ListStale returns influencers whose follower count was never refreshed or
// was refreshed before the cutoff.
func (r *InfluencerRepo) ListStale(ctx context.Context, before time.Time, limit int) ([]models.Influencer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+influencerColumns+` FROM influencers
		WHERE followers_refreshed_at IS NULL OR followers_refreshed_at < $1
		ORDER BY followers_refreshed_at NULLS FIRST
		LIMIT $2
	`, before, PageLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInfluencers(rows)
}

func (r *InfluencerRepo) UpdateFollowerCount(ctx context.Context, userID uuid.UUID, count int, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE influencers SET follower_count = $1, followers_refreshed_at = $2, updated_at = now()
		WHERE user_id = $3
	`, count, at, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *InfluencerRepo) SetBlocked(ctx context.Context, userID uuid.UUID, blocked bool, reason *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE influencers SET blocked = $1, blocked_reason = $2, updated_at = now() WHERE user_id = $3
	`, blocked, reason, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanInfluencer(row pgx.Row) (*models.Influencer, error) {
	var p models.Influencer
	err := row.Scan(&p.UserID, &p.DisplayName, &p.Handle, &p.FollowerCount, &p.Niches, &p.City, &p.Blocked,
		&p.BlockedReason, &p.FollowersRefreshedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanInfluencers(rows pgx.Rows) ([]models.Influencer, error) {
	var out []models.Influencer
	for rows.Next() {
		p, err := scanInfluencer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
