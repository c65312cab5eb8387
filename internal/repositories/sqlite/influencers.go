package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/influencer-marketplace/backend/internal/models"
	"github.com/influencer-marketplace/backend/internal/repositories"
)

type InfluencerRepo struct {
	db *sql.DB
}

const influencerColumns = `user_id, display_name, handle, follower_count, niches, city, blocked, blocked_reason,
		followers_refreshed_at, created_at, updated_at`

func (r *InfluencerRepo) Upsert(ctx context.Context, p *models.Influencer) error {
	if p.Niches == nil {
		p.Niches = []string{}
	}
	niches, err := encodeJSON(p.Niches)
	if err != nil {
		return err
	}
	now := toMillis(time.Now())
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO influencers (user_id, display_name, handle, follower_count, niches, city, blocked, blocked_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = excluded.display_name,
			handle = excluded.handle,
			follower_count = COALESCE(excluded.follower_count, influencers.follower_count),
			niches = excluded.niches,
			city = excluded.city,
			blocked = excluded.blocked,
			blocked_reason = excluded.blocked_reason,
			updated_at = excluded.updated_at
	`, p.UserID.String(), p.DisplayName, p.Handle, nullInt(p.FollowerCount), niches, nullString(p.City),
		boolInt(p.Blocked), nullString(p.BlockedReason), now, now)
	if err != nil {
		return mapErr(err)
	}
	stored, err := r.GetByUserID(ctx, p.UserID)
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

func (r *InfluencerRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Influencer, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+influencerColumns+` FROM influencers WHERE user_id = ?`, userID.String())
	p, err := scanInfluencer(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

func (r *InfluencerRepo) ListUnblocked(ctx context.Context) ([]models.Influencer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+influencerColumns+` FROM influencers WHERE blocked = 0 ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInfluencers(rows)
}

func (r *InfluencerRepo) ListStale(ctx context.Context, before time.Time, limit int) ([]models.Influencer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+influencerColumns+` FROM influencers
		WHERE followers_refreshed_at IS NULL OR followers_refreshed_at < ?
		ORDER BY followers_refreshed_at NULLS FIRST
		LIMIT ?
	`, toMillis(before), repositories.PageLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInfluencers(rows)
}

func (r *InfluencerRepo) UpdateFollowerCount(ctx context.Context, userID uuid.UUID, count int, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE influencers SET follower_count = ?, followers_refreshed_at = ?, updated_at = ? WHERE user_id = ?
	`, count, toMillis(at), toMillis(time.Now()), userID.String())
	return affectedOrNotFound(res, err)
}

func (r *InfluencerRepo) SetBlocked(ctx context.Context, userID uuid.UUID, blocked bool, reason *string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE influencers SET blocked = ?, blocked_reason = ?, updated_at = ? WHERE user_id = ?
	`, boolInt(blocked), nullString(reason), toMillis(time.Now()), userID.String())
	return affectedOrNotFound(res, err)
}

func affectedOrNotFound(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func scanInfluencer(row scanner) (*models.Influencer, error) {
	var (
		p                models.Influencer
		rawID            string
		followers        sql.NullInt64
		niches           sql.NullString
		city, reason     sql.NullString
		blocked          int
		refreshed        sql.NullInt64
		created, updated int64
	)
	if err := row.Scan(&rawID, &p.DisplayName, &p.Handle, &followers, &niches, &city, &blocked, &reason,
		&refreshed, &created, &updated); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, err
	}
	p.UserID = id
	p.FollowerCount = intPtr(followers)
	if err := decodeJSON(niches, &p.Niches); err != nil {
		return nil, err
	}
	if p.Niches == nil {
		p.Niches = []string{}
	}
	p.City = stringPtr(city)
	p.Blocked = blocked != 0
	p.BlockedReason = stringPtr(reason)
	p.FollowersRefreshedAt = timePtr(refreshed)
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updated)
	return &p, nil
}

func scanInfluencers(rows *sql.Rows) ([]models.Influencer, error) {
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
