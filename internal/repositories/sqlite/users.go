package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/influencer-marketplace/backend/internal/models"
)

type UserRepo struct {
	db *sql.DB
}

func (r *UserRepo) Upsert(ctx context.Context, u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, role, name, email, created_at, last_active_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			email = COALESCE(excluded.email, users.email),
			last_active_at = excluded.last_active_at
	`, u.ID.String(), string(u.Role), u.Name, nullString(u.Email), toMillis(now), toMillis(now))
	if err != nil {
		return mapErr(err)
	}
	stored, err := r.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}
	*u = *stored
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var (
		u                   models.User
		rawID, role         string
		email               sql.NullString
		created, lastActive int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, role, name, email, created_at, last_active_at FROM users WHERE id = ?
	`, id.String()).Scan(&rawID, &role, &u.Name, &email, &created, &lastActive)
	if err != nil {
		return nil, mapErr(err)
	}
	if u.ID, err = uuid.Parse(rawID); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	u.Email = stringPtr(email)
	u.CreatedAt = fromMillis(created)
	u.LastActiveAt = fromMillis(lastActive)
	return &u, nil
}

func (r *UserRepo) ListIDsByRole(ctx context.Context, role models.Role) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users WHERE role = ? ORDER BY created_at, id`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *UserRepo) UpdateLastActive(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_active_at = ? WHERE id = ?`, toMillis(time.Now()), id.String())
	return err
}
