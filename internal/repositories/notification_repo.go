package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/influencer-marketplace/backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

const notificationColumns = `id, user_id, role, type, title, message, metadata, read_at, delivered_at, created_at`

func insertNotifications(ctx context.Context, tx pgx.Tx, ns []models.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i := range ns {
		n := &ns[i]
		if n.CreatedAt.IsZero() {
			n.CreatedAt = time.Now().UTC()
		}
		if n.Metadata == nil {
			n.Metadata = map[string]any{}
		}
		batch.Queue(`
			INSERT INTO notifications (id, user_id, role, type, title, message, metadata, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, n.ID, n.UserID, n.Role, n.Type, n.Title, n.Message, n.Metadata, n.CreatedAt)
	}
	return tx.SendBatch(ctx, batch).Close()
}

func (r *NotificationRepo) Recent(ctx context.Context, userID uuid.UUID, role models.Role, limit int) ([]models.Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = $1 AND role = $2
		ORDER BY created_at DESC LIMIT $3
	`, userID, role, PageLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotifications(rows)
}

func (r *NotificationRepo) UnreadCount(ctx context.Context, userID uuid.UUID, role models.Role) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND role = $2 AND read_at IS NULL
	`, userID, role).Scan(&n)
	return n, err
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID, role models.Role, at time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET read_at = $1 WHERE user_id = $2 AND role = $3 AND read_at IS NULL
	`, at, userID, role)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListUndelivered returns notifications created before the cutoff that no
// dispatcher has confirmed yet, oldest first.
func (r *NotificationRepo) ListUndelivered(ctx context.Context, before time.Time, limit int) ([]models.Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE delivered_at IS NULL AND created_at <= $1
		ORDER BY created_at LIMIT $2
	`, before, PageLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotifications(rows)
}

func (r *NotificationRepo) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE notifications SET delivered_at = $1 WHERE id = $2 AND delivered_at IS NULL`, at, id)
	return err
}

func scanNotifications(rows pgx.Rows) ([]models.Notification, error) {
	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Role, &n.Type, &n.Title, &n.Message, &n.Metadata,
			&n.ReadAt, &n.DeliveredAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
