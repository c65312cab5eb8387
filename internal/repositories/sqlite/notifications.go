package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/influencer-marketplace/backend/internal/models"
	"github.com/influencer-marketplace/backend/internal/repositories"
)

type NotificationRepo struct {
	db *sql.DB
}

const notificationColumns = `id, user_id, role, type, title, message, metadata, read_at, delivered_at, created_at`

func insertNotifications(ctx context.Context, q execer, ns []models.Notification) error {
	for i := range ns {
		n := &ns[i]
		if n.CreatedAt.IsZero() {
			n.CreatedAt = time.Now().UTC()
		}
		if n.Metadata == nil {
			n.Metadata = map[string]any{}
		}
		meta, err := encodeJSON(n.Metadata)
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `
			INSERT INTO notifications (id, user_id, role, type, title, message, metadata, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, n.ID.String(), n.UserID.String(), string(n.Role), n.Type, n.Title, n.Message, meta, toMillis(n.CreatedAt)); err != nil {
			return mapErr(err)
		}
	}
	return nil
}

func (r *NotificationRepo) Recent(ctx context.Context, userID uuid.UUID, role models.Role, limit int) ([]models.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = ? AND role = ?
		ORDER BY created_at DESC LIMIT ?
	`, userID.String(), string(role), repositories.PageLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotifications(rows)
}

func (r *NotificationRepo) UnreadCount(ctx context.Context, userID uuid.UUID, role models.Role) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = ? AND role = ? AND read_at IS NULL
	`, userID.String(), string(role)).Scan(&n)
	return n, err
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID, role models.Role, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET read_at = ? WHERE user_id = ? AND role = ? AND read_at IS NULL
	`, toMillis(at), userID.String(), string(role))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *NotificationRepo) ListUndelivered(ctx context.Context, before time.Time, limit int) ([]models.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE delivered_at IS NULL AND created_at <= ?
		ORDER BY created_at LIMIT ?
	`, toMillis(before), repositories.PageLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotifications(rows)
}

func (r *NotificationRepo) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notifications SET delivered_at = ? WHERE id = ? AND delivered_at IS NULL`,
		toMillis(at), id.String())
	return err
}

func scanNotifications(rows *sql.Rows) ([]models.Notification, error) {
	var out []models.Notification
	for rows.Next() {
		var (
			n                 models.Notification
			rawID, rawUser    string
			role              string
			meta              sql.NullString
			readAt, delivered sql.NullInt64
			created           int64
		)
		if err := rows.Scan(&rawID, &rawUser, &role, &n.Type, &n.Title, &n.Message, &meta, &readAt, &delivered, &created); err != nil {
			return nil, err
		}
		var err error
		if n.ID, err = uuid.Parse(rawID); err != nil {
			return nil, err
		}
		if n.UserID, err = uuid.Parse(rawUser); err != nil {
			return nil, err
		}
		if err := decodeJSON(meta, &n.Metadata); err != nil {
			return nil, err
		}
		n.Role = models.Role(role)
		n.ReadAt = timePtr(readAt)
		n.DeliveredAt = timePtr(delivered)
		n.CreatedAt = fromMillis(created)
		out = append(out, n)
	}
	return out, rows.Err()
}
