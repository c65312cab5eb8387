package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/influencer-marketplace/backend/internal/models"
)

type AuditRepo struct {
	db *sql.DB
}

func (r *AuditRepo) Log(ctx context.Context, entry models.AuditLog) error {
	return insertAudit(ctx, r.db, entry)
}

func insertAudit(ctx context.Context, q execer, entry models.AuditLog) error {
	if entry.Action == "" {
		return nil
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	meta, err := encodeJSON(entry.Meta)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO audit_log (id, actor_user_id, actor_type, action, entity_type, entity_id, meta, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID.String(), nullUUID(entry.ActorUserID), entry.ActorType, entry.Action, entry.EntityType,
		nullUUID(entry.EntityID), meta, toMillis(entry.CreatedAt))
	return err
}

func (r *AuditRepo) GetByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, actor_user_id, actor_type, action, entity_type, entity_id, meta, created_at
		FROM audit_log WHERE entity_type = ? AND entity_id = ?
		ORDER BY created_at DESC LIMIT ? OFFSET ?
	`, entityType, entityID.String(), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.AuditLog
	for rows.Next() {
		var (
			l                 models.AuditLog
			rawID             string
			actorID, entityID sql.NullString
			meta              sql.NullString
			created           int64
		)
		if err := rows.Scan(&rawID, &actorID, &l.ActorType, &l.Action, &l.EntityType, &entityID, &meta, &created); err != nil {
			return nil, err
		}
		if l.ID, err = uuid.Parse(rawID); err != nil {
			return nil, err
		}
		if l.ActorUserID, err = uuidPtr(actorID); err != nil {
			return nil, err
		}
		if l.EntityID, err = uuidPtr(entityID); err != nil {
			return nil, err
		}
		if meta.Valid {
			var m map[string]any
			if err := decodeJSON(meta, &m); err != nil {
				return nil, err
			}
			l.Meta = m
		}
		l.CreatedAt = fromMillis(created)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
