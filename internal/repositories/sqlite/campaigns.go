package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/influencer-marketplace/backend/internal/models"
	"github.com/influencer-marketplace/backend/internal/repositories"
)

type CampaignRepo struct {
	db *sql.DB
}

const campaignColumns = `id, name, description, niches, deliverables, required_submissions, timeline,
		base_payout, currency, can_negotiate, eligibility, owner_user_id, owner_role, status, created_at, updated_at`

func (r *CampaignRepo) Create(ctx context.Context, c *models.Campaign, fanout []models.Notification, audit models.AuditLog) error {
	niches, err := encodeJSON(c.Niches)
	if err != nil {
		return err
	}
	var criteria sql.NullString
	if c.Eligibility != nil {
		if criteria, err = encodeJSON(c.Eligibility); err != nil {
			return err
		}
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = c.CreatedAt

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO campaigns (`+campaignColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID.String(), c.Name, c.Description, niches, c.Deliverables, nullInt(c.RequiredSubmissions), c.Timeline,
		c.BasePayout, c.Currency, boolInt(c.CanNegotiate), criteria, c.OwnerUserID.String(), string(c.OwnerRole),
		c.Status, toMillis(c.CreatedAt), toMillis(c.UpdatedAt))
	if err != nil {
		return mapErr(err)
	}
	if err := insertNotifications(ctx, tx, fanout); err != nil {
		return err
	}
	if err := insertAudit(ctx, tx, audit); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *CampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = ?`, id.String())
	c, err := scanCampaign(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return c, nil
}

func (r *CampaignRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string, fanout []models.Notification, audit models.AuditLog) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `UPDATE campaigns SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, toMillis(time.Now()), id.String(), from)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return repositories.ErrStale
	}
	if err := insertNotifications(ctx, tx, fanout); err != nil {
		return err
	}
	if err := insertAudit(ctx, tx, audit); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *CampaignRepo) List(ctx context.Context, f repositories.CampaignFilter) ([]models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns`
	args := []any{}
	where := []string{}
	if f.OwnerUserID != nil {
		where = append(where, "owner_user_id = ?")
		args = append(args, f.OwnerUserID.String())
	}
	if f.Status != nil {
		where = append(where, "status = ?")
		args = append(args, *f.Status)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, repositories.PageLimit(f.Limit), f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func scanCampaign(row scanner) (*models.Campaign, error) {
	var (
		c                models.Campaign
		rawID, rawOwner  string
		niches, criteria sql.NullString
		required         sql.NullInt64
		canNegotiate     int
		ownerRole        string
		created, updated int64
	)
	if err := row.Scan(&rawID, &c.Name, &c.Description, &niches, &c.Deliverables, &required, &c.Timeline,
		&c.BasePayout, &c.Currency, &canNegotiate, &criteria, &rawOwner, &ownerRole, &c.Status,
		&created, &updated); err != nil {
		return nil, err
	}
	var err error
	if c.ID, err = uuid.Parse(rawID); err != nil {
		return nil, err
	}
	if c.OwnerUserID, err = uuid.Parse(rawOwner); err != nil {
		return nil, err
	}
	if err := decodeJSON(niches, &c.Niches); err != nil {
		return nil, err
	}
	if criteria.Valid {
		c.Eligibility = &models.EligibilityCriteria{}
		if err := decodeJSON(criteria, c.Eligibility); err != nil {
			return nil, err
		}
	}
	if c.Niches == nil {
		c.Niches = []string{}
	}
	c.RequiredSubmissions = intPtr(required)
	c.CanNegotiate = canNegotiate != 0
	c.OwnerRole = models.Role(ownerRole)
	c.CreatedAt = fromMillis(created)
	c.UpdatedAt = fromMillis(updated)
	return &c, nil
}
