package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/influencer-marketplace/backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EngagementRepo struct {
	pool *pgxpool.Pool
}

func NewEngagementRepo(pool *pgxpool.Pool) *EngagementRepo {
	return &EngagementRepo{pool: pool}
}

const engagementColumns = `e.id, e.campaign_id, e.influencer_id, e.status, e.influencer_requested_payout, e.counter_payout,
		e.final_payout, e.negotiation_note, e.posted_links, e.posted_at, e.completed_at, e.contract_signed,
		e.version, e.created_at, e.updated_at`

func (r *EngagementRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Engagement, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+engagementColumns+` FROM engagements e WHERE e.id = $1`, id)
	e, err := scanEngagement(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return e, nil
}

func (r *EngagementRepo) GetByPair(ctx context.Context, campaignID, influencerID uuid.UUID) (*models.Engagement, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+engagementColumns+` FROM engagements e WHERE e.campaign_id = $1 AND e.influencer_id = $2
	`, campaignID, influencerID)
	e, err := scanEngagement(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return e, nil
}

// List returns engagements joined with the influencer's display name and handle.
func (r *EngagementRepo) List(ctx context.Context, f EngagementFilter) ([]models.EngagementWithInfluencer, error) {
	query := `SELECT ` + engagementColumns + `, i.display_name, i.handle
		FROM engagements e
		JOIN influencers i ON i.user_id = e.influencer_id`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.CampaignID != nil {
		where = append(where, fmt.Sprintf("e.campaign_id = $%d", argIdx))
		args = append(args, *f.CampaignID)
		argIdx++
	}
	if f.InfluencerID != nil {
		where = append(where, fmt.Sprintf("e.influencer_id = $%d", argIdx))
		args = append(args, *f.InfluencerID)
		argIdx++
	}
	if f.Status != nil {
		where = append(where, fmt.Sprintf("e.status = $%d", argIdx))
		args = append(args, *f.Status)
		argIdx++
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY e.created_at, e.id LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, PageLimit(f.Limit), f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.EngagementWithInfluencer
	for rows.Next() {
		var ew models.EngagementWithInfluencer
		e := &ew.Engagement
		if err := rows.Scan(&e.ID, &e.CampaignID, &e.InfluencerID, &e.Status, &e.InfluencerRequestedPayout,
			&e.CounterPayout, &e.FinalPayout, &e.NegotiationNote, &e.PostedLinks, &e.PostedAt, &e.CompletedAt,
			&e.ContractSigned, &e.Version, &e.CreatedAt, &e.UpdatedAt, &ew.InfluencerName, &ew.InfluencerHandle); err != nil {
			return nil, err
		}
		out = append(out, ew)
	}
	return out, rows.Err()
}

func (r *EngagementRepo) ListSubmissions(ctx context.Context, engagementID uuid.UUID) ([]models.Submission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, engagement_id, version, links, status, review_note, submitted_at, reviewed_at
		FROM engagement_submissions WHERE engagement_id = $1 ORDER BY version
	`, engagementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Submission
	for rows.Next() {
		var s models.Submission
		if err := rows.Scan(&s.ID, &s.EngagementID, &s.Version, &s.Links, &s.Status, &s.ReviewNote,
			&s.SubmittedAt, &s.ReviewedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Commit applies a workflow changeset in one transaction. Every update and
// delete is gated on the expected status and row version; if any gate misses,
// nothing is written and ErrStale is returned.
func (r *EngagementRepo) Commit(ctx context.Context, cs *models.Changeset) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if e := cs.Create; e != nil {
		_, err := tx.Exec(ctx, `
			INSERT INTO engagements (id, campaign_id, influencer_id, status, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, e.ID, e.CampaignID, e.InfluencerID, e.Status, e.Version, e.CreatedAt, e.UpdatedAt)
		if err != nil {
			return mapErr(err)
		}
	}

	for _, u := range cs.Updates {
		e := u.Engagement
		tag, err := tx.Exec(ctx, `
			UPDATE engagements SET status = $1, influencer_requested_payout = $2, counter_payout = $3,
			       final_payout = $4, negotiation_note = $5, posted_links = $6, posted_at = $7,
			       completed_at = $8, contract_signed = $9, updated_at = $10, version = $11
			WHERE id = $12 AND status = $13 AND version = $14
		`, e.Status, e.InfluencerRequestedPayout, e.CounterPayout, e.FinalPayout, e.NegotiationNote,
			e.PostedLinks, e.PostedAt, e.CompletedAt, e.ContractSigned, e.UpdatedAt, e.Version,
			e.ID, u.ExpectedStatus, u.ExpectedVersion)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("engagement %s: %w", e.ID, ErrStale)
		}
	}

	if d := cs.Delete; d != nil {
		tag, err := tx.Exec(ctx, `DELETE FROM engagements WHERE id = $1 AND status = $2 AND version = $3`,
			d.ID, d.ExpectedStatus, d.ExpectedVersion)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("engagement %s: %w", d.ID, ErrStale)
		}
	}

	if rv := cs.Review; rv != nil {
		_, err := tx.Exec(ctx, `
			UPDATE engagement_submissions SET status = $1, review_note = $2, reviewed_at = $3
			WHERE id = (
				SELECT id FROM engagement_submissions
				WHERE engagement_id = $4 AND status = $5
				ORDER BY version DESC LIMIT 1
			)
		`, rv.Status, rv.Note, rv.ReviewedAt, rv.EngagementID, models.SubmissionStatusSubmitted)
		if err != nil {
			return err
		}
	}

	if s := cs.Submission; s != nil {
		err := tx.QueryRow(ctx, `
			INSERT INTO engagement_submissions (id, engagement_id, version, links, status, submitted_at)
			SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3, $4, $5
			FROM engagement_submissions WHERE engagement_id = $2
			RETURNING version
		`, s.ID, s.EngagementID, s.Links, s.Status, s.SubmittedAt).Scan(&s.Version)
		if err != nil {
			return mapErr(err)
		}
	}

	if err := insertNotifications(ctx, tx, cs.Notifications); err != nil {
		return err
	}
	for _, a := range cs.Audit {
		if err := insertAudit(ctx, tx, a); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func scanEngagement(row pgx.Row) (*models.Engagement, error) {
	var e models.Engagement
	err := row.Scan(&e.ID, &e.CampaignID, &e.InfluencerID, &e.Status, &e.InfluencerRequestedPayout,
		&e.CounterPayout, &e.FinalPayout, &e.NegotiationNote, &e.PostedLinks, &e.PostedAt, &e.CompletedAt,
		&e.ContractSigned, &e.Version, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
