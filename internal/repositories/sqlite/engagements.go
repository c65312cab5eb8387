package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/influencer-marketplace/backend/internal/models"
	"github.com/influencer-marketplace/backend/internal/repositories"
)

type EngagementRepo struct {
	db *sql.DB
}

const engagementColumns = `e.id, e.campaign_id, e.influencer_id, e.status, e.influencer_requested_payout, e.counter_payout,
		e.final_payout, e.negotiation_note, e.posted_links, e.posted_at, e.completed_at, e.contract_signed,
		e.version, e.created_at, e.updated_at`

func (r *EngagementRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Engagement, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+engagementColumns+` FROM engagements e WHERE e.id = ?`, id.String())
	e, err := scanEngagement(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return e, nil
}

func (r *EngagementRepo) GetByPair(ctx context.Context, campaignID, influencerID uuid.UUID) (*models.Engagement, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+engagementColumns+` FROM engagements e WHERE e.campaign_id = ? AND e.influencer_id = ?
	`, campaignID.String(), influencerID.String())
	e, err := scanEngagement(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return e, nil
}

func (r *EngagementRepo) List(ctx context.Context, f repositories.EngagementFilter) ([]models.EngagementWithInfluencer, error) {
	query := `SELECT ` + engagementColumns + `, i.display_name, i.handle
		FROM engagements e
		JOIN influencers i ON i.user_id = e.influencer_id`
	args := []any{}
	where := []string{}
	if f.CampaignID != nil {
		where = append(where, "e.campaign_id = ?")
		args = append(args, f.CampaignID.String())
	}
	if f.InfluencerID != nil {
		where = append(where, "e.influencer_id = ?")
		args = append(args, f.InfluencerID.String())
	}
	if f.Status != nil {
		where = append(where, "e.status = ?")
		args = append(args, string(*f.Status))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY e.created_at, e.id LIMIT ? OFFSET ?"
	args = append(args, repositories.PageLimit(f.Limit), f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.EngagementWithInfluencer
	for rows.Next() {
		var name, handle string
		e, err := scanEngagement(rows, &name, &handle)
		if err != nil {
			return nil, err
		}
		out = append(out, models.EngagementWithInfluencer{Engagement: *e, InfluencerName: name, InfluencerHandle: handle})
	}
	return out, rows.Err()
}

func (r *EngagementRepo) ListSubmissions(ctx context.Context, engagementID uuid.UUID) ([]models.Submission, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, engagement_id, version, links, status, review_note, submitted_at, reviewed_at
		FROM engagement_submissions WHERE engagement_id = ? ORDER BY version
	`, engagementID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Submission
	for rows.Next() {
		var (
			s             models.Submission
			rawID, rawEng string
			links, note   sql.NullString
			submitted     int64
			reviewed      sql.NullInt64
		)
		if err := rows.Scan(&rawID, &rawEng, &s.Version, &links, &s.Status, &note, &submitted, &reviewed); err != nil {
			return nil, err
		}
		if s.ID, err = uuid.Parse(rawID); err != nil {
			return nil, err
		}
		if s.EngagementID, err = uuid.Parse(rawEng); err != nil {
			return nil, err
		}
		if err := decodeJSON(links, &s.Links); err != nil {
			return nil, err
		}
		s.ReviewNote = stringPtr(note)
		s.SubmittedAt = fromMillis(submitted)
		s.ReviewedAt = timePtr(reviewed)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Commit applies a workflow changeset in one transaction, gated per row on
// the expected status and version.
func (r *EngagementRepo) Commit(ctx context.Context, cs *models.Changeset) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if e := cs.Create; e != nil {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO engagements (id, campaign_id, influencer_id, status, version, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, e.ID.String(), e.CampaignID.String(), e.InfluencerID.String(), string(e.Status), e.Version,
			toMillis(e.CreatedAt), toMillis(e.UpdatedAt))
		if err != nil {
			return mapErr(err)
		}
	}

	for _, u := range cs.Updates {
		e := u.Engagement
		links, err := encodeJSON(e.PostedLinks)
		if err != nil {
			return err
		}
		if e.PostedLinks == nil {
			links = sql.NullString{}
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE engagements SET status = ?, influencer_requested_payout = ?, counter_payout = ?,
			       final_payout = ?, negotiation_note = ?, posted_links = ?, posted_at = ?,
			       completed_at = ?, contract_signed = ?, updated_at = ?, version = ?
			WHERE id = ? AND status = ? AND version = ?
		`, string(e.Status), nullInt64(e.InfluencerRequestedPayout), nullInt64(e.CounterPayout),
			nullInt64(e.FinalPayout), nullString(e.NegotiationNote), links, nullMillis(e.PostedAt),
			nullMillis(e.CompletedAt), boolInt(e.ContractSigned), toMillis(e.UpdatedAt), e.Version,
			e.ID.String(), string(u.ExpectedStatus), u.ExpectedVersion)
		if err := gated(res, err, e.ID); err != nil {
			return err
		}
	}

	if d := cs.Delete; d != nil {
		res, err := tx.ExecContext(ctx, `DELETE FROM engagements WHERE id = ? AND status = ? AND version = ?`,
			d.ID.String(), string(d.ExpectedStatus), d.ExpectedVersion)
		if err := gated(res, err, d.ID); err != nil {
			return err
		}
	}

	if rv := cs.Review; rv != nil {
		_, err := tx.ExecContext(ctx, `
			UPDATE engagement_submissions SET status = ?, review_note = ?, reviewed_at = ?
			WHERE id = (
				SELECT id FROM engagement_submissions
				WHERE engagement_id = ? AND status = ?
				ORDER BY version DESC LIMIT 1
			)
		`, rv.Status, nullString(rv.Note), toMillis(rv.ReviewedAt), rv.EngagementID.String(), models.SubmissionStatusSubmitted)
		if err != nil {
			return err
		}
	}

	if s := cs.Submission; s != nil {
		links, err := encodeJSON(s.Links)
		if err != nil {
			return err
		}
		err = tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(version), 0) + 1 FROM engagement_submissions WHERE engagement_id = ?
		`, s.EngagementID.String()).Scan(&s.Version)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO engagement_submissions (id, engagement_id, version, links, status, submitted_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, s.ID.String(), s.EngagementID.String(), s.Version, links, s.Status, toMillis(s.SubmittedAt))
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
	return tx.Commit()
}

func gated(res sql.Result, err error, id uuid.UUID) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("engagement %s: %w", id, repositories.ErrStale)
	}
	return nil
}

// scanEngagement reads engagementColumns followed by any extra destinations.
func scanEngagement(row scanner, extra ...any) (*models.Engagement, error) {
	var (
		e                         models.Engagement
		rawID, rawCamp, rawInfl   string
		status                    string
		requested, counter, final sql.NullInt64
		note, links               sql.NullString
		postedAt, completedAt     sql.NullInt64
		signed                    int
		version, created, updated int64
	)
	dest := append([]any{&rawID, &rawCamp, &rawInfl, &status, &requested, &counter, &final, &note, &links,
		&postedAt, &completedAt, &signed, &version, &created, &updated}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	var err error
	if e.ID, err = uuid.Parse(rawID); err != nil {
		return nil, err
	}
	if e.CampaignID, err = uuid.Parse(rawCamp); err != nil {
		return nil, err
	}
	if e.InfluencerID, err = uuid.Parse(rawInfl); err != nil {
		return nil, err
	}
	if err := decodeJSON(links, &e.PostedLinks); err != nil {
		return nil, err
	}
	e.Status = models.EngagementStatus(status)
	e.InfluencerRequestedPayout = int64Ptr(requested)
	e.CounterPayout = int64Ptr(counter)
	e.FinalPayout = int64Ptr(final)
	e.NegotiationNote = stringPtr(note)
	e.PostedAt = timePtr(postedAt)
	e.CompletedAt = timePtr(completedAt)
	e.ContractSigned = signed != 0
	e.Version = version
	e.CreatedAt = fromMillis(created)
	e.UpdatedAt = fromMillis(updated)
	return &e, nil
}
