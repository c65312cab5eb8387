package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/influencer-marketplace/backend/internal/models"
	"github.com/jedib0t/go-pretty/v6/table"
)

// ExportEngagementsCSV renders a campaign's engagements for the owner's
// spreadsheet: influencer, handle, status, payout and submitted links.
func (s *EngagementService) ExportEngagementsCSV(ctx context.Context, actor models.Actor, campaignID uuid.UUID) (string, error) {
	rows, err := s.ListForCampaign(ctx, actor, campaignID, nil)
	if err != nil {
		return "", err
	}
	return EngagementsTable(rows).RenderCSV(), nil
}

// EngagementsTable builds the table shared by the CSV export and the CLI.
func EngagementsTable(rows []models.EngagementWithInfluencer) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"influencer", "handle", "status", "final_payout", "contract_signed", "links", "posted_at"})
	for _, r := range rows {
		payout := ""
		if r.FinalPayout != nil {
			payout = formatMinor(*r.FinalPayout)
		}
		posted := ""
		if r.PostedAt != nil {
			posted = r.PostedAt.UTC().Format(time.RFC3339)
		}
		t.AppendRow(table.Row{
			r.InfluencerName,
			r.InfluencerHandle,
			string(r.Status),
			payout,
			r.ContractSigned,
			strings.Join(r.PostedLinks, " "),
			posted,
		})
	}
	return t
}

// formatMinor prints minor currency units as a decimal amount.
func formatMinor(v int64) string {
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
