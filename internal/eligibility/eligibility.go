// Package eligibility decides which influencers may apply to, or be notified
// about, a campaign. Listing and creation fan-out must both go through here.
package eligibility

import "github.com/influencer-marketplace/backend/internal/models"

// Criterion names reported by Explain.
const (
	CriterionMinFollowers  = "min_followers"
	CriterionMaxFollowers  = "max_followers"
	CriterionAllowedCities = "allowed_cities"
	CriterionAllowedNiches = "allowed_niches"
)

// IsEligible reports whether the profile satisfies every criterion the
// campaign specifies. It never fails; unspecified criteria pass.
func IsEligible(c *models.Campaign, p *models.Influencer) bool {
	return len(Explain(c, p)) == 0
}

// CanEngage is IsEligible plus the blocked gate.
func CanEngage(c *models.Campaign, p *models.Influencer) bool {
	if p != nil && p.Blocked {
		return false
	}
	return IsEligible(c, p)
}

// Explain returns the names of the criteria the profile fails, in a stable order.
func Explain(c *models.Campaign, p *models.Influencer) []string {
	if c == nil || c.Eligibility == nil {
		return nil
	}
	crit := c.Eligibility
	if p == nil {
		p = &models.Influencer{}
	}

	var failed []string
	if crit.MinFollowers != nil {
		if p.FollowerCount == nil || *p.FollowerCount < *crit.MinFollowers {
			failed = append(failed, CriterionMinFollowers)
		}
	}
	// unknown follower count does not fail a maximum
	if crit.MaxFollowers != nil && p.FollowerCount != nil && *p.FollowerCount > *crit.MaxFollowers {
		failed = append(failed, CriterionMaxFollowers)
	}
	if len(crit.AllowedCities) > 0 {
		if p.City == nil || !contains(crit.AllowedCities, *p.City) {
			failed = append(failed, CriterionAllowedCities)
		}
	}
	if len(crit.AllowedNiches) > 0 && !intersects(crit.AllowedNiches, p.Niches) {
		failed = append(failed, CriterionAllowedNiches)
	}
	return failed
}

// Filter keeps the campaigns the profile can engage with, preserving order.
func Filter(campaigns []models.Campaign, p *models.Influencer) []models.Campaign {
	out := make([]models.Campaign, 0, len(campaigns))
	for i := range campaigns {
		if CanEngage(&campaigns[i], p) {
			out = append(out, campaigns[i])
		}
	}
	return out
}

// Audience keeps the profiles that should hear about the campaign.
func Audience(c *models.Campaign, profiles []models.Influencer) []models.Influencer {
	out := make([]models.Influencer, 0, len(profiles))
	for i := range profiles {
		if CanEngage(c, &profiles[i]) {
			out = append(out, profiles[i])
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, s := range b {
		if contains(a, s) {
			return true
		}
	}
	return false
}
