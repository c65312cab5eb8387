package workflow

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/influencer-marketplace/backend/internal/models"
)

// Sums saturate here instead of overflowing.
const maxRequiredSubmissions = math.MaxInt32

var integerTokenRE = regexp.MustCompile(`\d+`)

// ParseRequiredLinks sums every integer token in a deliverables description,
// e.g. "1 Reel + 2 Stories" -> 3. Text with no integers, or integers summing
// to zero, requires one link.
func ParseRequiredLinks(deliverables string) int {
	total := 0
	for _, tok := range integerTokenRE.FindAllString(deliverables, -1) {
		n, err := strconv.Atoi(tok)
		if err != nil || n >= maxRequiredSubmissions-total {
			return maxRequiredSubmissions
		}
		total += n
	}
	if total == 0 {
		return 1
	}
	return total
}

// RequiredSubmissions prefers the structured count and falls back to the text heuristic.
func RequiredSubmissions(c *models.Campaign) int {
	if c.RequiredSubmissions != nil && *c.RequiredSubmissions > 0 {
		return *c.RequiredSubmissions
	}
	return ParseRequiredLinks(c.Deliverables)
}

// FilledLinks trims the submitted links and drops empty ones.
func FilledLinks(links []string) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
