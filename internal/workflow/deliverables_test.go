package workflow

import (
	"testing"

	"github.com/influencer-marketplace/backend/internal/models"
)

func TestParseRequiredLinks(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"1 Reel + 2 Stories", 3},
		{"3 posts", 3},
		{"Reel", 1},
		{"", 1},
		{"0 reels", 1},
		{"2 reels, 2 stories and 1 carousel", 5},
		{"reel x10", 10},
		{"99999999999999999999999 stories", maxRequiredSubmissions},
		{"1500 Stories", 1500},
		{"1000 reels + 1000 stories", 2000},
		{"2147483000 reels + 1000 stories", maxRequiredSubmissions},
		{"1.5 reels", 6},
		{"💥 2 shorts 💥", 2},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseRequiredLinks(tt.input)
			if result != tt.expected {
				t.Errorf("ParseRequiredLinks(%q) = %d, want %d", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRequiredSubmissionsPrefersStructuredCount(t *testing.T) {
	n := 4
	c := &models.Campaign{Deliverables: "1 Reel + 2 Stories", RequiredSubmissions: &n}
	if got := RequiredSubmissions(c); got != 4 {
		t.Errorf("RequiredSubmissions() = %d, want 4", got)
	}
	zero := 0
	c.RequiredSubmissions = &zero
	if got := RequiredSubmissions(c); got != 3 {
		t.Errorf("RequiredSubmissions() with zero override = %d, want 3", got)
	}
}

func TestFilledLinks(t *testing.T) {
	got := FilledLinks([]string{" https://a ", "", "   ", "https://b"})
	if len(got) != 2 || got[0] != "https://a" || got[1] != "https://b" {
		t.Errorf("FilledLinks() = %v", got)
	}
}
