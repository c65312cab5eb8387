// Package statsparser scrapes public creator profile pages for the follower
// count used by campaign eligibility.
package statsparser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// ErrProfileNotFound is returned when the profile page does not exist.
var ErrProfileNotFound = errors.New("profile not found")

type ProfileStats struct {
	Handle    string    `json:"handle"`
	Followers *int      `json:"followers,omitempty"`
	Verified  bool      `json:"verified"`
	FetchedAt time.Time `json:"fetched_at"`
}

type Parser struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
	maxRetries int
	backoff    time.Duration
}

// NewParser builds a parser for profile pages served at baseURL/<handle>.
func NewParser(baseURL string, timeoutMS, maxRetries int, log *zap.Logger) *Parser {
	return &Parser{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutMS) * time.Millisecond,
		},
		log:        log,
		maxRetries: maxRetries,
		backoff:    500 * time.Millisecond,
	}
}

func (p *Parser) FetchProfile(ctx context.Context, handle string) (*ProfileStats, error) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return nil, fmt.Errorf("empty handle")
	}
	pageURL := p.baseURL + "/" + url.PathEscape(handle)

	var doc *goquery.Document
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * p.backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := p.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			return nil, ErrProfileNotFound
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d for %s", resp.StatusCode, pageURL)
			continue
		}

		doc, err = goquery.NewDocumentFromReader(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		lastErr = nil
		break
	}

	if lastErr != nil {
		return nil, lastErr
	}

	stats := &ProfileStats{Handle: handle, FetchedAt: time.Now().UTC()}
	if n, ok := followersFromDocument(doc); ok {
		stats.Followers = &n
	}
	stats.Verified = doc.Find("[data-verified='true'], .verified-badge").Length() > 0

	p.log.Debug("profile parsed", zap.String("handle", handle), zap.Bool("has_followers", stats.Followers != nil))
	return stats, nil
}

// followersFromDocument reads an explicit data attribute first, then the
// counter element, then the og:description meta ("12.3K Followers, ...").
func followersFromDocument(doc *goquery.Document) (int, bool) {
	if v, ok := doc.Find("[data-followers]").First().Attr("data-followers"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 0 {
			return n, true
		}
	}

	found := false
	var n int
	doc.Find(".profile-counter").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		label := strings.ToLower(strings.TrimSpace(s.Find(".counter-label").Text()))
		if strings.Contains(label, "follower") || strings.Contains(label, "subscriber") {
			n = parseCount(s.Find(".counter-value").Text())
			found = n > 0
			return false
		}
		return true
	})
	if found {
		return n, true
	}

	if desc, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		if m := followersMetaRE.FindString(desc); m != "" {
			if n := parseCount(m); n > 0 {
				return n, true
			}
		}
	}
	return 0, false
}

var (
	countRE         = regexp.MustCompile(`[\d,.]+[KkMm]?`)
	followersMetaRE = regexp.MustCompile(`(?i)[\d,.]+\s*[KkMm]?\s+followers`)
)

func parseCount(text string) int {
	text = strings.ReplaceAll(text, " ", "")
	text = strings.ReplaceAll(text, ",", "")

	match := countRE.FindString(text)
	if match == "" {
		return 0
	}

	multiplier := 1
	if strings.HasSuffix(match, "K") || strings.HasSuffix(match, "k") {
		multiplier = 1000
		match = match[:len(match)-1]
	} else if strings.HasSuffix(match, "M") || strings.HasSuffix(match, "m") {
		multiplier = 1000000
		match = match[:len(match)-1]
	}

	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return int(f*float64(multiplier) + 0.5)
}
