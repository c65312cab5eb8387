package statsparser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestParseCount(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"1.2K", 1200},
		{"1.5M", 1500000},
		{"123", 123},
		{"12,345", 12345},
		{"1 234", 1234},
		{"5.6K followers", 5600},
		{"100K", 100000},
		{"2.3M", 2300000},
		{"0", 0},
		{"", 0},
		{"no number", 0},
		{"42k", 42000},
		{"3.14k", 3140},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseCount(tt.input)
			if result != tt.expected {
				t.Errorf("parseCount(%q) = %d, want %d", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFetchProfile(t *testing.T) {
	pages := map[string]string{
		"/attr":    `<html><body><div data-followers="48210"></div><span class="verified-badge"></span></body></html>`,
		"/counter": `<html><body><div class="profile-counter"><span class="counter-value">12.5K</span><span class="counter-label">Followers</span></div></body></html>`,
		"/meta":    `<html><head><meta property="og:description" content="3,400 Followers, 120 Following, 80 Posts"></head></html>`,
		"/none":    `<html><body>private</body></html>`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	p := NewParser(srv.URL, 2000, 0, zap.NewNop())

	tests := []struct {
		handle   string
		want     int
		has      bool
		verified bool
	}{
		{"attr", 48210, true, true},
		{"@counter", 12500, true, false},
		{"meta", 3400, true, false},
		{"none", 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.handle, func(t *testing.T) {
			stats, err := p.FetchProfile(context.Background(), tt.handle)
			if err != nil {
				t.Fatalf("FetchProfile() error: %v", err)
			}
			if (stats.Followers != nil) != tt.has {
				t.Fatalf("followers present = %v, want %v", stats.Followers != nil, tt.has)
			}
			if tt.has && *stats.Followers != tt.want {
				t.Errorf("followers = %d, want %d", *stats.Followers, tt.want)
			}
			if stats.Verified != tt.verified {
				t.Errorf("verified = %v, want %v", stats.Verified, tt.verified)
			}
		})
	}

	if _, err := p.FetchProfile(context.Background(), "ghost"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("missing profile: err = %v", err)
	}
}

func TestFetchProfileRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`<div data-followers="10"></div>`))
	}))
	defer srv.Close()

	p := NewParser(srv.URL, 2000, 2, zap.NewNop())
	p.backoff = 0
	stats, err := p.FetchProfile(context.Background(), "x")
	if err != nil {
		t.Fatal(err)
	}
	if *stats.Followers != 10 || calls != 2 {
		t.Errorf("followers = %d after %d calls", *stats.Followers, calls)
	}
}
