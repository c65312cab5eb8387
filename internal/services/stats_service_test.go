package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/influencer-marketplace/backend/internal/statsparser"
	"go.uber.org/zap"
)

type stubFetcher map[string]*statsparser.ProfileStats

func (f stubFetcher) FetchProfile(_ context.Context, handle string) (*statsparser.ProfileStats, error) {
	s, ok := f[handle]
	if !ok {
		return nil, statsparser.ErrProfileNotFound
	}
	return s, nil
}

type denyAll struct{}

func (denyAll) Allow(context.Context, string, time.Duration) bool { return false }

func TestStatsRefreshUpdatesFollowerCounts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	missing := e.user(t, e.influencer.Role, "Ghost")
	e.addProfile(t, missing, "ghost.account", 100, "Pune")

	followers := 52000
	fetcher := stubFetcher{"asha.eats": {Handle: "asha.eats", Followers: &followers}}
	svc := NewStatsService(e.stores.Influencers, fetcher, nil, time.Hour, zap.NewNop())
	svc.pause = 0

	rep, err := svc.Refresh(ctx, 10)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rep.Updated != 1 || rep.Missing != 1 {
		t.Errorf("report = %+v, want 1 updated and 1 missing", rep)
	}
	p, err := e.stores.Influencers.GetByUserID(ctx, e.influencer.UserID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.FollowerCount == nil || *p.FollowerCount != followers {
		t.Errorf("followers = %v, want %d", p.FollowerCount, followers)
	}

	// refreshed profiles are not stale anymore
	rep, err = svc.Refresh(ctx, 10)
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if rep.Updated != 0 {
		t.Errorf("second pass updated %d, want 0", rep.Updated)
	}
}

func TestStatsRefreshHonoursThrottle(t *testing.T) {
	e := newEnv(t)
	svc := NewStatsService(e.stores.Influencers, stubFetcher{}, denyAll{}, time.Hour, zap.NewNop())
	rep, err := svc.Refresh(context.Background(), 10)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rep.Checked != 0 {
		t.Errorf("checked = %d, want 0 when throttled", rep.Checked)
	}
	if _, err := svc.Refresh(canceled(), 10); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled refresh error = %v", err)
	}
}

func canceled() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}
