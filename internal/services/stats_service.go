package services

import (
	"context"
	"errors"
	"time"

	"github.com/influencer-marketplace/backend/internal/models"
	"github.com/influencer-marketplace/backend/internal/statsparser"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type ProfileFetcher interface {
	FetchProfile(ctx context.Context, handle string) (*statsparser.ProfileStats, error)
}

// Throttle reports whether work keyed by key may run now, and reserves the
// slot for ttl when it may.
type Throttle interface {
	Allow(ctx context.Context, key string, ttl time.Duration) bool
}

type RedisThrottle struct {
	rdb *redis.Client
}

func NewRedisThrottle(rdb *redis.Client) *RedisThrottle {
	return &RedisThrottle{rdb: rdb}
}

// Allow fails open when redis is unreachable.
func (t *RedisThrottle) Allow(ctx context.Context, key string, ttl time.Duration) bool {
	ok, err := t.rdb.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return true
	}
	return ok
}

// StatsService keeps influencer follower counts fresh so eligibility
// decisions work on current numbers.
type StatsService struct {
	influencers InfluencerStore
	fetcher     ProfileFetcher
	throttle    Throttle
	interval    time.Duration
	pause       time.Duration
	now         func() time.Time
	log         *zap.Logger
}

func NewStatsService(influencers InfluencerStore, fetcher ProfileFetcher, throttle Throttle, interval time.Duration, log *zap.Logger) *StatsService {
	return &StatsService{
		influencers: influencers,
		fetcher:     fetcher,
		throttle:    throttle,
		interval:    interval,
		pause:       2 * time.Second,
		now:         func() time.Time { return time.Now().UTC() },
		log:         log,
	}
}

type RefreshReport struct {
	Checked int
	Updated int
	Missing int
	Failed  int
}

// Refresh fetches follower counts for up to batch profiles whose last
// refresh is older than the interval.
func (s *StatsService) Refresh(ctx context.Context, batch int) (RefreshReport, error) {
	var rep RefreshReport
	stale, err := s.influencers.ListStale(ctx, s.now().Add(-s.interval), batch)
	if err != nil {
		return rep, storeErr(err)
	}
	s.log.Info("refreshing follower counts", zap.Int("profiles", len(stale)))

	for i, p := range stale {
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}
		if p.Handle == "" {
			continue
		}
		if s.throttle != nil && !s.throttle.Allow(ctx, "rl:stats:"+p.Handle, s.interval) {
			continue
		}
		if i > 0 && s.pause > 0 {
			select {
			case <-ctx.Done():
				return rep, ctx.Err()
			case <-time.After(s.pause):
			}
		}
		rep.Checked++
		if err := s.refreshOne(ctx, p); err != nil {
			if errors.Is(err, statsparser.ErrProfileNotFound) {
				rep.Missing++
			} else {
				rep.Failed++
			}
			continue
		}
		rep.Updated++
	}
	return rep, nil
}

func (s *StatsService) refreshOne(ctx context.Context, p models.Influencer) error {
	stats, err := s.fetcher.FetchProfile(ctx, p.Handle)
	if err != nil {
		s.log.Warn("profile stats failed", zap.String("handle", p.Handle), zap.Error(err))
		return err
	}
	if stats.Followers == nil {
		s.log.Debug("profile has no follower count", zap.String("handle", p.Handle))
		return errors.New("follower count not found on profile page")
	}
	if err := s.influencers.UpdateFollowerCount(ctx, p.UserID, *stats.Followers, s.now()); err != nil {
		s.log.Error("failed to save follower count", zap.String("handle", p.Handle), zap.Error(err))
		return err
	}
	s.log.Info("follower count updated",
		zap.String("handle", p.Handle),
		zap.Intp("previous", p.FollowerCount),
		zap.Int("followers", *stats.Followers))
	return nil
}
