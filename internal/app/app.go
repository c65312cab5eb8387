// Package app wires a store backend and an event bus from configuration.
// Every binary opens its dependencies through here.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/influencer-marketplace/backend/internal/config"
	"github.com/influencer-marketplace/backend/internal/db"
	"github.com/influencer-marketplace/backend/internal/events"
	"github.com/influencer-marketplace/backend/internal/repositories"
	"github.com/influencer-marketplace/backend/internal/repositories/sqlite"
	"github.com/influencer-marketplace/backend/internal/services"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Options struct {
	// Migrate applies pending Postgres migrations on open. The sqlite
	// schema is always applied.
	Migrate bool
	// RequireRedis fails Open instead of falling back to the in-process bus.
	RequireRedis bool
	// Name identifies the process to Postgres and Redis.
	Name string
}

type Backend struct {
	Stores     services.Stores
	Publisher  events.Publisher
	Subscriber events.Subscriber
	// Redis is nil when the in-process bus is used.
	Redis *redis.Client

	ping    func(ctx context.Context) error
	closers []func()
}

func (b *Backend) Ping(ctx context.Context) error {
	if err := b.ping(ctx); err != nil {
		return err
	}
	if b.Redis != nil {
		return b.Redis.Ping(ctx).Err()
	}
	return nil
}

// Close releases resources in reverse order of acquisition.
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func Open(ctx context.Context, cfg *config.Config, log *zap.Logger, opts Options) (*Backend, error) {
	b := &Backend{}

	if cfg.UseSQLite() {
		st, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		log.Info("sqlite store opened", zap.String("path", cfg.SQLitePath))
		b.closers = append(b.closers, func() { _ = st.Close() })
		b.ping = st.Ping
		b.Stores = services.Stores{
			Users:         st.Users,
			Influencers:   st.Influencers,
			Campaigns:     st.Campaigns,
			Engagements:   st.Engagements,
			Notifications: st.Notifications,
			Audit:         st.Audit,
		}
	} else {
		pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, db.PoolOptions{
			MaxConns:        int32(cfg.PostgresMaxConns),
			MinConns:        int32(cfg.PostgresMinConns),
			MaxConnLifetime: cfg.PostgresConnLifetime,
			MaxConnIdleTime: 5 * time.Minute,
			AppName:         opts.Name,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		if opts.Migrate {
			if err := db.RunMigrations(ctx, pool, db.Migrations(), log); err != nil {
				b.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		st := repositories.NewStore(pool)
		b.ping = st.Ping
		b.Stores = services.Stores{
			Users:         st.Users,
			Influencers:   st.Influencers,
			Campaigns:     st.Campaigns,
			Engagements:   st.Engagements,
			Notifications: st.Notifications,
			Audit:         st.Audit,
		}
	}

	if cfg.RedisURL == "" {
		if opts.RequireRedis {
			b.Close()
			return nil, fmt.Errorf("REDIS_URL is required")
		}
		log.Info("no redis configured, using in-process event bus")
		bus := events.NewLocalBus()
		b.Publisher, b.Subscriber = bus, bus
		return b, nil
	}

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, db.RedisOptions{
		PoolSize:   cfg.RedisPoolSize,
		ClientName: opts.Name,
	}, log)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	b.closers = append(b.closers, func() { _ = rdb.Close() })
	b.Redis = rdb
	b.Publisher = events.NewRedisPublisher(rdb, log)
	b.Subscriber = events.NewRedisSubscriber(rdb, log)
	return b, nil
}
