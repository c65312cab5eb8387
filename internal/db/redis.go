package db

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisOptions tunes the client parsed from REDIS_URL. Zero values keep the
// go-redis defaults.
type RedisOptions struct {
	PoolSize   int
	ClientName string
}

func redisOptions(url string, o RedisOptions) (*redis.Options, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	if o.PoolSize > 0 {
		opts.PoolSize = o.PoolSize
	}
	if o.ClientName != "" && opts.ClientName == "" {
		opts.ClientName = o.ClientName
	}
	return opts, nil
}

func NewRedisClient(ctx context.Context, url string, o RedisOptions, log *zap.Logger) (*redis.Client, error) {
	opts, err := redisOptions(url, o)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	log.Info("redis connected", zap.String("addr", opts.Addr), zap.Int("db", opts.DB), zap.Int("pool_size", opts.PoolSize))
	return client, nil
}
