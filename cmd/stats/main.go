package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/influencer-marketplace/backend/internal/app"
	"github.com/influencer-marketplace/backend/internal/config"
	"github.com/influencer-marketplace/backend/internal/logger"
	"github.com/influencer-marketplace/backend/internal/services"
	"github.com/influencer-marketplace/backend/internal/statsparser"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	log := logger.Must(logger.Config{
		Level: cfg.LogLevel, Format: cfg.LogFormat,
		File: cfg.LogFile, MaxSizeMB: cfg.LogMaxSizeMB, MaxBackups: cfg.LogMaxBackups,
	})
	defer log.Sync()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, err := app.Open(ctx, cfg, log, app.Options{Name: "stats"})
	if err != nil {
		log.Fatal("failed to open backend", zap.Error(err))
	}
	defer backend.Close()

	parser := statsparser.NewParser(cfg.ProfileStatsURL, cfg.StatsFetchTimeoutMS, cfg.StatsFetchMaxRetries, log)
	var throttle services.Throttle
	if backend.Redis != nil {
		throttle = services.NewRedisThrottle(backend.Redis)
	}
	statsService := services.NewStatsService(backend.Stores.Influencers, parser, throttle, cfg.StatsRefreshInterval, log)

	log.Info("stats fetcher started", zap.Duration("interval", cfg.StatsRefreshInterval))

	// Initial run
	runStatsRefresh(ctx, statsService, cfg, log)

	// Profiles become stale one interval after their refresh; checking more
	// often spreads the work out.
	ticker := time.NewTicker(cfg.StatsRefreshInterval / 4)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			runStatsRefresh(ctx, statsService, cfg, log)
		case <-sigCh:
			log.Info("shutting down stats fetcher")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

func runStatsRefresh(ctx context.Context, svc *services.StatsService, cfg *config.Config, log *zap.Logger) {
	rep, err := svc.Refresh(ctx, cfg.StatsBatchSize)
	if err != nil {
		log.Error("stats refresh failed", zap.Error(err))
		return
	}
	log.Info("stats refresh done",
		zap.Int("checked", rep.Checked),
		zap.Int("updated", rep.Updated),
		zap.Int("missing", rep.Missing),
		zap.Int("failed", rep.Failed))
}
