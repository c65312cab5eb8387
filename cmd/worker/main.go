package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/influencer-marketplace/backend/internal/app"
	"github.com/influencer-marketplace/backend/internal/config"
	"github.com/influencer-marketplace/backend/internal/logger"
	"github.com/influencer-marketplace/backend/internal/notify"
	"github.com/influencer-marketplace/backend/internal/services"
	"github.com/influencer-marketplace/backend/internal/tracing"
	"go.uber.org/zap"
)

// The worker re-dispatches notifications whose delivery failed after the
// transition committed.
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

	shutdownTracing, err := tracing.Setup(ctx, "campaign-worker", cfg.OTelEndpoint)
	if err != nil {
		log.Fatal("failed to set up tracing", zap.Error(err))
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	backend, err := app.Open(ctx, cfg, log, app.Options{Name: "worker"})
	if err != nil {
		log.Fatal("failed to open backend", zap.Error(err))
	}
	defer backend.Close()

	// Without a broker nobody would hear a publish, so push directly.
	var dispatcher notify.Dispatcher = notify.NewPublishDispatcher(backend.Publisher, log)
	if backend.Redis == nil && cfg.PushWebhookURL != "" {
		dispatcher = services.NewPushClient(cfg.PushWebhookURL, log)
	}
	notificationService := services.NewNotificationService(backend.Stores.Notifications, dispatcher, log)

	health := fiber.New(fiber.Config{DisableStartupMessage: true})
	health.Get("/health", func(c *fiber.Ctx) error {
		if err := backend.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	go func() {
		if err := health.Listen(":" + cfg.WorkerPort); err != nil {
			log.Error("health server stopped", zap.Error(err))
		}
	}()
	defer func() { _ = health.Shutdown() }()

	log.Info("worker started", zap.Duration("redelivery_interval", cfg.RedeliveryInterval))

	redeliveryTicker := time.NewTicker(cfg.RedeliveryInterval)
	defer redeliveryTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-redeliveryTicker.C:
			runRedelivery(ctx, notificationService, cfg, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

func runRedelivery(ctx context.Context, svc *services.NotificationService, cfg *config.Config, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, cfg.RedeliveryInterval)
	defer cancel()

	n, err := svc.Redeliver(ctx, cfg.RedeliveryMinAge, 200)
	if err != nil {
		log.Error("notification redelivery failed", zap.Error(err))
		return
	}
	if n > 0 {
		log.Info("notifications redelivered", zap.Int("count", n))
	}
}
