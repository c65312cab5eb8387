package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/influencer-marketplace/backend/internal/app"
	"github.com/influencer-marketplace/backend/internal/config"
	apphttp "github.com/influencer-marketplace/backend/internal/http"
	"github.com/influencer-marketplace/backend/internal/http/handlers"
	"github.com/influencer-marketplace/backend/internal/logger"
	"github.com/influencer-marketplace/backend/internal/notify"
	"github.com/influencer-marketplace/backend/internal/services"
	"github.com/influencer-marketplace/backend/internal/tracing"
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

	shutdownTracing, err := tracing.Setup(ctx, "campaign-api", cfg.OTelEndpoint)
	if err != nil {
		log.Fatal("failed to set up tracing", zap.Error(err))
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	// Store + events
	backend, err := app.Open(ctx, cfg, log, app.Options{Migrate: true, Name: "api"})
	if err != nil {
		log.Fatal("failed to open backend", zap.Error(err))
	}
	defer backend.Close()

	catalog, err := notify.DefaultCatalog()
	if err != nil {
		log.Fatal("failed to load notification catalog", zap.Error(err))
	}
	dispatcher := notify.NewPublishDispatcher(backend.Publisher, log)

	// Services
	engagementService := services.NewEngagementService(backend.Stores, catalog, dispatcher, backend.Publisher, backend.Subscriber, log)
	campaignService := services.NewCampaignService(backend.Stores, catalog, dispatcher, log)
	notificationService := services.NewNotificationService(backend.Stores.Notifications, dispatcher, log)

	// Handlers
	wsHub := handlers.NewWSHub(backend.Subscriber, engagementService, log)
	if err := wsHub.Start(ctx); err != nil {
		log.Fatal("failed to start websocket hub", zap.Error(err))
	}

	// Fiber app
	fapp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(fapp, apphttp.RouterConfig{
		JWTSecret:          cfg.JWTSecret,
		AllowedOrigins:     cfg.AllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Redis:              backend.Redis,
		Health:             backend.Ping,
	}, log, apphttp.Handlers{
		Users:         handlers.NewUserHandler(backend.Stores.Users, backend.Stores.Influencers, log),
		Campaigns:     handlers.NewCampaignHandler(campaignService, log),
		Engagements:   handlers.NewEngagementHandler(engagementService, log),
		Notifications: handlers.NewNotificationHandler(notificationService, log),
		WS:            wsHub,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = fapp.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr), zap.String("store", cfg.StoreDriver))
	if err := fapp.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
