package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/influencer-marketplace/backend/internal/app"
	"github.com/influencer-marketplace/backend/internal/config"
	"github.com/influencer-marketplace/backend/internal/events"
	"github.com/influencer-marketplace/backend/internal/logger"
	"github.com/influencer-marketplace/backend/internal/models"
	"github.com/influencer-marketplace/backend/internal/services"
	"go.uber.org/zap"
)

// Notify Bridge: small service that subscribes to notification events on
// redis and forwards them to the external push gateway.

func main() {
	cfg := config.Load()
	log := logger.Must(logger.Config{
		Level: cfg.LogLevel, Format: cfg.LogFormat,
		File: cfg.LogFile, MaxSizeMB: cfg.LogMaxSizeMB, MaxBackups: cfg.LogMaxBackups,
	})
	defer log.Sync()

	if cfg.PushWebhookURL == "" {
		log.Fatal("PUSH_WEBHOOK_URL is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, err := app.Open(ctx, cfg, log, app.Options{RequireRedis: true, Name: "notify-bridge"})
	if err != nil {
		log.Fatal("failed to open backend", zap.Error(err))
	}
	defer backend.Close()

	push := services.NewPushClient(cfg.PushWebhookURL, log)

	log.Info("notify-bridge started")

	err = backend.Subscriber.Subscribe(ctx, events.StreamNotifications, func(event events.Event) {
		n, err := notificationFromEvent(event)
		if err != nil {
			log.Warn("dropping malformed notification event", zap.Error(err))
			return
		}
		sendCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := push.Send(sendCtx, n); err != nil {
			log.Warn("failed to forward notification", zap.String("notification_id", n.ID.String()), zap.Error(err))
			return
		}
		log.Info("notification forwarded", zap.String("type", n.Type), zap.String("user_id", n.UserID.String()))
	})
	if err != nil {
		log.Fatal("failed to subscribe", zap.Error(err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down notify-bridge")
	cancel()
}

func notificationFromEvent(event events.Event) (models.Notification, error) {
	var n models.Notification
	if event.Type != events.EventNotification {
		return n, fmt.Errorf("unexpected event type %q", event.Type)
	}
	str := func(key string) string {
		s, _ := event.Payload[key].(string)
		return s
	}
	var err error
	if n.ID, err = uuid.Parse(str("id")); err != nil {
		return n, fmt.Errorf("id: %w", err)
	}
	if n.UserID, err = uuid.Parse(str("user_id")); err != nil {
		return n, fmt.Errorf("user_id: %w", err)
	}
	n.Role = models.Role(str("role"))
	n.Type = str("type")
	n.Title = str("title")
	n.Message = str("message")
	n.Metadata, _ = event.Payload["metadata"].(map[string]any)
	return n, nil
}
