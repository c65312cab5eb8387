package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/influencer-marketplace/backend/internal/config"
	"github.com/influencer-marketplace/backend/internal/events"
	"go.uber.org/zap"
)

func TestOpenSQLiteWithLocalBus(t *testing.T) {
	cfg := &config.Config{StoreDriver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "app.db")}
	b, err := Open(context.Background(), cfg, zap.NewNop(), Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer b.Close()

	if b.Redis != nil {
		t.Errorf("redis client set without REDIS_URL")
	}
	if _, ok := b.Publisher.(*events.LocalBus); !ok {
		t.Errorf("publisher = %T, want *events.LocalBus", b.Publisher)
	}
	if err := b.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
	if b.Stores.Engagements == nil || b.Stores.Notifications == nil {
		t.Errorf("stores not wired: %+v", b.Stores)
	}
}

func TestOpenRequireRedis(t *testing.T) {
	cfg := &config.Config{StoreDriver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "app.db")}
	if _, err := Open(context.Background(), cfg, zap.NewNop(), Options{RequireRedis: true}); err == nil {
		t.Fatalf("expected error without REDIS_URL")
	}
}
