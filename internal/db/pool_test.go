package db

import (
	"testing"
	"time"
)

const testDSN = "postgres://u:p@localhost:5432/marketplace?sslmode=disable"

func TestPoolConfigAppliesOptions(t *testing.T) {
	cfg, err := poolConfig(testDSN, PoolOptions{
		MaxConns:        8,
		MinConns:        3,
		MaxConnLifetime: 10 * time.Minute,
		MaxConnIdleTime: time.Minute,
		AppName:         "worker",
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxConns != 8 || cfg.MinConns != 3 {
		t.Errorf("conns = %d/%d, want 8/3", cfg.MaxConns, cfg.MinConns)
	}
	if cfg.MaxConnLifetime != 10*time.Minute || cfg.MaxConnIdleTime != time.Minute {
		t.Errorf("lifetimes = %v/%v", cfg.MaxConnLifetime, cfg.MaxConnIdleTime)
	}
	if got := cfg.ConnConfig.RuntimeParams["application_name"]; got != "worker" {
		t.Errorf("application_name = %q, want worker", got)
	}
}

func TestPoolConfigKeepsDSNSettings(t *testing.T) {
	cfg, err := poolConfig(testDSN+"&pool_max_conns=5&application_name=psql", PoolOptions{AppName: "worker"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxConns != 5 {
		t.Errorf("max conns = %d, want 5 from the DSN", cfg.MaxConns)
	}
	if got := cfg.ConnConfig.RuntimeParams["application_name"]; got != "psql" {
		t.Errorf("application_name = %q, want psql", got)
	}
}

func TestPoolConfigClampsMinConns(t *testing.T) {
	cfg, err := poolConfig(testDSN, PoolOptions{MaxConns: 4, MinConns: 10})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MinConns != 4 {
		t.Errorf("min conns = %d, want clamped to 4", cfg.MinConns)
	}
}

func TestPoolConfigRejectsBadDSN(t *testing.T) {
	if _, err := poolConfig("postgres://u:p@localhost:notaport/db", PoolOptions{}); err == nil {
		t.Error("expected parse error")
	}
}

func TestRedisOptions(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		in       RedisOptions
		wantPool int
		wantName string
	}{
		{"overrides", "redis://localhost:6379/2", RedisOptions{PoolSize: 7, ClientName: "api"}, 7, "api"},
		{"url client name wins", "redis://localhost:6379/0?client_name=ops", RedisOptions{ClientName: "api"}, 0, "ops"},
		{"defaults", "redis://localhost:6379/0", RedisOptions{}, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := redisOptions(tt.url, tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if opts.PoolSize != tt.wantPool {
				t.Errorf("pool size = %d, want %d", opts.PoolSize, tt.wantPool)
			}
			if opts.ClientName != tt.wantName {
				t.Errorf("client name = %q, want %q", opts.ClientName, tt.wantName)
			}
		})
	}
	if _, err := redisOptions("http://localhost", RedisOptions{}); err == nil {
		t.Error("expected scheme error")
	}
}
