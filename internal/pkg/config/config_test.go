package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	if err != nil {
		t.Fatalf("LoadWith returned error: %v", err)
	}
	if cfg.Port != "8080" || cfg.StoreDriver != "mongo" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Redis.Addr != "" || cfg.AMQP.URL != "" {
		t.Fatalf("optional backends should be disabled by default")
	}
	if cfg.Redis.IdempotencyTTL != 24*time.Hour {
		t.Fatalf("unexpected idempotency ttl %v", cfg.Redis.IdempotencyTTL)
	}
	if cfg.Production() {
		t.Fatalf("default env should not be production")
	}
	if !cfg.AutoMigrate {
		t.Fatalf("auto migrate should default to true")
	}
}

func TestLoadWith_RequiresSecret(t *testing.T) {
	if _, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{})); err == nil {
		t.Fatalf("expected error when JWT_SECRET is missing")
	}
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":      "s3cret",
		"ENV":             "production",
		"STORE_DRIVER":    "sqlite",
		"SQLITE_PATH":     "/tmp/x.db",
		"REDIS_ADDR":      "redis:6379",
		"REDIS_PASSWORD":  "hunter2",
		"REDIS_TLS":       "true",
		"IDEMPOTENCY_TTL": "10m",
	}))
	if err != nil {
		t.Fatalf("LoadWith returned error: %v", err)
	}
	if !cfg.Production() || cfg.StoreDriver != "sqlite" || cfg.SQLite.Path != "/tmp/x.db" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Redis.Addr != "redis:6379" || cfg.Redis.IdempotencyTTL != 10*time.Minute ||
		cfg.Redis.Password != "hunter2" || !cfg.Redis.TLS {
		t.Fatalf("redis overrides not applied: %+v", cfg.Redis)
	}
}

func TestLoadWith_RejectsUnknownDriver(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":   "s3cret",
		"STORE_DRIVER": "cassandra",
	}))
	if err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
