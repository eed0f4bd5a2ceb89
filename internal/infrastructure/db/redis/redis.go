// Package redis holds the optional Redis connection that backs purchase
// idempotency. Keys live under the idempotency:purchase: prefix, so one
// logical database can be shared with other services.
package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dialTimeout = 5 * time.Second
	ioTimeout   = 2 * time.Second
)

// Config is the connection part of the storefront Redis settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	// TLS enables TLS 1.2+ using the system roots, as managed Redis
	// offerings require.
	TLS bool
}

func clientOptions(cfg Config) *redis.Options {
	opts := &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts
}

// Connect builds the client and pings it once. A failed ping closes the
// client.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(clientOptions(cfg))

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}
