package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stockroom/storefront/internal/api"
	"github.com/stockroom/storefront/internal/core/ports"
	"github.com/stockroom/storefront/internal/core/service"
	"github.com/stockroom/storefront/internal/infrastructure/db"
	redisstore "github.com/stockroom/storefront/internal/infrastructure/db/redis"
	"github.com/stockroom/storefront/internal/infrastructure/mq"
	"github.com/stockroom/storefront/internal/infrastructure/queue"
	"github.com/stockroom/storefront/internal/pkg/config"
	"github.com/stockroom/storefront/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the storefront HTTP server",
	Long: `Starts the storefront HTTP server. Usage:

	storefront server
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.Production(),
		Service: "storefront",
	})

	store, err := db.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.Warn().Err(err).Msg("store close failed")
		}
	}()
	if cfg.AutoMigrate {
		if err := store.Init(ctx); err != nil {
			return err
		}
	}
	log.Info().Str("driver", store.Driver).Msg("store ready")

	tokens, err := service.NewTokenService(cfg.JWTSecret)
	if err != nil {
		return err
	}

	deps := api.Deps{
		Store:         store,
		Tokens:        tokens,
		Log:           log,
		SecureCookies: cfg.Production(),
	}

	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TLS:      cfg.Redis.TLS,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		deps.Redis = rdb
		deps.Guard = redisstore.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)
		log.Info().Str("addr", cfg.Redis.Addr).Bool("tls", cfg.Redis.TLS).Msg("purchase idempotency enabled")
	}

	sinks := []ports.MovementSink{store.Movements}
	if cfg.AMQP.URL != "" {
		pub, err := mq.NewPublisher(mq.Config{URL: cfg.AMQP.URL, Queue: cfg.AMQP.Queue})
		if err != nil {
			return err
		}
		defer pub.Close()
		sinks = append(sinks, pub)
		log.Info().Str("queue", cfg.AMQP.Queue).Msg("stock movement publishing enabled")
	}

	// Workers outlive the signal context so queued movements drain on shutdown.
	dispatcher := queue.NewDispatcher(cfg.Movements.Workers, logger.Component("movements"), sinks...)
	dispatcher.Start(context.Background())
	deps.Movements = dispatcher

	e := api.NewRouter(deps)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		errCh <- e.Start(":" + cfg.Port)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			dispatcher.Close()
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	dispatcher.Close()
	log.Info().Msg("server stopped")
	return nil
}
