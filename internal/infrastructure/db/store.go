// Package db opens the configured storage backend and exposes its
// repositories as one explicitly passed handle.
package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stockroom/storefront/internal/core/ports"
	mongostore "github.com/stockroom/storefront/internal/infrastructure/db/mongo"
	"github.com/stockroom/storefront/internal/infrastructure/db/sqlstore"
	"github.com/stockroom/storefront/internal/pkg/config"
)

// ErrNoRollback is returned by Rollback for backends without migrations.
var ErrNoRollback = errors.New("backend has no schema migrations to roll back")

// Store bundles the repositories of one backend.
type Store struct {
	Driver    string
	Users     ports.UserRepository
	Items     ports.ItemRepository
	Movements ports.MovementSink

	ping     func(ctx context.Context) error
	init     func(ctx context.Context) error
	rollback func(ctx context.Context) error
	close    func(ctx context.Context) error
}

// Open connects to the backend named by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.StoreDriver {
	case "mongo":
		return openMongo(ctx, cfg.Mongo)
	case "postgres":
		return openSQL(ctx, sqlstore.Postgres, cfg.Postgres.DSN)
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLite.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		return openSQL(ctx, sqlstore.SQLite, sqlstore.SQLiteDSN(cfg.SQLite.Path))
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

func openMongo(ctx context.Context, cfg config.MongoConfig) (*Store, error) {
	client, database, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.URI, Database: cfg.Database})
	if err != nil {
		return nil, err
	}
	return &Store{
		Driver:    "mongo",
		Users:     mongostore.NewUserRepository(database),
		Items:     mongostore.NewItemRepository(database),
		Movements: mongostore.NewMovementRepository(database),
		ping: func(ctx context.Context) error {
			return mongostore.Ping(ctx, database)
		},
		init: func(ctx context.Context) error {
			return mongostore.EnsureIndexes(ctx, database)
		},
		rollback: func(context.Context) error {
			return ErrNoRollback
		},
		close: client.Disconnect,
	}, nil
}

// OpenSQL wraps an already chosen SQL dialect and DSN.
func OpenSQL(ctx context.Context, dialect sqlstore.Dialect, dsn string) (*Store, error) {
	return openSQL(ctx, dialect, dsn)
}

func openSQL(ctx context.Context, dialect sqlstore.Dialect, dsn string) (*Store, error) {
	sdb, err := sqlstore.Open(ctx, dialect, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{
		Driver:    string(dialect),
		Users:     sqlstore.NewUserRepository(sdb),
		Items:     sqlstore.NewItemRepository(sdb),
		Movements: sqlstore.NewMovementRepository(sdb),
		ping:      sdb.Ping,
		init: func(context.Context) error {
			return sdb.MigrateUp()
		},
		rollback: func(context.Context) error {
			return sdb.MigrateDown()
		},
		close: func(context.Context) error {
			return sdb.Close()
		},
	}, nil
}

// Init prepares the schema: indexes for MongoDB, migrations for SQL.
// It is safe to run on every start.
func (s *Store) Init(ctx context.Context) error {
	if err := s.init(ctx); err != nil {
		return fmt.Errorf("init %s store: %w", s.Driver, err)
	}
	return nil
}

// Rollback reverts all SQL migrations.
func (s *Store) Rollback(ctx context.Context) error {
	return s.rollback(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	return s.close(ctx)
}
