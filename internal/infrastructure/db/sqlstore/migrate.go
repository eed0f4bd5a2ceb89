package sqlstore

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrateUp applies all pending migrations. It is idempotent.
func (s *DB) MigrateUp() error {
	return s.runMigrations(func(m *migrate.Migrate) error { return m.Up() })
}

// MigrateDown rolls back every applied migration.
func (s *DB) MigrateDown() error {
	return s.runMigrations(func(m *migrate.Migrate) error { return m.Down() })
}

// runMigrations uses a dedicated connection: closing the migrator closes the
// database it was given.
func (s *DB) runMigrations(step func(*migrate.Migrate) error) error {
	driver, err := driverName(s.dialect)
	if err != nil {
		return err
	}
	conn, err := sql.Open(driver, s.dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}

	var dbDriver database.Driver
	switch s.dialect {
	case Postgres:
		dbDriver, err = postgres.WithInstance(conn, &postgres.Config{})
	case SQLite:
		dbDriver, err = migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	}
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("init migration driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("load migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(s.dialect), dbDriver)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("init migrator: %w", err)
	}
	defer func() {
		_, _ = m.Close()
	}()

	if err := step(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
