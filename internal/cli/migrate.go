package cli

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stockroom/storefront/internal/infrastructure/db"
	"github.com/stockroom/storefront/internal/pkg/config"
	"github.com/stockroom/storefront/pkg/logger"
)

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the store schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations (MongoDB: create indexes)",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, log, err := openForMigration(cmd)
		if err != nil {
			return err
		}
		defer store.Close(cmd.Context())

		if err := store.Init(cmd.Context()); err != nil {
			return err
		}
		log.Info().Str("driver", store.Driver).Msg("schema up to date")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert all migrations (SQL drivers only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, log, err := openForMigration(cmd)
		if err != nil {
			return err
		}
		defer store.Close(cmd.Context())

		if err := store.Rollback(cmd.Context()); err != nil {
			if errors.Is(err, db.ErrNoRollback) {
				log.Warn().Str("driver", store.Driver).Msg("nothing to roll back")
				return nil
			}
			return err
		}
		log.Info().Str("driver", store.Driver).Msg("migrations reverted")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}

func openForMigration(cmd *cobra.Command) (*db.Store, zerolog.Logger, error) {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return nil, zerolog.Logger{}, err
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: !cfg.Production(), Service: "storefront"})

	store, err := db.Open(cmd.Context(), cfg)
	if err != nil {
		return nil, zerolog.Logger{}, err
	}
	return store, log, nil
}
