package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hollis/centavo/internal/config"
	"github.com/hollis/centavo/internal/storage"
	"github.com/hollis/centavo/internal/storage/postgres"
	"github.com/hollis/centavo/internal/storage/sqlite"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the configured backend's schema to the latest
version. The demo backend has no schema and needs no migration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			var store storage.Adapter
			switch cfg.Mode {
			case "cloud":
				store, err = postgres.New(cfg.Cloud.DSN)
			case "local":
				store, err = sqlite.New(cfg.Local.DBPath)
			default:
				fmt.Println("nothing to migrate")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to open %s backend: %w", cfg.Mode, err)
			}
			defer func() { _ = store.Close() }()

			slog.Info("Running database migrations...", "mode", cfg.Mode)
			if err := store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			slog.Info("Database migrations completed successfully")
			return nil
		},
	}
}
