package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/hollis/centavo/internal/model"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration. Migrations are strictly
// additive; none of them drops a table or a column.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func createEntityTables(tx *sql.Tx) error {
	for _, t := range model.EntityTypes {
		queries := []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				tenant_id TEXT NOT NULL,
				is_deleted INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				created_by TEXT NOT NULL DEFAULT '',
				updated_by TEXT NOT NULL DEFAULT '',
				payload TEXT NOT NULL
			)`, t),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_tenant ON %s(tenant_id, is_deleted)`, t, t),
		}
		for _, query := range queries {
			if _, err := tx.Exec(query); err != nil {
				return fmt.Errorf("failed to execute query: %w", err)
			}
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up:          createEntityTables,
	},
	{
		Version:     2,
		Description: "Add version column for future cloud sync",
		Up: func(tx *sql.Tx) error {
			for _, t := range model.EntityTypes {
				query := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN version INTEGER NOT NULL DEFAULT 0`, t)
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to add version column to %s: %w", t, err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Index created_at for ordered listing",
		Up: func(tx *sql.Tx) error {
			for _, t := range model.EntityTypes {
				query := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_created ON %s(created_at)`, t, t)
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to index %s: %w", t, err)
				}
			}
			return nil
		},
	},
}

// SchemaVersion returns the database's current schema version.
func (a *Adapter) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := a.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate applies all pending database migrations in increasing version
// order, using PRAGMA user_version as the version marker.
func (a *Adapter) Migrate(ctx context.Context) error {
	var currentVersion int
	err := a.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := a.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = a.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
