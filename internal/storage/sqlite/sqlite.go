// Package sqlite implements the storage adapter for the local embedded
// backend. Entity-specific fields live in a JSON payload column; the audit
// and scoping fields are mirrored into real columns for indexing.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hollis/centavo/internal/common"
	"github.com/hollis/centavo/internal/model"
	"github.com/hollis/centavo/internal/storage"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Adapter implements storage.Adapter using SQLite.
type Adapter struct {
	db     *sql.DB
	dbPath string
}

// New creates a new SQLite adapter backed by the file at dbPath.
func New(dbPath string) (*Adapter, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: dbPath", common.ErrMissingConfig)
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrBackendUnavailable, err)
	}

	return &Adapter{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (a *Adapter) Close() error {
	return a.db.Close()
}

const metaColumns = "id, tenant_id, is_deleted, created_at, updated_at, created_by, updated_by, version, payload"

// tableFor validates the entity type and returns its table name. Table names
// are fixed by the registry, never caller input.
func tableFor(t model.EntityType) (string, error) {
	if _, err := model.New(t); err != nil {
		return "", err
	}
	return string(t), nil
}

func scanEntity(t model.EntityType, scan func(dest ...any) error) (model.Entity, error) {
	var (
		meta    model.Meta
		payload []byte
	)
	if err := scan(&meta.ID, &meta.TenantID, &meta.IsDeleted, &meta.CreatedAt, &meta.UpdatedAt,
		&meta.CreatedBy, &meta.UpdatedBy, &meta.Version, &payload); err != nil {
		return nil, err
	}
	return storage.Decode(t, payload, meta)
}

// List returns all rows of one entity type for a tenant.
func (a *Adapter) List(ctx context.Context, t model.EntityType, tenantID string, opts storage.ListOptions) ([]model.Entity, error) {
	table, err := tableFor(t)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE tenant_id = ?", metaColumns, table)
	if !opts.IncludeDeleted {
		query += " AND is_deleted = 0"
	}
	query += " ORDER BY created_at, id"

	rows, err := a.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var result []model.Entity
	for rows.Next() {
		e, err := scanEntity(t, rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", table, err)
	}
	return result, nil
}

// GetByID returns a single row, or NotFound on id/tenant mismatch.
func (a *Adapter) GetByID(ctx context.Context, t model.EntityType, tenantID, id string) (model.Entity, error) {
	table, err := tableFor(t)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? AND tenant_id = ?", metaColumns, table)
	e, err := scanEntity(t, a.db.QueryRowContext(ctx, query, id, tenantID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %s", common.ErrNotFound, t, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	return e, nil
}

// Insert stores a new row, generating id and timestamps when absent.
func (a *Adapter) Insert(ctx context.Context, e model.Entity) (model.Entity, error) {
	table, err := tableFor(e.Type())
	if err != nil {
		return nil, err
	}

	meta := e.EntityMeta()
	if meta.TenantID == "" {
		return nil, fmt.Errorf("%w: tenant id is required", common.ErrValidation)
	}
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}
	if meta.UpdatedAt.IsZero() {
		meta.UpdatedAt = now
	}

	payload, err := storage.Encode(e)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, table, metaColumns)
	if _, err := a.db.ExecContext(ctx, query,
		meta.ID, meta.TenantID, meta.IsDeleted, meta.CreatedAt, meta.UpdatedAt,
		meta.CreatedBy, meta.UpdatedBy, meta.Version, payload); err != nil {
		return nil, fmt.Errorf("failed to insert %s: %w", table, err)
	}
	return e, nil
}

// Update replaces a row identified by the entity's id and tenant.
func (a *Adapter) Update(ctx context.Context, e model.Entity, actorID string) (model.Entity, error) {
	table, err := tableFor(e.Type())
	if err != nil {
		return nil, err
	}

	meta := e.EntityMeta()
	meta.Touch(actorID, time.Now().UTC())

	payload, err := storage.Encode(e)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`UPDATE %s SET is_deleted = ?, updated_at = ?, updated_by = ?, payload = ?
		WHERE id = ? AND tenant_id = ?`, table)
	res, err := a.db.ExecContext(ctx, query,
		meta.IsDeleted, meta.UpdatedAt, meta.UpdatedBy, payload, meta.ID, meta.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s %s", common.ErrNotFound, e.Type(), meta.ID)
	}
	return e, nil
}

// SoftDelete marks a row deleted and stamps the acting user.
func (a *Adapter) SoftDelete(ctx context.Context, t model.EntityType, tenantID, id, actorID string) error {
	return a.setDeleted(ctx, t, tenantID, id, actorID, true)
}

// Restore is the inverse of SoftDelete.
func (a *Adapter) Restore(ctx context.Context, t model.EntityType, tenantID, id, actorID string) error {
	return a.setDeleted(ctx, t, tenantID, id, actorID, false)
}

func (a *Adapter) setDeleted(ctx context.Context, t model.EntityType, tenantID, id, actorID string, deleted bool) error {
	e, err := a.GetByID(ctx, t, tenantID, id)
	if err != nil {
		return err
	}
	e.EntityMeta().IsDeleted = deleted
	if _, err := a.Update(ctx, e, actorID); err != nil {
		return err
	}
	return nil
}
