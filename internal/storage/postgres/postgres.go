// Package postgres implements the storage adapter for the cloud backend.
// It uses the same column layout as the local backend plus a version column
// enforced for optimistic concurrency on every update.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/hollis/centavo/internal/common"
	"github.com/hollis/centavo/internal/model"
	"github.com/hollis/centavo/internal/storage"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
)

// Adapter implements storage.Adapter using PostgreSQL.
type Adapter struct {
	db *sql.DB
}

// New creates a new PostgreSQL adapter for the given DSN.
func New(dsn string) (*Adapter, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn", common.ErrMissingConfig)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrBackendUnavailable, err)
	}

	return &Adapter{db: db}, nil
}

// Close closes the database connection.
func (a *Adapter) Close() error {
	return a.db.Close()
}

const metaColumns = "id, tenant_id, is_deleted, created_at, updated_at, created_by, updated_by, version, payload"

func tableFor(t model.EntityType) (string, error) {
	if _, err := model.New(t); err != nil {
		return "", err
	}
	return string(t), nil
}

// classify maps transport-level failures onto the BackendUnavailable class so
// callers can decide to retry; everything else passes through wrapped.
func classify(err error, op string) error {
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %s: %v", common.ErrBackendUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
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

	query := fmt.Sprintf("SELECT %s FROM %s WHERE tenant_id = $1", metaColumns, table)
	if !opts.IncludeDeleted {
		query += " AND NOT is_deleted"
	}
	query += " ORDER BY created_at, id"

	rows, err := a.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, classify(err, "failed to query "+table)
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

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 AND tenant_id = $2", metaColumns, table)
	e, err := scanEntity(t, a.db.QueryRowContext(ctx, query, id, tenantID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %s", common.ErrNotFound, t, id)
	}
	if err != nil {
		return nil, classify(err, "failed to query "+table)
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
	meta.Version = 1

	payload, err := storage.Encode(e)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, table, metaColumns)
	if _, err := a.db.ExecContext(ctx, query,
		meta.ID, meta.TenantID, meta.IsDeleted, meta.CreatedAt, meta.UpdatedAt,
		meta.CreatedBy, meta.UpdatedBy, meta.Version, payload); err != nil {
		return nil, classify(err, "failed to insert into "+table)
	}
	return e, nil
}

// Update replaces a row, enforcing optimistic concurrency on the entity's
// version. A stale version yields Conflict; the caller re-fetches and
// re-applies. Last-write-wins is deliberately not offered.
func (a *Adapter) Update(ctx context.Context, e model.Entity, actorID string) (model.Entity, error) {
	table, err := tableFor(e.Type())
	if err != nil {
		return nil, err
	}

	meta := e.EntityMeta()
	expectedVersion := meta.Version
	meta.Touch(actorID, time.Now().UTC())
	meta.Version = expectedVersion + 1

	payload, err := storage.Encode(e)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`UPDATE %s SET is_deleted = $1, updated_at = $2, updated_by = $3, version = $4, payload = $5
		WHERE id = $6 AND tenant_id = $7 AND version = $8`, table)
	res, err := a.db.ExecContext(ctx, query,
		meta.IsDeleted, meta.UpdatedAt, meta.UpdatedBy, meta.Version, payload,
		meta.ID, meta.TenantID, expectedVersion)
	if err != nil {
		return nil, classify(err, "failed to update "+table)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 1 {
		return e, nil
	}

	// Distinguish a missing row from a stale version.
	var exists bool
	checkQuery := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1 AND tenant_id = $2)", table)
	if err := a.db.QueryRowContext(ctx, checkQuery, meta.ID, meta.TenantID).Scan(&exists); err != nil {
		return nil, classify(err, "failed to check "+table)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s %s at version %d", common.ErrConflict, e.Type(), meta.ID, expectedVersion)
	}
	return nil, fmt.Errorf("%w: %s %s", common.ErrNotFound, e.Type(), meta.ID)
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
