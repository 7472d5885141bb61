// Package memory implements the storage adapter for demo mode: an in-memory
// store seeded with deterministic sample data. Nothing here is ever
// persisted; leaving demo mode discards the store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hollis/centavo/internal/common"
	"github.com/hollis/centavo/internal/model"
	"github.com/hollis/centavo/internal/storage"
)

// Adapter implements storage.Adapter with plain maps.
type Adapter struct {
	tables map[model.EntityType]map[string]model.Entity
	mu     sync.RWMutex
}

// New creates an empty in-memory adapter.
func New() *Adapter {
	a := &Adapter{}
	a.reset()
	return a
}

func (a *Adapter) reset() {
	a.tables = make(map[model.EntityType]map[string]model.Entity, len(model.EntityTypes))
	for _, t := range model.EntityTypes {
		a.tables[t] = make(map[string]model.Entity)
	}
}

// Reset discards all stored rows. Used when switching out of demo mode;
// demo data must never survive the mode.
func (a *Adapter) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reset()
}

// IsEmpty reports whether the store holds no rows at all.
func (a *Adapter) IsEmpty() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, rows := range a.tables {
		if len(rows) > 0 {
			return false
		}
	}
	return true
}

// Migrate is a no-op; the in-memory store has no schema.
func (a *Adapter) Migrate(_ context.Context) error { return nil }

// Close is a no-op.
func (a *Adapter) Close() error { return nil }

// visible implements the demo sentinel rule: rows of the reserved demo
// tenant are visible to every caller in this backend.
func visible(rowTenant, tenantID string) bool {
	return rowTenant == tenantID || rowTenant == model.DemoTenant
}

func (a *Adapter) table(t model.EntityType) (map[string]model.Entity, error) {
	rows, ok := a.tables[t]
	if !ok {
		return nil, fmt.Errorf("%w: unknown entity type %q", common.ErrValidation, t)
	}
	return rows, nil
}

// List returns all visible rows of one entity type, ordered by creation time.
func (a *Adapter) List(_ context.Context, t model.EntityType, tenantID string, opts storage.ListOptions) ([]model.Entity, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	rows, err := a.table(t)
	if err != nil {
		return nil, err
	}

	var result []model.Entity
	for _, e := range rows {
		meta := e.EntityMeta()
		if !visible(meta.TenantID, tenantID) {
			continue
		}
		if meta.IsDeleted && !opts.IncludeDeleted {
			continue
		}
		clone, err := storage.Clone(e)
		if err != nil {
			return nil, err
		}
		result = append(result, clone)
	}

	sort.Slice(result, func(i, j int) bool {
		mi, mj := result[i].EntityMeta(), result[j].EntityMeta()
		if !mi.CreatedAt.Equal(mj.CreatedAt) {
			return mi.CreatedAt.Before(mj.CreatedAt)
		}
		return mi.ID < mj.ID
	})
	return result, nil
}

// GetByID returns a single visible row, or NotFound.
func (a *Adapter) GetByID(_ context.Context, t model.EntityType, tenantID, id string) (model.Entity, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.getLocked(t, tenantID, id)
}

func (a *Adapter) getLocked(t model.EntityType, tenantID, id string) (model.Entity, error) {
	rows, err := a.table(t)
	if err != nil {
		return nil, err
	}
	e, ok := rows[id]
	if !ok || !visible(e.EntityMeta().TenantID, tenantID) {
		return nil, fmt.Errorf("%w: %s %s", common.ErrNotFound, t, id)
	}
	return storage.Clone(e)
}

// Insert stores a new row, generating id and timestamps when absent.
func (a *Adapter) Insert(_ context.Context, e model.Entity) (model.Entity, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rows, err := a.table(e.Type())
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

	stored, err := storage.Clone(e)
	if err != nil {
		return nil, err
	}
	rows[meta.ID] = stored
	return e, nil
}

// Update replaces a visible row identified by the entity's id and tenant.
func (a *Adapter) Update(_ context.Context, e model.Entity, actorID string) (model.Entity, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rows, err := a.table(e.Type())
	if err != nil {
		return nil, err
	}

	meta := e.EntityMeta()
	current, ok := rows[meta.ID]
	if !ok || !visible(current.EntityMeta().TenantID, meta.TenantID) {
		return nil, fmt.Errorf("%w: %s %s", common.ErrNotFound, e.Type(), meta.ID)
	}

	meta.Touch(actorID, time.Now().UTC())
	// Keep the stored row's tenant; a demo-sentinel row stays demo-owned.
	meta.TenantID = current.EntityMeta().TenantID

	stored, err := storage.Clone(e)
	if err != nil {
		return nil, err
	}
	rows[meta.ID] = stored
	return e, nil
}

// SoftDelete marks a row deleted and stamps the acting user.
func (a *Adapter) SoftDelete(ctx context.Context, t model.EntityType, tenantID, id, actorID string) error {
	return a.setDeleted(t, tenantID, id, actorID, true)
}

// Restore is the inverse of SoftDelete.
func (a *Adapter) Restore(ctx context.Context, t model.EntityType, tenantID, id, actorID string) error {
	return a.setDeleted(t, tenantID, id, actorID, false)
}

func (a *Adapter) setDeleted(t model.EntityType, tenantID, id, actorID string, deleted bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, err := a.getLocked(t, tenantID, id)
	if err != nil {
		return err
	}
	meta := e.EntityMeta()
	meta.IsDeleted = deleted
	meta.Touch(actorID, time.Now().UTC())

	rows, err := a.table(t)
	if err != nil {
		return err
	}
	rows[id] = e
	return nil
}
