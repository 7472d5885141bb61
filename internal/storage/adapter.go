// Package storage defines the capability interface implemented once per
// physical backend: cloud (PostgreSQL), local (SQLite), and demo (in-memory).
// The repository layer depends only on this interface, never on a concrete
// backend.
package storage

import (
	"context"

	"github.com/hollis/centavo/internal/model"
)

// ListOptions controls list queries. The zero value excludes soft-deleted
// rows, which is the default everywhere.
type ListOptions struct {
	IncludeDeleted bool
}

// Adapter is the storage capability contract. Every operation is
// tenant-scoped: a row whose tenant does not match the caller is invisible
// and untouchable, and attempts against it yield NotFound rather than a
// permission-differentiated error.
type Adapter interface {
	// List returns all rows of one entity type for a tenant, soft-deleted
	// rows excluded unless opts.IncludeDeleted is set.
	List(ctx context.Context, t model.EntityType, tenantID string, opts ListOptions) ([]model.Entity, error)

	// GetByID returns a single row, or NotFound on id/tenant mismatch.
	GetByID(ctx context.Context, t model.EntityType, tenantID, id string) (model.Entity, error)

	// Insert stores a new row, generating id and timestamps when absent,
	// and returns the stored entity.
	Insert(ctx context.Context, e model.Entity) (model.Entity, error)

	// Update replaces a row identified by the entity's id and tenant. The
	// cloud backend additionally enforces optimistic concurrency on the
	// entity's version and fails with Conflict when it is stale.
	Update(ctx context.Context, e model.Entity, actorID string) (model.Entity, error)

	// SoftDelete marks a row deleted and stamps the acting user.
	SoftDelete(ctx context.Context, t model.EntityType, tenantID, id, actorID string) error

	// Restore is the inverse of SoftDelete.
	Restore(ctx context.Context, t model.EntityType, tenantID, id, actorID string) error

	// Migrate applies pending schema migrations. It must run before any
	// other operation and is idempotent.
	Migrate(ctx context.Context) error

	Close() error
}
