// Package repository provides the backend-agnostic facade per entity type.
// Repositories compose over a single injected storage adapter and add join
// resolution, default soft-delete filtering, and grouping helpers. They
// never depend on a concrete backend.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/hollis/centavo/internal/common"
	"github.com/hollis/centavo/internal/model"
	"github.com/hollis/centavo/internal/storage"
)

func listAs[T model.Entity](ctx context.Context, store storage.Adapter, t model.EntityType, tenantID string, showDeleted bool) ([]T, error) {
	rows, err := store.List(ctx, t, tenantID, storage.ListOptions{IncludeDeleted: showDeleted})
	if err != nil {
		return nil, err
	}
	result := make([]T, 0, len(rows))
	for _, e := range rows {
		v, ok := e.(T)
		if !ok {
			return nil, fmt.Errorf("unexpected %s entity of type %T", t, e)
		}
		result = append(result, v)
	}
	return result, nil
}

func getAs[T model.Entity](ctx context.Context, store storage.Adapter, t model.EntityType, tenantID, id string) (T, error) {
	var zero T
	e, err := store.GetByID(ctx, t, tenantID, id)
	if err != nil {
		return zero, err
	}
	v, ok := e.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected %s entity of type %T", t, e)
	}
	return v, nil
}

// joinAs resolves a foreign reference. A missing foreign row yields nil, not
// an error; dangling references from partial imports are tolerated.
func joinAs[T model.Entity](ctx context.Context, store storage.Adapter, t model.EntityType, tenantID, id string) (T, error) {
	var zero T
	if id == "" {
		return zero, nil
	}
	v, err := getAs[T](ctx, store, t, tenantID, id)
	if errors.Is(err, common.ErrNotFound) {
		return zero, nil
	}
	if err != nil {
		return zero, err
	}
	return v, nil
}

func create[T model.Entity](ctx context.Context, store storage.Adapter, tenantID, actorID string, e T) (T, error) {
	var zero T
	meta := e.EntityMeta()
	meta.TenantID = tenantID
	meta.CreatedBy = actorID
	if err := e.Validate(); err != nil {
		return zero, err
	}
	stored, err := store.Insert(ctx, e)
	if err != nil {
		return zero, err
	}
	return stored.(T), nil
}

func update[T model.Entity](ctx context.Context, store storage.Adapter, actorID string, e T) (T, error) {
	var zero T
	if err := e.Validate(); err != nil {
		return zero, err
	}
	stored, err := store.Update(ctx, e, actorID)
	if err != nil {
		return zero, err
	}
	return stored.(T), nil
}
