package porter

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hollis/centavo/internal/model"
	"github.com/hollis/centavo/internal/storage"
)

// Exporter produces a full-tenant payload suitable for re-import.
type Exporter struct {
	store storage.Adapter
}

// NewExporter creates an exporter over the given adapter.
func NewExporter(store storage.Adapter) *Exporter {
	return &Exporter{store: store}
}

// Export snapshots every table for the tenant, soft-deleted rows included,
// so a re-import restores the full state. Tables are read concurrently.
func (ex *Exporter) Export(ctx context.Context, tenantID string) (*Payload, error) {
	payload := &Payload{
		Version: FormatVersion,
		Tables:  make(map[string][]map[string]any, len(model.EntityTypes)),
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range model.EntityTypes {
		t := t
		g.Go(func() error {
			entities, err := ex.store.List(ctx, t, tenantID, storage.ListOptions{IncludeDeleted: true})
			if err != nil {
				return err
			}
			rows := make([]map[string]any, 0, len(entities))
			for _, e := range entities {
				row, err := encodeRow(e)
				if err != nil {
					return err
				}
				rows = append(rows, row)
			}
			mu.Lock()
			payload.Tables[string(t)] = rows
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return payload, nil
}
