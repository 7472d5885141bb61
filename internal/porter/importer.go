package porter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hollis/centavo/internal/common"
	"github.com/hollis/centavo/internal/model"
	"github.com/hollis/centavo/internal/repository"
	"github.com/hollis/centavo/internal/storage"
)

// ImportSummary reports the outcome of one import batch. Valid rows commit
// even when siblings fail; there is no all-or-nothing abort.
type ImportSummary struct {
	Errors    []RowResult
	Warnings  []string
	Succeeded int
	Skipped   int
}

// Importer validates a payload and applies it through the repository layer.
type Importer struct {
	provider *repository.Provider
}

// NewImporter creates an importer over the active repositories.
func NewImporter(provider *repository.Provider) *Importer {
	return &Importer{provider: provider}
}

// ExistingIDs collects the ids already present in the target store, per
// table, soft-deleted rows included. Validation uses it for new-vs-update
// classification and reference resolution.
func (im *Importer) ExistingIDs(ctx context.Context, tenantID string) (map[string]map[string]bool, error) {
	existing := make(map[string]map[string]bool, len(model.EntityTypes))
	store := im.provider.Store()
	for _, t := range model.EntityTypes {
		rows, err := store.List(ctx, t, tenantID, storage.ListOptions{IncludeDeleted: true})
		if err != nil {
			return nil, err
		}
		ids := make(map[string]bool, len(rows))
		for _, e := range rows {
			ids[e.EntityMeta().ID] = true
		}
		existing[string(t)] = ids
	}
	return existing, nil
}

// Import validates the payload and applies every valid row, table by table
// in dependency order. Invalid rows are skipped and reported.
func (im *Importer) Import(ctx context.Context, tenantID, actorID string, payload *Payload) (*ImportSummary, error) {
	existing, err := im.ExistingIDs(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	validation := Validate(payload, existing)
	if !validation.OK() {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, validation.Errors)
	}

	summary := &ImportSummary{Warnings: validation.Warnings}
	byTable := make(map[string][]RowResult)
	for _, rr := range validation.Rows {
		byTable[rr.Table] = append(byTable[rr.Table], rr)
	}

	for _, t := range model.EntityTypes {
		for _, rr := range byTable[string(t)] {
			if rr.Status == RowError {
				summary.Skipped++
				summary.Errors = append(summary.Errors, rr)
				continue
			}

			e, err := decodeRow(t, payload.Tables[string(t)][rr.Index])
			if err != nil {
				// Validation decoded this row already; a failure here means
				// the payload changed under us.
				return nil, fmt.Errorf("%w: row %s[%d]: %v", common.ErrValidation, t, rr.Index, err)
			}

			if err := im.applyRow(ctx, tenantID, actorID, rr.Status, e); err != nil {
				rr.Status = RowError
				rr.Errors = append(rr.Errors, err.Error())
				summary.Skipped++
				summary.Errors = append(summary.Errors, rr)
				continue
			}
			summary.Succeeded++
		}
	}

	slog.Info("import complete",
		"tenant", tenantID,
		"succeeded", summary.Succeeded,
		"skipped", summary.Skipped)
	return summary, nil
}

func (im *Importer) applyRow(ctx context.Context, tenantID, actorID string, status RowStatus, e model.Entity) error {
	if status == RowUpdate {
		// Carry over the stored row's creation audit and concurrency
		// version; the payload only supplies business fields.
		current, err := im.provider.Store().GetByID(ctx, e.Type(), tenantID, e.EntityMeta().ID)
		if err != nil {
			return err
		}
		currentMeta := current.EntityMeta()
		meta := e.EntityMeta()
		meta.TenantID = tenantID
		meta.CreatedAt = currentMeta.CreatedAt
		meta.CreatedBy = currentMeta.CreatedBy
		meta.Version = currentMeta.Version
		return im.updateRow(ctx, actorID, e)
	}
	return im.createRow(ctx, tenantID, actorID, e)
}

func (im *Importer) createRow(ctx context.Context, tenantID, actorID string, e model.Entity) error {
	var err error
	switch v := e.(type) {
	case *model.AccountCategory:
		_, err = im.provider.AccountCategories().Create(ctx, tenantID, actorID, v)
	case *model.TransactionGroup:
		_, err = im.provider.TransactionGroups().Create(ctx, tenantID, actorID, v)
	case *model.TransactionCategory:
		_, err = im.provider.TransactionCategories().Create(ctx, tenantID, actorID, v)
	case *model.Account:
		_, err = im.provider.Accounts().Create(ctx, tenantID, actorID, v)
	case *model.Transaction:
		_, err = im.provider.Transactions().Create(ctx, tenantID, actorID, v)
	case *model.Recurring:
		_, err = im.provider.Recurrings().Create(ctx, tenantID, actorID, v)
	default:
		err = fmt.Errorf("%w: unsupported entity %T", common.ErrValidation, e)
	}
	return err
}

func (im *Importer) updateRow(ctx context.Context, actorID string, e model.Entity) error {
	var err error
	switch v := e.(type) {
	case *model.AccountCategory:
		_, err = im.provider.AccountCategories().Update(ctx, actorID, v)
	case *model.TransactionGroup:
		_, err = im.provider.TransactionGroups().Update(ctx, actorID, v)
	case *model.TransactionCategory:
		_, err = im.provider.TransactionCategories().Update(ctx, actorID, v)
	case *model.Account:
		_, err = im.provider.Accounts().Update(ctx, actorID, v)
	case *model.Transaction:
		_, err = im.provider.Transactions().Update(ctx, actorID, v)
	case *model.Recurring:
		_, err = im.provider.Recurrings().Update(ctx, actorID, v)
	default:
		err = fmt.Errorf("%w: unsupported entity %T", common.ErrValidation, e)
	}
	return err
}
