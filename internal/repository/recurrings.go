package repository

import (
	"context"
	"sort"

	"github.com/hollis/centavo/internal/model"
	"github.com/hollis/centavo/internal/storage"
)

// RecurringRepository manages recurring templates and attaches their source
// account and category on reads.
type RecurringRepository struct {
	store storage.Adapter
}

// NewRecurringRepository creates a recurring repository over the given adapter.
func NewRecurringRepository(store storage.Adapter) *RecurringRepository {
	return &RecurringRepository{store: store}
}

// RecurringWithJoins pairs a recurring template with its resolved source
// account and category. Joined fields are nil when the reference dangles.
type RecurringWithJoins struct {
	Recurring *model.Recurring
	Account   *model.Account
	Category  *model.TransactionCategory
}

// List returns the tenant's recurring templates with joins attached, ordered
// by next occurrence.
func (r *RecurringRepository) List(ctx context.Context, tenantID string, showDeleted bool) ([]RecurringWithJoins, error) {
	recs, err := listAs[*model.Recurring](ctx, r.store, model.EntityRecurring, tenantID, showDeleted)
	if err != nil {
		return nil, err
	}

	result := make([]RecurringWithJoins, 0, len(recs))
	for _, rec := range recs {
		account, err := joinAs[*model.Account](ctx, r.store, model.EntityAccount, tenantID, rec.AccountID)
		if err != nil {
			return nil, err
		}
		category, err := joinAs[*model.TransactionCategory](ctx, r.store, model.EntityTransactionCategory, tenantID, rec.CategoryID)
		if err != nil {
			return nil, err
		}
		result = append(result, RecurringWithJoins{Recurring: rec, Account: account, Category: category})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Recurring.NextOccurrenceDate.Before(result[j].Recurring.NextOccurrenceDate)
	})
	return result, nil
}

// ListActive returns the tenant's active, non-deleted recurring templates.
// Inactive templates are excluded entirely from due scans.
func (r *RecurringRepository) ListActive(ctx context.Context, tenantID string) ([]*model.Recurring, error) {
	recs, err := listAs[*model.Recurring](ctx, r.store, model.EntityRecurring, tenantID, false)
	if err != nil {
		return nil, err
	}
	active := make([]*model.Recurring, 0, len(recs))
	for _, rec := range recs {
		if rec.IsActive {
			active = append(active, rec)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].NextOccurrenceDate.Before(active[j].NextOccurrenceDate)
	})
	return active, nil
}

// FindByID returns one recurring template with joins attached.
func (r *RecurringRepository) FindByID(ctx context.Context, tenantID, id string) (*RecurringWithJoins, error) {
	rec, err := getAs[*model.Recurring](ctx, r.store, model.EntityRecurring, tenantID, id)
	if err != nil {
		return nil, err
	}
	account, err := joinAs[*model.Account](ctx, r.store, model.EntityAccount, tenantID, rec.AccountID)
	if err != nil {
		return nil, err
	}
	category, err := joinAs[*model.TransactionCategory](ctx, r.store, model.EntityTransactionCategory, tenantID, rec.CategoryID)
	if err != nil {
		return nil, err
	}
	return &RecurringWithJoins{Recurring: rec, Account: account, Category: category}, nil
}

// Create validates and stores a new recurring template.
func (r *RecurringRepository) Create(ctx context.Context, tenantID, actorID string, rec *model.Recurring) (*model.Recurring, error) {
	return create(ctx, r.store, tenantID, actorID, rec)
}

// Update validates and stores changes to a recurring template.
func (r *RecurringRepository) Update(ctx context.Context, actorID string, rec *model.Recurring) (*model.Recurring, error) {
	return update(ctx, r.store, actorID, rec)
}

// ResetFailures clears the failure counter on a recurring template, making
// it eligible for auto-apply again. This is the explicit manual reset the
// back-off requires.
func (r *RecurringRepository) ResetFailures(ctx context.Context, tenantID, id, actorID string) (*model.Recurring, error) {
	rec, err := getAs[*model.Recurring](ctx, r.store, model.EntityRecurring, tenantID, id)
	if err != nil {
		return nil, err
	}
	rec.FailedAttempts = 0
	return update(ctx, r.store, actorID, rec)
}

// SoftDelete marks a recurring template deleted.
func (r *RecurringRepository) SoftDelete(ctx context.Context, tenantID, id, actorID string) error {
	return r.store.SoftDelete(ctx, model.EntityRecurring, tenantID, id, actorID)
}

// Restore brings a soft-deleted recurring template back.
func (r *RecurringRepository) Restore(ctx context.Context, tenantID, id, actorID string) error {
	return r.store.Restore(ctx, model.EntityRecurring, tenantID, id, actorID)
}
