package repository

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/hollis/centavo/internal/common"
	"github.com/hollis/centavo/internal/model"
	"github.com/hollis/centavo/internal/storage"
)

// TransactionRepository manages ledger transactions and keeps account running
// balances in step with writes.
type TransactionRepository struct {
	store storage.Adapter
}

// NewTransactionRepository creates a transaction repository over the given adapter.
func NewTransactionRepository(store storage.Adapter) *TransactionRepository {
	return &TransactionRepository{store: store}
}

// TransactionWithJoins pairs a transaction with its resolved account and
// category. Joined fields are nil when the reference dangles.
type TransactionWithJoins struct {
	Transaction *model.Transaction
	Account     *model.Account
	Category    *model.TransactionCategory
}

// List returns the tenant's transactions with account and category attached,
// newest first.
func (r *TransactionRepository) List(ctx context.Context, tenantID string, showDeleted bool) ([]TransactionWithJoins, error) {
	txns, err := listAs[*model.Transaction](ctx, r.store, model.EntityTransaction, tenantID, showDeleted)
	if err != nil {
		return nil, err
	}

	result := make([]TransactionWithJoins, 0, len(txns))
	for _, t := range txns {
		account, err := joinAs[*model.Account](ctx, r.store, model.EntityAccount, tenantID, t.AccountID)
		if err != nil {
			return nil, err
		}
		category, err := joinAs[*model.TransactionCategory](ctx, r.store, model.EntityTransactionCategory, tenantID, t.CategoryID)
		if err != nil {
			return nil, err
		}
		result = append(result, TransactionWithJoins{Transaction: t, Account: account, Category: category})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Transaction.Date.After(result[j].Transaction.Date)
	})
	return result, nil
}

// FindByID returns one transaction with joins attached.
func (r *TransactionRepository) FindByID(ctx context.Context, tenantID, id string) (*TransactionWithJoins, error) {
	t, err := getAs[*model.Transaction](ctx, r.store, model.EntityTransaction, tenantID, id)
	if err != nil {
		return nil, err
	}
	account, err := joinAs[*model.Account](ctx, r.store, model.EntityAccount, tenantID, t.AccountID)
	if err != nil {
		return nil, err
	}
	category, err := joinAs[*model.TransactionCategory](ctx, r.store, model.EntityTransactionCategory, tenantID, t.CategoryID)
	if err != nil {
		return nil, err
	}
	return &TransactionWithJoins{Transaction: t, Account: account, Category: category}, nil
}

// FindByOccurrence returns the transactions materialized from one recurring
// occurrence. This is the idempotency lookup for recurrence processing:
// key (recurringID, occurrenceDate).
func (r *TransactionRepository) FindByOccurrence(ctx context.Context, tenantID, recurringID string, occurrence time.Time) ([]*model.Transaction, error) {
	txns, err := listAs[*model.Transaction](ctx, r.store, model.EntityTransaction, tenantID, false)
	if err != nil {
		return nil, err
	}
	var result []*model.Transaction
	for _, t := range txns {
		if t.RecurringID == recurringID && t.OccurrenceDate.Equal(occurrence) {
			result = append(result, t)
		}
	}
	return result, nil
}

// Create validates and stores a new transaction, then nudges the affected
// account's running balance. The balance update is best effort; a failure is
// logged and left for RecomputeBalance since the ledger itself is the source
// of truth.
func (r *TransactionRepository) Create(ctx context.Context, tenantID, actorID string, t *model.Transaction) (*model.Transaction, error) {
	stored, err := create(ctx, r.store, tenantID, actorID, t)
	if err != nil {
		return nil, err
	}
	r.adjustBalance(ctx, tenantID, actorID, stored.AccountID, stored.Amount)
	return stored, nil
}

// Update validates and stores changes to a transaction.
func (r *TransactionRepository) Update(ctx context.Context, actorID string, t *model.Transaction) (*model.Transaction, error) {
	return update(ctx, r.store, actorID, t)
}

// SoftDelete marks a transaction deleted and backs its amount out of the
// account balance.
func (r *TransactionRepository) SoftDelete(ctx context.Context, tenantID, id, actorID string) error {
	t, err := getAs[*model.Transaction](ctx, r.store, model.EntityTransaction, tenantID, id)
	if err != nil {
		return err
	}
	if err := r.store.SoftDelete(ctx, model.EntityTransaction, tenantID, id, actorID); err != nil {
		return err
	}
	r.adjustBalance(ctx, tenantID, actorID, t.AccountID, -t.Amount)
	return nil
}

// Restore brings a soft-deleted transaction back and re-applies its amount.
func (r *TransactionRepository) Restore(ctx context.Context, tenantID, id, actorID string) error {
	if err := r.store.Restore(ctx, model.EntityTransaction, tenantID, id, actorID); err != nil {
		return err
	}
	t, err := getAs[*model.Transaction](ctx, r.store, model.EntityTransaction, tenantID, id)
	if err != nil {
		return err
	}
	r.adjustBalance(ctx, tenantID, actorID, t.AccountID, t.Amount)
	return nil
}

func (r *TransactionRepository) adjustBalance(ctx context.Context, tenantID, actorID, accountID string, delta float64) {
	account, err := getAs[*model.Account](ctx, r.store, model.EntityAccount, tenantID, accountID)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			slog.Warn("failed to load account for balance update", "account_id", accountID, "error", err)
		}
		return
	}
	account.CurrentBalance += delta
	if _, err := r.store.Update(ctx, account, actorID); err != nil {
		slog.Warn("failed to update account balance", "account_id", accountID, "error", err)
	}
}

// RecomputeBalance rebuilds an account's running balance from its opening
// balance and the full set of non-deleted transactions, and stores the
// result. Returns the recomputed balance.
func (r *TransactionRepository) RecomputeBalance(ctx context.Context, tenantID, accountID, actorID string) (float64, error) {
	account, err := getAs[*model.Account](ctx, r.store, model.EntityAccount, tenantID, accountID)
	if err != nil {
		return 0, err
	}

	txns, err := listAs[*model.Transaction](ctx, r.store, model.EntityTransaction, tenantID, false)
	if err != nil {
		return 0, err
	}

	balance := account.OpeningBalance
	for _, t := range txns {
		if t.AccountID == accountID {
			balance += t.Amount
		}
	}

	account.CurrentBalance = balance
	if _, err := r.store.Update(ctx, account, actorID); err != nil {
		return 0, err
	}
	return balance, nil
}
