package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/hollis/centavo/internal/model"
)

type mockRecurringStore struct {
	updateErr error
	recs      []*model.Recurring
	updates   []*model.Recurring
}

func (m *mockRecurringStore) ListActive(_ context.Context, _ string) ([]*model.Recurring, error) {
	return m.recs, nil
}

func (m *mockRecurringStore) Update(_ context.Context, _ string, rec *model.Recurring) (*model.Recurring, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	m.updates = append(m.updates, rec)
	return rec, nil
}

type mockTransactionStore struct {
	createErr error
	// failAfter fails creation once n legs have been written; -1 never fails.
	failAfter int
	existing  []*model.Transaction
	created   []*model.Transaction
	nextID    int
}

func newMockTransactionStore() *mockTransactionStore {
	return &mockTransactionStore{failAfter: -1}
}

func (m *mockTransactionStore) Create(_ context.Context, tenantID, _ string, t *model.Transaction) (*model.Transaction, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.failAfter >= 0 && len(m.created) >= m.failAfter {
		return nil, fmt.Errorf("write refused")
	}
	m.nextID++
	t.ID = fmt.Sprintf("txn-%d", m.nextID)
	t.TenantID = tenantID
	m.created = append(m.created, t)
	return t, nil
}

func (m *mockTransactionStore) FindByOccurrence(_ context.Context, _ string, recurringID string, occurrence time.Time) ([]*model.Transaction, error) {
	var result []*model.Transaction
	for _, t := range append(m.existing, m.created...) {
		if t.RecurringID == recurringID && t.OccurrenceDate.Equal(occurrence) {
			result = append(result, t)
		}
	}
	return result, nil
}

type mockAccountStore struct {
	accounts map[string]*model.Account
}

func (m *mockAccountStore) Get(_ context.Context, _ string, id string) (*model.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %s not found", id)
	}
	return a, nil
}

type mockEstimator struct {
	err    error
	amount float64
	ok     bool
}

func (m *mockEstimator) EstimateAmount(_ context.Context, _, _, _ string) (float64, bool, error) {
	return m.amount, m.ok, m.err
}
