package engine

import (
	"context"
	"math"
	"sort"

	"github.com/hollis/centavo/internal/model"
	"github.com/hollis/centavo/internal/storage"
)

const defaultEstimateWindow = 3

// HistoryEstimator estimates flexible amounts by averaging the most recent
// transaction magnitudes on the template's account and category.
type HistoryEstimator struct {
	store  storage.Adapter
	window int
}

// NewHistoryEstimator creates an estimator over the given adapter. window is
// the number of recent transactions to average; values below 1 use the
// default of 3.
func NewHistoryEstimator(store storage.Adapter, window int) *HistoryEstimator {
	if window < 1 {
		window = defaultEstimateWindow
	}
	return &HistoryEstimator{store: store, window: window}
}

// EstimateAmount returns the average magnitude of the most recent matching
// transactions. ok=false when no history exists for the account and category.
func (h *HistoryEstimator) EstimateAmount(ctx context.Context, tenantID, accountID, categoryID string) (float64, bool, error) {
	entities, err := h.store.List(ctx, model.EntityTransaction, tenantID, storage.ListOptions{})
	if err != nil {
		return 0, false, err
	}

	var matches []*model.Transaction
	for _, e := range entities {
		t, ok := e.(*model.Transaction)
		if !ok {
			continue
		}
		if t.AccountID != accountID {
			continue
		}
		if categoryID != "" && t.CategoryID != categoryID {
			continue
		}
		matches = append(matches, t)
	}
	if len(matches) == 0 {
		return 0, false, nil
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Date.After(matches[j].Date)
	})
	if len(matches) > h.window {
		matches = matches[:h.window]
	}

	var total float64
	for _, t := range matches {
		total += math.Abs(t.Amount)
	}
	return total / float64(len(matches)), true, nil
}
