// Package engine materializes due recurring templates into concrete
// transactions. It is invoked by an external trigger (app foreground, manual
// refresh, periodic timer); it never schedules itself.
package engine

import (
	"context"
	"time"

	"github.com/hollis/centavo/internal/model"
)

// RecurringStore is the slice of the recurring repository the engine needs.
type RecurringStore interface {
	ListActive(ctx context.Context, tenantID string) ([]*model.Recurring, error)
	Update(ctx context.Context, actorID string, rec *model.Recurring) (*model.Recurring, error)
}

// TransactionStore is the slice of the transaction repository the engine needs.
type TransactionStore interface {
	Create(ctx context.Context, tenantID, actorID string, t *model.Transaction) (*model.Transaction, error)
	FindByOccurrence(ctx context.Context, tenantID, recurringID string, occurrence time.Time) ([]*model.Transaction, error)
}

// AccountStore resolves accounts; the engine needs it for credit card
// outstanding balances.
type AccountStore interface {
	Get(ctx context.Context, tenantID, id string) (*model.Account, error)
}

// AmountEstimator supplies the historical-average amount for flexible
// recurrings. The engine only enforces the template's tolerance bound; the
// estimate itself is a collaborator concern. ok=false means no estimate is
// available and the fixed amount is used.
type AmountEstimator interface {
	EstimateAmount(ctx context.Context, tenantID, accountID, categoryID string) (amount float64, ok bool, err error)
}

// CatchUpPolicy decides how missed occurrences are handled.
type CatchUpPolicy string

const (
	// CatchUpCollapse materializes only the oldest pending occurrence and
	// counts the other missed ones into FailedAttempts, avoiding 1:1
	// transaction spam after a long absence.
	CatchUpCollapse CatchUpPolicy = "collapse"
	// CatchUpBackfill materializes every missed occurrence.
	CatchUpBackfill CatchUpPolicy = "backfill"
)

// IsValid returns true if the policy is one of the known values.
func (p CatchUpPolicy) IsValid() bool {
	return p == CatchUpCollapse || p == CatchUpBackfill
}

// Options tunes engine behavior.
type Options struct {
	// CatchUp selects the missed-occurrence policy. Default collapse.
	CatchUp CatchUpPolicy
	// DateFlexWindowDays is the tolerance window applied to the due test of
	// date-flexible templates.
	DateFlexWindowDays int
	// ActorID stamps the audit fields of engine-created rows.
	ActorID string
}
