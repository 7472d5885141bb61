package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/hollis/centavo/internal/common"
	"github.com/hollis/centavo/internal/model"
)

const defaultActor = "recurrence-engine"

// Engine scans active recurring templates and materializes the due ones.
type Engine struct {
	recurrings   RecurringStore
	transactions TransactionStore
	accounts     AccountStore
	estimator    AmountEstimator
	opts         Options
}

// New creates a recurrence engine. estimator may be nil, in which case
// flexible amounts fall back to the template's fixed amount.
func New(recurrings RecurringStore, transactions TransactionStore, accounts AccountStore, estimator AmountEstimator, opts Options) *Engine {
	if opts.CatchUp == "" {
		opts.CatchUp = CatchUpCollapse
	}
	if opts.ActorID == "" {
		opts.ActorID = defaultActor
	}
	return &Engine{
		recurrings:   recurrings,
		transactions: transactions,
		accounts:     accounts,
		estimator:    estimator,
		opts:         opts,
	}
}

// Applied describes one successfully materialized template.
type Applied struct {
	OccurrenceDate       time.Time
	NextOccurrenceDate   time.Time
	RecurringID          string
	Name                 string
	TransactionIDs       []string
	CollapsedOccurrences int
}

// SkipReason explains why a due template was not auto-applied.
type SkipReason string

const (
	// SkipManualConfirmation means auto-apply is disabled on the template.
	SkipManualConfirmation SkipReason = "manual confirmation required"
	// SkipFailureBackoff means the failure counter exhausted its budget and
	// needs a manual reset.
	SkipFailureBackoff SkipReason = "failure back-off"
)

// Skipped describes a due template that requires manual attention.
type Skipped struct {
	RecurringID string
	Name        string
	Reason      SkipReason
}

// Failure describes a template whose materialization failed. The scan
// continues past failures; they are reported, never thrown.
type Failure struct {
	Err         error
	RecurringID string
	Name        string
}

// Result is the outcome of one due scan.
type Result struct {
	Applied []Applied
	Skipped []Skipped
	Failed  []Failure
}

// ProcessDueRecurrings scans the tenant's active templates and materializes
// every due, auto-apply-eligible one. Calling it twice with the same now is
// idempotent: the first call advances each applied template past now, so the
// second finds nothing due, and partially materialized occurrences are
// completed rather than duplicated.
func (e *Engine) ProcessDueRecurrings(ctx context.Context, tenantID string, now time.Time) (*Result, error) {
	recs, err := e.recurrings.ListActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, r := range recs {
		if !e.isDue(r, now) {
			continue
		}
		if !r.AutoApplyEnabled {
			result.Skipped = append(result.Skipped, Skipped{RecurringID: r.ID, Name: r.Name, Reason: SkipManualConfirmation})
			continue
		}
		if r.AutoApplyBlocked() {
			result.Skipped = append(result.Skipped, Skipped{RecurringID: r.ID, Name: r.Name, Reason: SkipFailureBackoff})
			continue
		}

		applied, failure := e.apply(ctx, tenantID, r, now)
		if failure != nil {
			result.Failed = append(result.Failed, *failure)
			continue
		}
		result.Applied = append(result.Applied, *applied)
	}

	slog.Info("processed due recurrings",
		"tenant", tenantID,
		"applied", len(result.Applied),
		"skipped", len(result.Skipped),
		"failed", len(result.Failed))
	return result, nil
}

// ListPendingManual returns the due templates that will not auto-apply:
// templates with auto-apply disabled and templates in failure back-off.
func (e *Engine) ListPendingManual(ctx context.Context, tenantID string, now time.Time) ([]*model.Recurring, error) {
	recs, err := e.recurrings.ListActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	var pending []*model.Recurring
	for _, r := range recs {
		if e.isDue(r, now) && (!r.AutoApplyEnabled || r.AutoApplyBlocked()) {
			pending = append(pending, r)
		}
	}
	return pending, nil
}

// ApplyOne materializes a single template on explicit user confirmation,
// bypassing the auto-apply eligibility checks but not the due test.
func (e *Engine) ApplyOne(ctx context.Context, tenantID, recurringID string, now time.Time) (*Applied, error) {
	recs, err := e.recurrings.ListActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for _, r := range recs {
		if r.ID != recurringID {
			continue
		}
		if !e.isDue(r, now) {
			return nil, fmt.Errorf("%w: recurring %s is not due", common.ErrValidation, recurringID)
		}
		applied, failure := e.apply(ctx, tenantID, r, now)
		if failure != nil {
			return nil, failure.Err
		}
		return applied, nil
	}
	return nil, fmt.Errorf("%w: recurring %s", common.ErrNotFound, recurringID)
}

// isDue applies the due test. Date-flexible templates tolerate the
// configured day window, applying slightly early instead of flagging
// overdue.
func (e *Engine) isDue(r *model.Recurring, now time.Time) bool {
	deadline := now
	if r.IsDateFlexible {
		deadline = now.AddDate(0, 0, e.opts.DateFlexWindowDays)
	}
	return !r.NextOccurrenceDate.After(deadline)
}

// apply materializes one due template and advances its occurrence date. On
// write failure it increments the failure counter, leaves the occurrence
// date unchanged, and returns the failure for the result's failed list.
func (e *Engine) apply(ctx context.Context, tenantID string, r *model.Recurring, now time.Time) (*Applied, *Failure) {
	amount, err := e.resolveAmount(ctx, tenantID, r)
	if err != nil {
		// No write was attempted; report without burning a failure budget slot.
		return nil, &Failure{RecurringID: r.ID, Name: r.Name, Err: fmt.Errorf("%w: %v", common.ErrMaterialization, err)}
	}

	occurrence := r.NextOccurrenceDate
	elapsed := occurrencesElapsed(occurrence, now, r.IntervalMonths)

	var txnIDs []string
	collapsed := 0
	switch e.opts.CatchUp {
	case CatchUpBackfill:
		for i := 0; i < elapsed; i++ {
			ids, err := e.materializeOccurrence(ctx, tenantID, r, addMonths(occurrence, i*r.IntervalMonths), amount)
			if err != nil {
				return nil, e.recordWriteFailure(ctx, r, err)
			}
			txnIDs = append(txnIDs, ids...)
		}
	default:
		// Collapse: only the oldest pending occurrence becomes a
		// transaction; the silently skipped ones are recorded on the
		// failure counter so the history is observable without spam.
		ids, err := e.materializeOccurrence(ctx, tenantID, r, occurrence, amount)
		if err != nil {
			return nil, e.recordWriteFailure(ctx, r, err)
		}
		txnIDs = ids
		collapsed = elapsed - 1
		r.FailedAttempts += collapsed
	}

	r.NextOccurrenceDate = addMonths(occurrence, elapsed*r.IntervalMonths)
	appliedAt := now
	r.LastAutoAppliedAt = &appliedAt

	if _, err := e.recurrings.Update(ctx, e.opts.ActorID, r); err != nil {
		return nil, &Failure{RecurringID: r.ID, Name: r.Name,
			Err: fmt.Errorf("%w: failed to advance occurrence date: %v", common.ErrMaterialization, err)}
	}

	return &Applied{
		RecurringID:          r.ID,
		Name:                 r.Name,
		OccurrenceDate:       occurrence,
		NextOccurrenceDate:   r.NextOccurrenceDate,
		TransactionIDs:       txnIDs,
		CollapsedOccurrences: collapsed,
	}, nil
}

func (e *Engine) recordWriteFailure(ctx context.Context, r *model.Recurring, cause error) *Failure {
	r.FailedAttempts++
	if _, err := e.recurrings.Update(ctx, e.opts.ActorID, r); err != nil {
		slog.Error("failed to record materialization failure", "recurring_id", r.ID, "error", err)
	}
	return &Failure{RecurringID: r.ID, Name: r.Name,
		Err: fmt.Errorf("%w: %v", common.ErrMaterialization, cause)}
}

// materializeOccurrence creates the transactions for one occurrence,
// skipping any leg already written under the same (recurringID, occurrence)
// key. A previously half-written transfer pair is completed, never
// duplicated.
func (e *Engine) materializeOccurrence(ctx context.Context, tenantID string, r *model.Recurring, occurrence time.Time, amount float64) ([]string, error) {
	existing, err := e.transactions.FindByOccurrence(ctx, tenantID, r.ID, occurrence)
	if err != nil {
		return nil, err
	}
	written := make(map[string]string, len(existing))
	for _, t := range existing {
		written[t.AccountID] = t.ID
	}

	var ids []string
	for _, leg := range e.plannedLegs(r, occurrence, amount) {
		if id, ok := written[leg.AccountID]; ok {
			ids = append(ids, id)
			continue
		}
		created, err := e.transactions.Create(ctx, tenantID, e.opts.ActorID, leg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, created.ID)
	}
	return ids, nil
}

// plannedLegs builds the transactions one occurrence should produce.
func (e *Engine) plannedLegs(r *model.Recurring, occurrence time.Time, amount float64) []*model.Transaction {
	leg := func(accountID string, amount float64) *model.Transaction {
		return &model.Transaction{
			Date:           occurrence,
			OccurrenceDate: occurrence,
			AccountID:      accountID,
			CategoryID:     r.CategoryID,
			RecurringID:    r.ID,
			Notes:          r.Name,
			Amount:         amount,
		}
	}

	if r.RecurringType == model.RecurringStandard {
		return []*model.Transaction{leg(r.AccountID, amount)}
	}

	magnitude := math.Abs(amount)
	if magnitude == 0 {
		// Nothing outstanding to transfer this cycle.
		return nil
	}
	return []*model.Transaction{
		leg(r.AccountID, -magnitude),
		leg(r.TransferAccountID, magnitude),
	}
}

// resolveAmount picks the occurrence amount. Flexible templates draw from
// the estimator clamped to the template's tolerance range; credit card
// payments are additionally capped at the card's outstanding balance.
func (e *Engine) resolveAmount(ctx context.Context, tenantID string, r *model.Recurring) (float64, error) {
	amount := r.Amount
	if !r.IsAmountFlexible {
		return amount, nil
	}

	if e.estimator != nil {
		estimate, ok, err := e.estimator.EstimateAmount(ctx, tenantID, r.AccountID, r.CategoryID)
		if err != nil {
			return 0, fmt.Errorf("amount estimate failed: %w", err)
		}
		if ok {
			magnitude := math.Abs(estimate)
			if r.AmountMax > 0 {
				magnitude = clamp(magnitude, r.AmountMin, r.AmountMax)
			}
			amount = magnitude * signOf(r.Amount)
		}
	}

	if r.RecurringType == model.RecurringCreditCardPayment {
		card, err := e.accounts.Get(ctx, tenantID, r.TransferAccountID)
		if err != nil {
			return 0, fmt.Errorf("failed to resolve card account: %w", err)
		}
		outstanding := math.Max(0, -card.CurrentBalance)
		if math.Abs(amount) > outstanding {
			amount = outstanding * signOf(amount)
		}
	}
	return amount, nil
}

func clamp(v, low, high float64) float64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

func signOf(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
