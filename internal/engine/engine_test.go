package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollis/centavo/internal/common"
	"github.com/hollis/centavo/internal/model"
)

const testTenant = "tenant-1"

func standardRecurring() *model.Recurring {
	return &model.Recurring{
		Meta:               model.Meta{ID: "rec-1", TenantID: testTenant},
		Name:               "Rent",
		AccountID:          "acct-checking",
		RecurringType:      model.RecurringStandard,
		Amount:             -1200,
		IntervalMonths:     1,
		NextOccurrenceDate: date(2025, time.January, 1),
		MaxFailedAttempts:  3,
		AutoApplyEnabled:   true,
		IsActive:           true,
	}
}

func transferRecurring() *model.Recurring {
	r := standardRecurring()
	r.ID = "rec-2"
	r.Name = "Savings"
	r.RecurringType = model.RecurringTransfer
	r.TransferAccountID = "acct-savings"
	r.Amount = -500
	return r
}

func TestProcessDueRecurringsCollapse(t *testing.T) {
	recs := &mockRecurringStore{recs: []*model.Recurring{standardRecurring()}}
	txns := newMockTransactionStore()
	e := New(recs, txns, &mockAccountStore{}, nil, Options{})

	result, err := e.ProcessDueRecurrings(context.Background(), testTenant, date(2025, time.April, 15))
	require.NoError(t, err)
	require.Len(t, result.Applied, 1)
	assert.Empty(t, result.Skipped)
	assert.Empty(t, result.Failed)

	// Three occurrences elapsed; collapse writes one transaction dated at the
	// oldest pending occurrence and counts the other two as failures.
	require.Len(t, txns.created, 1)
	assert.Equal(t, date(2025, time.January, 1), txns.created[0].Date)
	assert.Equal(t, -1200.0, txns.created[0].Amount)
	assert.Equal(t, "rec-1", txns.created[0].RecurringID)

	applied := result.Applied[0]
	assert.Equal(t, date(2025, time.April, 1), applied.NextOccurrenceDate)
	assert.Equal(t, 2, applied.CollapsedOccurrences)

	require.Len(t, recs.updates, 1)
	assert.Equal(t, 2, recs.updates[0].FailedAttempts)
	assert.Equal(t, date(2025, time.April, 1), recs.updates[0].NextOccurrenceDate)
	require.NotNil(t, recs.updates[0].LastAutoAppliedAt)
}

func TestProcessDueRecurringsBackfill(t *testing.T) {
	recs := &mockRecurringStore{recs: []*model.Recurring{standardRecurring()}}
	txns := newMockTransactionStore()
	e := New(recs, txns, &mockAccountStore{}, nil, Options{CatchUp: CatchUpBackfill})

	result, err := e.ProcessDueRecurrings(context.Background(), testTenant, date(2025, time.April, 15))
	require.NoError(t, err)
	require.Len(t, result.Applied, 1)

	require.Len(t, txns.created, 3)
	assert.Equal(t, date(2025, time.January, 1), txns.created[0].Date)
	assert.Equal(t, date(2025, time.February, 1), txns.created[1].Date)
	assert.Equal(t, date(2025, time.March, 1), txns.created[2].Date)
	assert.Equal(t, 0, recs.updates[0].FailedAttempts)
	assert.Equal(t, date(2025, time.April, 1), recs.updates[0].NextOccurrenceDate)
}

func TestProcessDueRecurringsNotDue(t *testing.T) {
	r := standardRecurring()
	r.NextOccurrenceDate = date(2025, time.June, 1)
	recs := &mockRecurringStore{recs: []*model.Recurring{r}}
	txns := newMockTransactionStore()
	e := New(recs, txns, &mockAccountStore{}, nil, Options{})

	result, err := e.ProcessDueRecurrings(context.Background(), testTenant, date(2025, time.May, 15))
	require.NoError(t, err)
	assert.Empty(t, result.Applied)
	assert.Empty(t, result.Skipped)
	assert.Empty(t, txns.created)
}

func TestProcessDueRecurringsIdempotent(t *testing.T) {
	recs := &mockRecurringStore{recs: []*model.Recurring{standardRecurring()}}
	txns := newMockTransactionStore()
	e := New(recs, txns, &mockAccountStore{}, nil, Options{})
	now := date(2025, time.January, 10)

	_, err := e.ProcessDueRecurrings(context.Background(), testTenant, now)
	require.NoError(t, err)
	_, err = e.ProcessDueRecurrings(context.Background(), testTenant, now)
	require.NoError(t, err)

	// The first run advanced past now, so the second finds nothing due.
	assert.Len(t, txns.created, 1)
}

func TestProcessDueRecurringsManualConfirmation(t *testing.T) {
	r := standardRecurring()
	r.AutoApplyEnabled = false
	recs := &mockRecurringStore{recs: []*model.Recurring{r}}
	txns := newMockTransactionStore()
	e := New(recs, txns, &mockAccountStore{}, nil, Options{})

	result, err := e.ProcessDueRecurrings(context.Background(), testTenant, date(2025, time.January, 5))
	require.NoError(t, err)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, SkipManualConfirmation, result.Skipped[0].Reason)
	assert.Empty(t, txns.created)
}

func TestProcessDueRecurringsFailureBackoff(t *testing.T) {
	r := standardRecurring()
	r.FailedAttempts = 3
	recs := &mockRecurringStore{recs: []*model.Recurring{r}}
	txns := newMockTransactionStore()
	e := New(recs, txns, &mockAccountStore{}, nil, Options{})

	result, err := e.ProcessDueRecurrings(context.Background(), testTenant, date(2025, time.January, 5))
	require.NoError(t, err)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, SkipFailureBackoff, result.Skipped[0].Reason)
	assert.Empty(t, txns.created)
}

func TestProcessDueRecurringsWriteFailure(t *testing.T) {
	recs := &mockRecurringStore{recs: []*model.Recurring{standardRecurring()}}
	txns := newMockTransactionStore()
	txns.createErr = errors.New("backend gone")
	e := New(recs, txns, &mockAccountStore{}, nil, Options{})

	result, err := e.ProcessDueRecurrings(context.Background(), testTenant, date(2025, time.January, 5))
	require.NoError(t, err)
	require.Len(t, result.Failed, 1)
	assert.ErrorIs(t, result.Failed[0].Err, common.ErrMaterialization)

	// The failure is recorded on the template; the occurrence date holds.
	require.Len(t, recs.updates, 1)
	assert.Equal(t, 1, recs.updates[0].FailedAttempts)
	assert.Equal(t, date(2025, time.January, 1), recs.updates[0].NextOccurrenceDate)
}

func TestProcessDueRecurringsFailureDoesNotStopScan(t *testing.T) {
	broken := standardRecurring()
	broken.ID = "rec-broken"
	broken.IsAmountFlexible = true
	healthy := transferRecurring()

	recs := &mockRecurringStore{recs: []*model.Recurring{broken, healthy}}
	txns := newMockTransactionStore()
	estimator := &mockEstimator{err: errors.New("history unavailable")}
	e := New(recs, txns, &mockAccountStore{}, estimator, Options{})

	result, err := e.ProcessDueRecurrings(context.Background(), testTenant, date(2025, time.January, 5))
	require.NoError(t, err)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "rec-broken", result.Failed[0].RecurringID)
	require.Len(t, result.Applied, 1)
	assert.Equal(t, "rec-2", result.Applied[0].RecurringID)
}

func TestEstimatorErrorDoesNotBurnFailureBudget(t *testing.T) {
	r := standardRecurring()
	r.IsAmountFlexible = true
	recs := &mockRecurringStore{recs: []*model.Recurring{r}}
	estimator := &mockEstimator{err: errors.New("history unavailable")}
	e := New(recs, newMockTransactionStore(), &mockAccountStore{}, estimator, Options{})

	result, err := e.ProcessDueRecurrings(context.Background(), testTenant, date(2025, time.January, 5))
	require.NoError(t, err)
	require.Len(t, result.Failed, 1)
	// No write was attempted, so the counter is untouched.
	assert.Empty(t, recs.updates)
	assert.Equal(t, 0, r.FailedAttempts)
}

func TestTransferCreatesPairedLegs(t *testing.T) {
	recs := &mockRecurringStore{recs: []*model.Recurring{transferRecurring()}}
	txns := newMockTransactionStore()
	e := New(recs, txns, &mockAccountStore{}, nil, Options{})

	result, err := e.ProcessDueRecurrings(context.Background(), testTenant, date(2025, time.January, 1))
	require.NoError(t, err)
	require.Len(t, result.Applied, 1)

	require.Len(t, txns.created, 2)
	assert.Equal(t, "acct-checking", txns.created[0].AccountID)
	assert.Equal(t, -500.0, txns.created[0].Amount)
	assert.Equal(t, "acct-savings", txns.created[1].AccountID)
	assert.Equal(t, 500.0, txns.created[1].Amount)
}

func TestTransferCompletesPartialPair(t *testing.T) {
	r := transferRecurring()
	recs := &mockRecurringStore{recs: []*model.Recurring{r}}
	txns := newMockTransactionStore()
	txns.existing = []*model.Transaction{{
		Meta:           model.Meta{ID: "txn-old", TenantID: testTenant},
		AccountID:      "acct-checking",
		RecurringID:    r.ID,
		OccurrenceDate: date(2025, time.January, 1),
		Amount:         -500,
	}}
	e := New(recs, txns, &mockAccountStore{}, nil, Options{})

	result, err := e.ProcessDueRecurrings(context.Background(), testTenant, date(2025, time.January, 1))
	require.NoError(t, err)
	require.Len(t, result.Applied, 1)

	// Only the missing destination leg is written; the surviving source leg
	// is reported, not duplicated.
	require.Len(t, txns.created, 1)
	assert.Equal(t, "acct-savings", txns.created[0].AccountID)
	assert.ElementsMatch(t, []string{"txn-old", "txn-1"}, result.Applied[0].TransactionIDs)
}

func TestFlexibleAmountClampedToTolerance(t *testing.T) {
	r := standardRecurring()
	r.IsAmountFlexible = true
	r.AmountMin = 50
	r.AmountMax = 100
	recs := &mockRecurringStore{recs: []*model.Recurring{r}}
	txns := newMockTransactionStore()
	estimator := &mockEstimator{amount: 150, ok: true}
	e := New(recs, txns, &mockAccountStore{}, estimator, Options{})

	_, err := e.ProcessDueRecurrings(context.Background(), testTenant, date(2025, time.January, 1))
	require.NoError(t, err)
	require.Len(t, txns.created, 1)
	// Clamped to the max, sign taken from the template.
	assert.Equal(t, -100.0, txns.created[0].Amount)
}

func TestFlexibleAmountNoHistoryFallsBack(t *testing.T) {
	r := standardRecurring()
	r.IsAmountFlexible = true
	recs := &mockRecurringStore{recs: []*model.Recurring{r}}
	txns := newMockTransactionStore()
	estimator := &mockEstimator{ok: false}
	e := New(recs, txns, &mockAccountStore{}, estimator, Options{})

	_, err := e.ProcessDueRecurrings(context.Background(), testTenant, date(2025, time.January, 1))
	require.NoError(t, err)
	require.Len(t, txns.created, 1)
	assert.Equal(t, -1200.0, txns.created[0].Amount)
}

func TestCreditCardPaymentCappedAtOutstanding(t *testing.T) {
	r := transferRecurring()
	r.RecurringType = model.RecurringCreditCardPayment
	r.TransferAccountID = "acct-card"
	r.Amount = -400
	r.IsAmountFlexible = true
	recs := &mockRecurringStore{recs: []*model.Recurring{r}}
	txns := newMockTransactionStore()
	accounts := &mockAccountStore{accounts: map[string]*model.Account{
		"acct-card": {Meta: model.Meta{ID: "acct-card", TenantID: testTenant}, CurrentBalance: -150},
	}}
	e := New(recs, txns, accounts, nil, Options{})

	_, err := e.ProcessDueRecurrings(context.Background(), testTenant, date(2025, time.January, 1))
	require.NoError(t, err)
	require.Len(t, txns.created, 2)
	assert.Equal(t, -150.0, txns.created[0].Amount)
	assert.Equal(t, 150.0, txns.created[1].Amount)
}

func TestCreditCardPaymentNothingOutstanding(t *testing.T) {
	r := transferRecurring()
	r.RecurringType = model.RecurringCreditCardPayment
	r.TransferAccountID = "acct-card"
	r.IsAmountFlexible = true
	recs := &mockRecurringStore{recs: []*model.Recurring{r}}
	txns := newMockTransactionStore()
	accounts := &mockAccountStore{accounts: map[string]*model.Account{
		"acct-card": {Meta: model.Meta{ID: "acct-card", TenantID: testTenant}, CurrentBalance: 25},
	}}
	e := New(recs, txns, accounts, nil, Options{})

	result, err := e.ProcessDueRecurrings(context.Background(), testTenant, date(2025, time.January, 1))
	require.NoError(t, err)
	require.Len(t, result.Applied, 1)

	// Nothing to pay this cycle, but the occurrence still advances.
	assert.Empty(t, txns.created)
	assert.Equal(t, date(2025, time.February, 1), result.Applied[0].NextOccurrenceDate)
}

func TestDateFlexibleAppliesWithinWindow(t *testing.T) {
	r := standardRecurring()
	r.IsDateFlexible = true
	r.NextOccurrenceDate = date(2025, time.January, 12)
	recs := &mockRecurringStore{recs: []*model.Recurring{r}}
	txns := newMockTransactionStore()
	e := New(recs, txns, &mockAccountStore{}, nil, Options{DateFlexWindowDays: 3})

	result, err := e.ProcessDueRecurrings(context.Background(), testTenant, date(2025, time.January, 10))
	require.NoError(t, err)
	require.Len(t, result.Applied, 1)
	assert.Equal(t, date(2025, time.January, 12), txns.created[0].Date)
}

func TestListPendingManual(t *testing.T) {
	manual := standardRecurring()
	manual.ID = "rec-manual"
	manual.AutoApplyEnabled = false
	blocked := standardRecurring()
	blocked.ID = "rec-blocked"
	blocked.FailedAttempts = 3
	healthy := standardRecurring()
	healthy.ID = "rec-healthy"
	notDue := standardRecurring()
	notDue.ID = "rec-later"
	notDue.AutoApplyEnabled = false
	notDue.NextOccurrenceDate = date(2025, time.June, 1)

	recs := &mockRecurringStore{recs: []*model.Recurring{manual, blocked, healthy, notDue}}
	e := New(recs, newMockTransactionStore(), &mockAccountStore{}, nil, Options{})

	pending, err := e.ListPendingManual(context.Background(), testTenant, date(2025, time.January, 5))
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "rec-manual", pending[0].ID)
	assert.Equal(t, "rec-blocked", pending[1].ID)
}

func TestApplyOne(t *testing.T) {
	manual := standardRecurring()
	manual.AutoApplyEnabled = false
	recs := &mockRecurringStore{recs: []*model.Recurring{manual}}
	txns := newMockTransactionStore()
	e := New(recs, txns, &mockAccountStore{}, nil, Options{})

	applied, err := e.ApplyOne(context.Background(), testTenant, manual.ID, date(2025, time.January, 5))
	require.NoError(t, err)
	assert.Len(t, txns.created, 1)
	assert.Equal(t, date(2025, time.February, 1), applied.NextOccurrenceDate)
}

func TestApplyOneNotDue(t *testing.T) {
	r := standardRecurring()
	r.NextOccurrenceDate = date(2025, time.June, 1)
	recs := &mockRecurringStore{recs: []*model.Recurring{r}}
	e := New(recs, newMockTransactionStore(), &mockAccountStore{}, nil, Options{})

	_, err := e.ApplyOne(context.Background(), testTenant, r.ID, date(2025, time.January, 5))
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestApplyOneUnknownID(t *testing.T) {
	recs := &mockRecurringStore{}
	e := New(recs, newMockTransactionStore(), &mockAccountStore{}, nil, Options{})

	_, err := e.ApplyOne(context.Background(), testTenant, "rec-missing", date(2025, time.January, 5))
	assert.ErrorIs(t, err, common.ErrNotFound)
}
