package model

import (
	"fmt"
	"time"

	"github.com/hollis/centavo/internal/common"
)

// RecurringType selects how a recurring template materializes.
type RecurringType string

const (
	// RecurringStandard creates a single transaction on the source account.
	RecurringStandard RecurringType = "Standard"
	// RecurringTransfer creates a paired debit/credit across two accounts.
	RecurringTransfer RecurringType = "Transfer"
	// RecurringCreditCardPayment creates a transfer from the paying account
	// to the card account, capped at the card's outstanding balance when the
	// amount is flexible.
	RecurringCreditCardPayment RecurringType = "CreditCardPayment"
)

// IsValid returns true if the recurring type is one of the known values.
func (t RecurringType) IsValid() bool {
	switch t {
	case RecurringStandard, RecurringTransfer, RecurringCreditCardPayment:
		return true
	default:
		return false
	}
}

// Recurring is a template for periodically generated transactions.
// NextOccurrenceDate only ever advances, by whole interval multiples.
// A template whose FailedAttempts has reached MaxFailedAttempts is excluded
// from auto-apply until the counter is manually reset.
type Recurring struct {
	Meta
	NextOccurrenceDate time.Time     `json:"nextOccurrenceDate"`
	LastAutoAppliedAt  *time.Time    `json:"lastAutoAppliedAt,omitempty"`
	Name               string        `json:"name"`
	AccountID          string        `json:"accountId"`
	TransferAccountID  string        `json:"transferAccountId,omitempty"`
	CategoryID         string        `json:"categoryId,omitempty"`
	RecurringType      RecurringType `json:"recurringType"`
	Amount             float64       `json:"amount"`
	AmountMin          float64       `json:"amountMin,omitempty"`
	AmountMax          float64       `json:"amountMax,omitempty"`
	IntervalMonths     int           `json:"intervalMonths"`
	FailedAttempts     int           `json:"failedAttempts"`
	MaxFailedAttempts  int           `json:"maxFailedAttempts"`
	IsAmountFlexible   bool          `json:"isAmountFlexible"`
	IsDateFlexible     bool          `json:"isDateFlexible"`
	AutoApplyEnabled   bool          `json:"autoApplyEnabled"`
	IsActive           bool          `json:"isActive"`
}

func (r *Recurring) Type() EntityType { return EntityRecurring }

// Validate checks required fields before a write.
func (r *Recurring) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: recurring name is required", common.ErrValidation)
	}
	if r.AccountID == "" {
		return fmt.Errorf("%w: recurring requires a source account", common.ErrValidation)
	}
	if !r.RecurringType.IsValid() {
		return fmt.Errorf("%w: invalid recurring type %q", common.ErrValidation, r.RecurringType)
	}
	if r.RecurringType != RecurringStandard && r.TransferAccountID == "" {
		return fmt.Errorf("%w: %s recurring requires a destination account", common.ErrValidation, r.RecurringType)
	}
	if r.TransferAccountID != "" && r.TransferAccountID == r.AccountID {
		return fmt.Errorf("%w: transfer source and destination must differ", common.ErrValidation)
	}
	if r.IntervalMonths < 1 {
		return fmt.Errorf("%w: interval must be at least one month", common.ErrValidation)
	}
	if r.NextOccurrenceDate.IsZero() {
		return fmt.Errorf("%w: next occurrence date is required", common.ErrValidation)
	}
	if r.MaxFailedAttempts < 1 {
		return fmt.Errorf("%w: max failed attempts must be at least one", common.ErrValidation)
	}
	if r.IsAmountFlexible && r.AmountMax < r.AmountMin {
		return fmt.Errorf("%w: amount tolerance range is inverted", common.ErrValidation)
	}
	return nil
}

// AutoApplyBlocked reports whether the failure counter has exhausted the
// template's budget; such templates require manual confirmation.
func (r *Recurring) AutoApplyBlocked() bool {
	return r.FailedAttempts >= r.MaxFailedAttempts
}
