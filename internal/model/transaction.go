package model

import (
	"fmt"
	"time"

	"github.com/hollis/centavo/internal/common"
)

// Transaction is a single ledger entry against one account. The sign of
// Amount encodes direction: negative for expenses, positive for income.
// Transfers are recorded as two rows, one per account, linked by the same
// RecurringID/OccurrenceDate provenance when generated from a template.
type Transaction struct {
	Meta
	Date                 time.Time `json:"date"`
	OccurrenceDate       time.Time `json:"occurrenceDate,omitempty"`
	AccountID            string    `json:"accountId"`
	CategoryID           string    `json:"categoryId,omitempty"`
	DestinationAccountID string    `json:"destinationAccountId,omitempty"`
	RecurringID          string    `json:"recurringId,omitempty"`
	Notes                string    `json:"notes,omitempty"`
	Tags                 []string  `json:"tags,omitempty"`
	Amount               float64   `json:"amount"`
}

func (t *Transaction) Type() EntityType { return EntityTransaction }

// Validate checks required fields before a write.
func (t *Transaction) Validate() error {
	if t.AccountID == "" {
		return fmt.Errorf("%w: transaction requires an account", common.ErrValidation)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("%w: transaction date is required", common.ErrValidation)
	}
	return nil
}
