package model

import (
	"fmt"

	"github.com/hollis/centavo/internal/common"
)

// Account is a single financial account: a bank account, a wallet, a credit
// card. CurrentBalance is maintained incrementally as transactions are
// written and can be recomputed from scratch at any time.
type Account struct {
	Meta
	Name           string  `json:"name"`
	CategoryID     string  `json:"categoryId"`
	Currency       string  `json:"currency"`
	Notes          string  `json:"notes,omitempty"`
	OpeningBalance float64 `json:"openingBalance"`
	CurrentBalance float64 `json:"currentBalance"`
}

func (a *Account) Type() EntityType { return EntityAccount }

// Validate checks required fields before a write.
func (a *Account) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("%w: account name is required", common.ErrValidation)
	}
	if a.CategoryID == "" {
		return fmt.Errorf("%w: account requires a category", common.ErrValidation)
	}
	if a.Currency == "" {
		return fmt.Errorf("%w: account currency is required", common.ErrValidation)
	}
	return nil
}
