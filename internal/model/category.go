package model

import (
	"fmt"

	"github.com/hollis/centavo/internal/common"
)

// AccountCategoryType distinguishes asset accounts from liability accounts.
type AccountCategoryType string

const (
	AccountTypeAsset     AccountCategoryType = "Asset"
	AccountTypeLiability AccountCategoryType = "Liability"
)

// IsValid returns true if the account category type is one of the known values.
func (t AccountCategoryType) IsValid() bool {
	return t == AccountTypeAsset || t == AccountTypeLiability
}

// AccountCategory groups accounts, e.g. "Bank Accounts" or "Credit Cards".
type AccountCategory struct {
	Meta
	Name         string              `json:"name"`
	CategoryType AccountCategoryType `json:"categoryType"`
	Color        string              `json:"color,omitempty"`
	Icon         string              `json:"icon,omitempty"`
	DisplayOrder int                 `json:"displayOrder"`
}

func (c *AccountCategory) Type() EntityType { return EntityAccountCategory }

// Validate checks required fields before a write.
func (c *AccountCategory) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: account category name is required", common.ErrValidation)
	}
	if !c.CategoryType.IsValid() {
		return fmt.Errorf("%w: invalid account category type %q", common.ErrValidation, c.CategoryType)
	}
	return nil
}

// TransactionGroup groups transaction categories, e.g. "Living" holding
// "Groceries" and "Rent".
type TransactionGroup struct {
	Meta
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Icon         string `json:"icon,omitempty"`
	Color        string `json:"color,omitempty"`
	DisplayOrder int    `json:"displayOrder"`
}

func (g *TransactionGroup) Type() EntityType { return EntityTransactionGroup }

func (g *TransactionGroup) Validate() error {
	if g.Name == "" {
		return fmt.Errorf("%w: transaction group name is required", common.ErrValidation)
	}
	return nil
}

// TransactionCategory classifies a transaction within a group.
type TransactionCategory struct {
	Meta
	Name         string              `json:"name"`
	CategoryType AccountCategoryType `json:"categoryType"`
	Icon         string              `json:"icon,omitempty"`
	GroupID      string              `json:"groupId"`
}

func (c *TransactionCategory) Type() EntityType { return EntityTransactionCategory }

func (c *TransactionCategory) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: transaction category name is required", common.ErrValidation)
	}
	if c.GroupID == "" {
		return fmt.Errorf("%w: transaction category requires a group", common.ErrValidation)
	}
	return nil
}
