package model

import (
	"fmt"

	"github.com/hollis/centavo/internal/common"
)

// EntityType identifies one of the persisted entity kinds. The value doubles
// as the physical table name in the SQL backends and the table key in
// import/export payloads.
type EntityType string

const (
	EntityAccountCategory     EntityType = "account_categories"
	EntityTransactionGroup    EntityType = "transaction_groups"
	EntityTransactionCategory EntityType = "transaction_categories"
	EntityAccount             EntityType = "accounts"
	EntityTransaction         EntityType = "transactions"
	EntityRecurring           EntityType = "recurrings"
)

// EntityTypes lists every entity type in dependency order: groups and
// categories before accounts, accounts before transactions and recurrings.
// Imports walk tables in this order so forward references inside one payload
// resolve.
var EntityTypes = []EntityType{
	EntityAccountCategory,
	EntityTransactionGroup,
	EntityTransactionCategory,
	EntityAccount,
	EntityTransaction,
	EntityRecurring,
}

// Entity is implemented by every persisted type.
type Entity interface {
	EntityMeta() *Meta
	Type() EntityType
	Validate() error
}

// New returns a zero value of the requested entity type. Storage adapters use
// it to decode stored payloads generically.
func New(t EntityType) (Entity, error) {
	switch t {
	case EntityAccountCategory:
		return &AccountCategory{}, nil
	case EntityTransactionGroup:
		return &TransactionGroup{}, nil
	case EntityTransactionCategory:
		return &TransactionCategory{}, nil
	case EntityAccount:
		return &Account{}, nil
	case EntityTransaction:
		return &Transaction{}, nil
	case EntityRecurring:
		return &Recurring{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown entity type %q", common.ErrValidation, t)
	}
}
