// Package porter validates and applies bulk import payloads and produces
// export payloads. Validation is two-pass: incoming ids are collected first
// so forward references inside one payload resolve, then every row is
// checked against the schema and its references. A bad row never aborts the
// batch; it is reported and skipped.
package porter

import (
	"encoding/json"
	"fmt"

	"github.com/hollis/centavo/internal/model"
)

// FormatVersion is the payload format this build reads and writes.
const FormatVersion = 1

// Payload is a bulk data set keyed by table name.
type Payload struct {
	Tables  map[string][]map[string]any `json:"tables"`
	Version int                         `json:"version"`
}

// decodeRow turns a raw row into a typed entity via the JSON codec, so type
// mismatches surface as decode errors.
func decodeRow(t model.EntityType, row map[string]any) (model.Entity, error) {
	raw, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("row is not encodable: %w", err)
	}
	e, err := model.New(t)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, e); err != nil {
		return nil, fmt.Errorf("row does not match the %s schema: %w", t, err)
	}
	return e, nil
}

// encodeRow turns a typed entity back into a raw payload row.
func encodeRow(e model.Entity) (map[string]any, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s row: %w", e.Type(), err)
	}
	var row map[string]any
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("failed to re-encode %s row: %w", e.Type(), err)
	}
	return row, nil
}

// reference is one foreign id a row depends on.
type reference struct {
	table model.EntityType
	id    string
}

// referencesOf lists the foreign ids an entity depends on. Optional empty
// references are omitted.
func referencesOf(e model.Entity) []reference {
	var refs []reference
	add := func(table model.EntityType, id string) {
		if id != "" {
			refs = append(refs, reference{table: table, id: id})
		}
	}

	switch v := e.(type) {
	case *model.TransactionCategory:
		add(model.EntityTransactionGroup, v.GroupID)
	case *model.Account:
		add(model.EntityAccountCategory, v.CategoryID)
	case *model.Transaction:
		add(model.EntityAccount, v.AccountID)
		add(model.EntityAccount, v.DestinationAccountID)
		add(model.EntityTransactionCategory, v.CategoryID)
	case *model.Recurring:
		add(model.EntityAccount, v.AccountID)
		add(model.EntityAccount, v.TransferAccountID)
		add(model.EntityTransactionCategory, v.CategoryID)
	}
	return refs
}
