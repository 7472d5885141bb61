package porter

import (
	"fmt"

	"github.com/hollis/centavo/internal/common"
	"github.com/hollis/centavo/internal/model"
)

// RowStatus classifies one payload row against the target store.
type RowStatus string

const (
	// RowNew means the id does not exist in the target store.
	RowNew RowStatus = "new"
	// RowUpdate means the id already exists and the row overwrites it.
	RowUpdate RowStatus = "update"
	// RowError means the row failed validation and will be skipped.
	RowError RowStatus = "error"
)

// RowResult is the per-row validation outcome.
type RowResult struct {
	Table  string
	ID     string
	Status RowStatus
	Errors []string
	Index  int
}

// ValidationResult is the structured outcome of validating one payload.
type ValidationResult struct {
	Rows     []RowResult
	Errors   []string // payload-level problems; these abort the import
	Warnings []string
}

// OK reports whether the payload as a whole is importable. Row-level errors
// do not fail the payload; they only skip their row.
func (v *ValidationResult) OK() bool {
	return len(v.Errors) == 0
}

// Validate checks a payload against the entity schema and its referential
// constraints. existing maps table name to the ids already present in the
// target store and drives new-vs-update classification. References resolve
// against the payload itself or the target store.
func Validate(payload *Payload, existing map[string]map[string]bool) *ValidationResult {
	result := &ValidationResult{}

	if payload == nil {
		result.Errors = append(result.Errors, "payload is empty")
		return result
	}
	if payload.Version > FormatVersion {
		result.Errors = append(result.Errors,
			fmt.Sprintf("payload format version %d is newer than supported version %d", payload.Version, FormatVersion))
		return result
	}
	if payload.Version == 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("payload declares no format version; assuming %d", FormatVersion))
	}

	for table := range payload.Tables {
		if _, err := model.New(model.EntityType(table)); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("unknown table %q is ignored", table))
		}
	}

	// First pass: collect every incoming id so forward references inside the
	// payload resolve regardless of row order.
	incoming := make(map[string]map[string]bool, len(payload.Tables))
	for _, t := range model.EntityTypes {
		ids := make(map[string]bool)
		for _, row := range payload.Tables[string(t)] {
			if id, ok := row["id"].(string); ok && id != "" {
				ids[id] = true
			}
		}
		incoming[string(t)] = ids
	}

	resolves := func(ref reference) bool {
		return incoming[string(ref.table)][ref.id] || existing[string(ref.table)][ref.id]
	}

	// Second pass: schema, reference, and classification checks per row.
	for _, t := range model.EntityTypes {
		for i, row := range payload.Tables[string(t)] {
			rr := RowResult{Table: string(t), Index: i}
			if id, ok := row["id"].(string); ok {
				rr.ID = id
			}

			e, err := decodeRow(t, row)
			if err != nil {
				rr.Status = RowError
				rr.Errors = append(rr.Errors, err.Error())
				result.Rows = append(result.Rows, rr)
				continue
			}
			if err := e.Validate(); err != nil {
				rr.Status = RowError
				rr.Errors = append(rr.Errors, err.Error())
			}
			for _, ref := range referencesOf(e) {
				if !resolves(ref) {
					rr.Status = RowError
					rr.Errors = append(rr.Errors,
						fmt.Errorf("%w: %s %s", common.ErrReferential, ref.table, ref.id).Error())
				}
			}

			if rr.Status != RowError {
				if rr.ID != "" && existing[string(t)][rr.ID] {
					rr.Status = RowUpdate
				} else {
					rr.Status = RowNew
				}
			}
			result.Rows = append(result.Rows, rr)
		}
	}
	return result
}
