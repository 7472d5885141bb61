// Package model defines the persisted entity schema shared by every storage
// backend: accounts, categories, transactions, and recurring templates, plus
// the audit and tenant-scoping fields common to all of them.
package model

import "time"

// DemoTenant is the reserved sentinel tenant that holds seeded sample data.
// In demo mode its rows are visible to every tenant.
const DemoTenant = "demo"

// Meta carries the audit and scoping fields present on every persisted entity.
// Rows are never physically removed by normal operations; IsDeleted marks
// logical deletion and Restore flips it back.
type Meta struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	CreatedBy string    `json:"createdBy,omitempty"`
	UpdatedBy string    `json:"updatedBy,omitempty"` // empty until first edit
	Version   int64     `json:"version,omitempty"`   // optimistic concurrency, cloud backend only
	IsDeleted bool      `json:"isDeleted"`
}

// EntityMeta returns the shared audit fields. Embedding Meta gives every
// entity this accessor, which is what the storage layer operates on.
func (m *Meta) EntityMeta() *Meta { return m }

// Touch updates the modification audit fields.
func (m *Meta) Touch(actorID string, now time.Time) {
	m.UpdatedAt = now
	m.UpdatedBy = actorID
}
