package repository

import (
	"context"
	"sort"

	"github.com/hollis/centavo/internal/model"
	"github.com/hollis/centavo/internal/storage"
)

// AccountRepository manages accounts and attaches their category on reads.
type AccountRepository struct {
	store storage.Adapter
}

// NewAccountRepository creates an account repository over the given adapter.
func NewAccountRepository(store storage.Adapter) *AccountRepository {
	return &AccountRepository{store: store}
}

// AccountWithCategory pairs an account with its resolved category. Category
// is nil when the reference dangles.
type AccountWithCategory struct {
	Account  *model.Account
	Category *model.AccountCategory
}

// AccountGroup is a list helper: accounts grouped by their category, ordered
// by the category's display order. Accounts with a dangling category land in
// a trailing group with a nil Category.
type AccountGroup struct {
	Category *model.AccountCategory
	Accounts []AccountWithCategory
}

// List returns the tenant's accounts with categories attached. Soft-deleted
// accounts are excluded unless showDeleted is set.
func (r *AccountRepository) List(ctx context.Context, tenantID string, showDeleted bool) ([]AccountWithCategory, error) {
	accounts, err := listAs[*model.Account](ctx, r.store, model.EntityAccount, tenantID, showDeleted)
	if err != nil {
		return nil, err
	}

	result := make([]AccountWithCategory, 0, len(accounts))
	for _, a := range accounts {
		cat, err := joinAs[*model.AccountCategory](ctx, r.store, model.EntityAccountCategory, tenantID, a.CategoryID)
		if err != nil {
			return nil, err
		}
		result = append(result, AccountWithCategory{Account: a, Category: cat})
	}
	return result, nil
}

// Get returns the bare account without joins.
func (r *AccountRepository) Get(ctx context.Context, tenantID, id string) (*model.Account, error) {
	return getAs[*model.Account](ctx, r.store, model.EntityAccount, tenantID, id)
}

// FindByID returns one account with its category attached.
func (r *AccountRepository) FindByID(ctx context.Context, tenantID, id string) (*AccountWithCategory, error) {
	a, err := getAs[*model.Account](ctx, r.store, model.EntityAccount, tenantID, id)
	if err != nil {
		return nil, err
	}
	cat, err := joinAs[*model.AccountCategory](ctx, r.store, model.EntityAccountCategory, tenantID, a.CategoryID)
	if err != nil {
		return nil, err
	}
	return &AccountWithCategory{Account: a, Category: cat}, nil
}

// GroupedByCategory lists accounts grouped by category name. This is pure
// post-processing over List; no backend-specific behavior.
func (r *AccountRepository) GroupedByCategory(ctx context.Context, tenantID string) ([]AccountGroup, error) {
	accounts, err := r.List(ctx, tenantID, false)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string][]AccountWithCategory)
	categories := make(map[string]*model.AccountCategory)
	for _, a := range accounts {
		key := ""
		if a.Category != nil {
			key = a.Category.ID
			categories[key] = a.Category
		}
		byCategory[key] = append(byCategory[key], a)
	}

	groups := make([]AccountGroup, 0, len(byCategory))
	for key, members := range byCategory {
		sort.Slice(members, func(i, j int) bool {
			return members[i].Account.Name < members[j].Account.Name
		})
		groups = append(groups, AccountGroup{Category: categories[key], Accounts: members})
	}
	sort.Slice(groups, func(i, j int) bool {
		gi, gj := groups[i].Category, groups[j].Category
		switch {
		case gi == nil:
			return false
		case gj == nil:
			return true
		case gi.DisplayOrder != gj.DisplayOrder:
			return gi.DisplayOrder < gj.DisplayOrder
		default:
			return gi.Name < gj.Name
		}
	})
	return groups, nil
}

// Create validates and stores a new account for the tenant.
func (r *AccountRepository) Create(ctx context.Context, tenantID, actorID string, a *model.Account) (*model.Account, error) {
	if a.CurrentBalance == 0 {
		a.CurrentBalance = a.OpeningBalance
	}
	return create(ctx, r.store, tenantID, actorID, a)
}

// Update validates and stores changes to an existing account.
func (r *AccountRepository) Update(ctx context.Context, actorID string, a *model.Account) (*model.Account, error) {
	return update(ctx, r.store, actorID, a)
}

// SoftDelete marks an account deleted.
func (r *AccountRepository) SoftDelete(ctx context.Context, tenantID, id, actorID string) error {
	return r.store.SoftDelete(ctx, model.EntityAccount, tenantID, id, actorID)
}

// Restore brings a soft-deleted account back.
func (r *AccountRepository) Restore(ctx context.Context, tenantID, id, actorID string) error {
	return r.store.Restore(ctx, model.EntityAccount, tenantID, id, actorID)
}
