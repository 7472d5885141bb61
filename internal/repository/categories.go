package repository

import (
	"context"
	"sort"

	"github.com/hollis/centavo/internal/model"
	"github.com/hollis/centavo/internal/storage"
)

// AccountCategoryRepository manages account categories.
type AccountCategoryRepository struct {
	store storage.Adapter
}

// NewAccountCategoryRepository creates the repository over the given adapter.
func NewAccountCategoryRepository(store storage.Adapter) *AccountCategoryRepository {
	return &AccountCategoryRepository{store: store}
}

// List returns the tenant's account categories ordered by display order.
func (r *AccountCategoryRepository) List(ctx context.Context, tenantID string, showDeleted bool) ([]*model.AccountCategory, error) {
	cats, err := listAs[*model.AccountCategory](ctx, r.store, model.EntityAccountCategory, tenantID, showDeleted)
	if err != nil {
		return nil, err
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].DisplayOrder != cats[j].DisplayOrder {
			return cats[i].DisplayOrder < cats[j].DisplayOrder
		}
		return cats[i].Name < cats[j].Name
	})
	return cats, nil
}

// FindByID returns one account category.
func (r *AccountCategoryRepository) FindByID(ctx context.Context, tenantID, id string) (*model.AccountCategory, error) {
	return getAs[*model.AccountCategory](ctx, r.store, model.EntityAccountCategory, tenantID, id)
}

// Create validates and stores a new account category.
func (r *AccountCategoryRepository) Create(ctx context.Context, tenantID, actorID string, c *model.AccountCategory) (*model.AccountCategory, error) {
	return create(ctx, r.store, tenantID, actorID, c)
}

// Update validates and stores changes to an account category.
func (r *AccountCategoryRepository) Update(ctx context.Context, actorID string, c *model.AccountCategory) (*model.AccountCategory, error) {
	return update(ctx, r.store, actorID, c)
}

// SoftDelete marks an account category deleted.
func (r *AccountCategoryRepository) SoftDelete(ctx context.Context, tenantID, id, actorID string) error {
	return r.store.SoftDelete(ctx, model.EntityAccountCategory, tenantID, id, actorID)
}

// Restore brings a soft-deleted account category back.
func (r *AccountCategoryRepository) Restore(ctx context.Context, tenantID, id, actorID string) error {
	return r.store.Restore(ctx, model.EntityAccountCategory, tenantID, id, actorID)
}

// TransactionGroupRepository manages transaction groups.
type TransactionGroupRepository struct {
	store storage.Adapter
}

// NewTransactionGroupRepository creates the repository over the given adapter.
func NewTransactionGroupRepository(store storage.Adapter) *TransactionGroupRepository {
	return &TransactionGroupRepository{store: store}
}

// List returns the tenant's transaction groups ordered by display order.
func (r *TransactionGroupRepository) List(ctx context.Context, tenantID string, showDeleted bool) ([]*model.TransactionGroup, error) {
	groups, err := listAs[*model.TransactionGroup](ctx, r.store, model.EntityTransactionGroup, tenantID, showDeleted)
	if err != nil {
		return nil, err
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].DisplayOrder != groups[j].DisplayOrder {
			return groups[i].DisplayOrder < groups[j].DisplayOrder
		}
		return groups[i].Name < groups[j].Name
	})
	return groups, nil
}

// FindByID returns one transaction group.
func (r *TransactionGroupRepository) FindByID(ctx context.Context, tenantID, id string) (*model.TransactionGroup, error) {
	return getAs[*model.TransactionGroup](ctx, r.store, model.EntityTransactionGroup, tenantID, id)
}

// Create validates and stores a new transaction group.
func (r *TransactionGroupRepository) Create(ctx context.Context, tenantID, actorID string, g *model.TransactionGroup) (*model.TransactionGroup, error) {
	return create(ctx, r.store, tenantID, actorID, g)
}

// Update validates and stores changes to a transaction group.
func (r *TransactionGroupRepository) Update(ctx context.Context, actorID string, g *model.TransactionGroup) (*model.TransactionGroup, error) {
	return update(ctx, r.store, actorID, g)
}

// SoftDelete marks a transaction group deleted.
func (r *TransactionGroupRepository) SoftDelete(ctx context.Context, tenantID, id, actorID string) error {
	return r.store.SoftDelete(ctx, model.EntityTransactionGroup, tenantID, id, actorID)
}

// Restore brings a soft-deleted transaction group back.
func (r *TransactionGroupRepository) Restore(ctx context.Context, tenantID, id, actorID string) error {
	return r.store.Restore(ctx, model.EntityTransactionGroup, tenantID, id, actorID)
}

// TransactionCategoryRepository manages transaction categories and attaches
// their group on reads.
type TransactionCategoryRepository struct {
	store storage.Adapter
}

// NewTransactionCategoryRepository creates the repository over the given adapter.
func NewTransactionCategoryRepository(store storage.Adapter) *TransactionCategoryRepository {
	return &TransactionCategoryRepository{store: store}
}

// CategoryWithGroup pairs a transaction category with its resolved group.
// Group is nil when the reference dangles.
type CategoryWithGroup struct {
	Category *model.TransactionCategory
	Group    *model.TransactionGroup
}

// List returns the tenant's transaction categories with groups attached.
func (r *TransactionCategoryRepository) List(ctx context.Context, tenantID string, showDeleted bool) ([]CategoryWithGroup, error) {
	cats, err := listAs[*model.TransactionCategory](ctx, r.store, model.EntityTransactionCategory, tenantID, showDeleted)
	if err != nil {
		return nil, err
	}
	result := make([]CategoryWithGroup, 0, len(cats))
	for _, c := range cats {
		group, err := joinAs[*model.TransactionGroup](ctx, r.store, model.EntityTransactionGroup, tenantID, c.GroupID)
		if err != nil {
			return nil, err
		}
		result = append(result, CategoryWithGroup{Category: c, Group: group})
	}
	return result, nil
}

// FindByID returns one transaction category with its group attached.
func (r *TransactionCategoryRepository) FindByID(ctx context.Context, tenantID, id string) (*CategoryWithGroup, error) {
	c, err := getAs[*model.TransactionCategory](ctx, r.store, model.EntityTransactionCategory, tenantID, id)
	if err != nil {
		return nil, err
	}
	group, err := joinAs[*model.TransactionGroup](ctx, r.store, model.EntityTransactionGroup, tenantID, c.GroupID)
	if err != nil {
		return nil, err
	}
	return &CategoryWithGroup{Category: c, Group: group}, nil
}

// Create validates and stores a new transaction category.
func (r *TransactionCategoryRepository) Create(ctx context.Context, tenantID, actorID string, c *model.TransactionCategory) (*model.TransactionCategory, error) {
	return create(ctx, r.store, tenantID, actorID, c)
}

// Update validates and stores changes to a transaction category.
func (r *TransactionCategoryRepository) Update(ctx context.Context, actorID string, c *model.TransactionCategory) (*model.TransactionCategory, error) {
	return update(ctx, r.store, actorID, c)
}

// SoftDelete marks a transaction category deleted.
func (r *TransactionCategoryRepository) SoftDelete(ctx context.Context, tenantID, id, actorID string) error {
	return r.store.SoftDelete(ctx, model.EntityTransactionCategory, tenantID, id, actorID)
}

// Restore brings a soft-deleted transaction category back.
func (r *TransactionCategoryRepository) Restore(ctx context.Context, tenantID, id, actorID string) error {
	return r.store.Restore(ctx, model.EntityTransactionCategory, tenantID, id, actorID)
}
