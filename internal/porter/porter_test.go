package porter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollis/centavo/internal/model"
	"github.com/hollis/centavo/internal/repository"
	"github.com/hollis/centavo/internal/storage"
	"github.com/hollis/centavo/internal/storage/memory"
)

const (
	testTenant = "tenant-1"
	testActor  = "user-1"
)

func newTestProvider(t *testing.T) *repository.Provider {
	t.Helper()
	p := repository.NewProvider(repository.ProviderOptions{
		OpenAdapter: func(_ repository.Mode) (storage.Adapter, error) {
			return memory.New(), nil
		},
	})
	require.NoError(t, p.Start(context.Background(), repository.ModeLocal))
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func seedTestData(t *testing.T, p *repository.Provider) {
	t.Helper()
	ctx := context.Background()

	cat, err := p.AccountCategories().Create(ctx, testTenant, testActor, &model.AccountCategory{
		Name: "Bank", CategoryType: model.AccountTypeAsset,
	})
	require.NoError(t, err)
	group, err := p.TransactionGroups().Create(ctx, testTenant, testActor, &model.TransactionGroup{Name: "Living"})
	require.NoError(t, err)
	txnCat, err := p.TransactionCategories().Create(ctx, testTenant, testActor, &model.TransactionCategory{
		Name: "Rent", GroupID: group.ID,
	})
	require.NoError(t, err)
	acct, err := p.Accounts().Create(ctx, testTenant, testActor, &model.Account{
		Name: "Checking", CategoryID: cat.ID, Currency: "USD", OpeningBalance: 500,
	})
	require.NoError(t, err)
	_, err = p.Transactions().Create(ctx, testTenant, testActor, &model.Transaction{
		AccountID: acct.ID, CategoryID: txnCat.ID, Amount: -100,
		Date: time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = p.Recurrings().Create(ctx, testTenant, testActor, &model.Recurring{
		Name: "Rent", AccountID: acct.ID, CategoryID: txnCat.ID,
		RecurringType: model.RecurringStandard, Amount: -1200, IntervalMonths: 1,
		NextOccurrenceDate: time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		MaxFailedAttempts:  3, IsActive: true, AutoApplyEnabled: true,
	})
	require.NoError(t, err)
}

func TestExportCoversEveryTable(t *testing.T) {
	p := newTestProvider(t)
	seedTestData(t, p)

	payload, err := NewExporter(p.Store()).Export(context.Background(), testTenant)
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, payload.Version)

	for _, et := range model.EntityTypes {
		assert.NotEmpty(t, payload.Tables[string(et)], "expected %s rows in export", et)
	}
}

func TestExportIncludesSoftDeletedRows(t *testing.T) {
	p := newTestProvider(t)
	seedTestData(t, p)
	ctx := context.Background()

	txns, err := p.Transactions().List(ctx, testTenant, false)
	require.NoError(t, err)
	require.NoError(t, p.Transactions().SoftDelete(ctx, testTenant, txns[0].Transaction.ID, testActor))

	payload, err := NewExporter(p.Store()).Export(ctx, testTenant)
	require.NoError(t, err)
	require.Len(t, payload.Tables["transactions"], 1)
	assert.Equal(t, true, payload.Tables["transactions"][0]["isDeleted"])
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := newTestProvider(t)
	seedTestData(t, source)

	payload, err := NewExporter(source.Store()).Export(ctx, testTenant)
	require.NoError(t, err)

	target := newTestProvider(t)
	summary, err := NewImporter(target).Import(ctx, testTenant, testActor, payload)
	require.NoError(t, err)
	assert.Equal(t, 6, summary.Succeeded)
	assert.Zero(t, summary.Skipped)

	accounts, err := target.Accounts().List(ctx, testTenant, false)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Checking", accounts[0].Account.Name)
	require.NotNil(t, accounts[0].Category, "joins resolve after import")

	recs, err := target.Recurrings().ListActive(ctx, testTenant)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, -1200.0, recs[0].Amount)
}

func TestImportIsPartial(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	payload := &Payload{
		Version: FormatVersion,
		Tables: map[string][]map[string]any{
			"transaction_groups": {groupRow("grp-1", "Living")},
			"transaction_categories": {
				categoryRow("cat-good", "Rent", "grp-1"),
				categoryRow("cat-bad", "Ghost", "grp-missing"),
			},
		},
	}

	summary, err := NewImporter(p).Import(ctx, testTenant, testActor, payload)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "cat-bad", summary.Errors[0].ID)

	// The valid sibling committed.
	cats, err := p.TransactionCategories().List(ctx, testTenant, false)
	require.NoError(t, err)
	require.Len(t, cats, 1)
}

func TestImportUpdatesExistingRows(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	group, err := p.TransactionGroups().Create(ctx, testTenant, testActor, &model.TransactionGroup{Name: "Living"})
	require.NoError(t, err)
	createdAt := group.CreatedAt

	payload := &Payload{
		Version: FormatVersion,
		Tables: map[string][]map[string]any{
			"transaction_groups": {groupRow(group.ID, "Living & Home")},
		},
	}
	summary, err := NewImporter(p).Import(ctx, testTenant, testActor, payload)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)

	groups, err := p.TransactionGroups().List(ctx, testTenant, false)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Living & Home", groups[0].Name)
	assert.True(t, groups[0].CreatedAt.Equal(createdAt), "updates keep the original creation audit")
}

func TestImportRejectsNewerFormat(t *testing.T) {
	p := newTestProvider(t)
	payload := &Payload{Version: FormatVersion + 1}

	_, err := NewImporter(p).Import(context.Background(), testTenant, testActor, payload)
	assert.Error(t, err)
}
