package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollis/centavo/internal/common"
	"github.com/hollis/centavo/internal/model"
	"github.com/hollis/centavo/internal/storage"
	"github.com/hollis/centavo/internal/storage/memory"
)

// memoryBacked wires every mode to its own in-memory adapter so switches can
// be exercised without real backends.
func memoryBacked(t *testing.T, opts ProviderOptions) (*Provider, map[Mode]*memory.Adapter) {
	t.Helper()
	adapters := map[Mode]*memory.Adapter{
		ModeCloud: memory.New(),
		ModeLocal: memory.New(),
		ModeDemo:  memory.New(),
	}
	opts.OpenAdapter = func(m Mode) (storage.Adapter, error) {
		return adapters[m], nil
	}
	return NewProvider(opts), adapters
}

func TestParseMode(t *testing.T) {
	for _, valid := range []string{"cloud", "local", "demo"} {
		m, err := ParseMode(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, m.String())
	}

	_, err := ParseMode("hybrid")
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestStartInDemoModeSeedsFreshStore(t *testing.T) {
	var persisted []Mode
	p, adapters := memoryBacked(t, ProviderOptions{
		PersistMode: func(m Mode) error {
			persisted = append(persisted, m)
			return nil
		},
	})
	ctx := context.Background()
	require.NoError(t, p.Start(ctx, ModeDemo))
	defer func() { _ = p.Close() }()

	assert.Equal(t, ModeDemo, p.Mode())
	assert.False(t, adapters[ModeDemo].IsEmpty(), "starting in demo mode seeds sample data")
	assert.True(t, adapters[ModeLocal].IsEmpty(), "demo startup must not touch the local backend")
	assert.Empty(t, persisted, "demo mode is never persisted")

	accounts, err := p.Accounts().List(ctx, "anyone", false)
	require.NoError(t, err)
	assert.NotEmpty(t, accounts)
}

func TestSwitchSameModeIsNoOp(t *testing.T) {
	var warnings []string
	p, _ := memoryBacked(t, ProviderOptions{
		Warn: func(msg string) { warnings = append(warnings, msg) },
	})
	ctx := context.Background()
	require.NoError(t, p.Start(ctx, ModeLocal))
	defer func() { _ = p.Close() }()

	store := p.Store()
	require.NoError(t, p.Switch(ctx, ModeLocal))

	assert.Same(t, store, p.Store(), "same-mode switch must not rebuild the adapter")
	assert.Empty(t, warnings)
}

func TestSwitchWarnsAboutDataLocality(t *testing.T) {
	var warnings []string
	p, _ := memoryBacked(t, ProviderOptions{
		Warn: func(msg string) { warnings = append(warnings, msg) },
	})
	ctx := context.Background()
	require.NoError(t, p.Start(ctx, ModeCloud))
	defer func() { _ = p.Close() }()

	require.NoError(t, p.Switch(ctx, ModeLocal))
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "cloud")
}

func TestSwitchRejectsUnknownMode(t *testing.T) {
	p, _ := memoryBacked(t, ProviderOptions{})
	ctx := context.Background()
	require.NoError(t, p.Start(ctx, ModeLocal))
	defer func() { _ = p.Close() }()

	err := p.Switch(ctx, Mode("hybrid"))
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
	assert.Equal(t, ModeLocal, p.Mode(), "failed switch leaves the active mode untouched")
}

func TestSwitchIntoDemoSeeds(t *testing.T) {
	p, adapters := memoryBacked(t, ProviderOptions{})
	ctx := context.Background()
	require.NoError(t, p.Start(ctx, ModeLocal))
	defer func() { _ = p.Close() }()

	require.NoError(t, p.Switch(ctx, ModeDemo))
	assert.False(t, adapters[ModeDemo].IsEmpty(), "entering demo mode seeds sample data")

	accounts, err := p.Accounts().List(ctx, "anyone", false)
	require.NoError(t, err)
	assert.NotEmpty(t, accounts, "demo data is visible to every tenant")
}

func TestSwitchOutOfDemoDiscards(t *testing.T) {
	p, adapters := memoryBacked(t, ProviderOptions{})
	ctx := context.Background()
	require.NoError(t, p.Start(ctx, ModeLocal))
	defer func() { _ = p.Close() }()

	require.NoError(t, p.Switch(ctx, ModeDemo))

	// A user row written during the demo session dies with it.
	_, err := p.Accounts().Create(ctx, "tenant-1", "user-1", &model.Account{
		Name: "Scratch", CategoryID: "demo-acat-bank", Currency: "USD",
	})
	require.NoError(t, err)

	require.NoError(t, p.Switch(ctx, ModeLocal))
	assert.True(t, adapters[ModeDemo].IsEmpty(), "leaving demo mode discards all demo data")
}

func TestSwitchPersistsModeExceptDemo(t *testing.T) {
	var persisted []Mode
	p, _ := memoryBacked(t, ProviderOptions{
		PersistMode: func(m Mode) error {
			persisted = append(persisted, m)
			return nil
		},
	})
	ctx := context.Background()
	require.NoError(t, p.Start(ctx, ModeLocal))
	defer func() { _ = p.Close() }()

	require.NoError(t, p.Switch(ctx, ModeDemo))
	require.NoError(t, p.Switch(ctx, ModeCloud))

	assert.Equal(t, []Mode{ModeLocal, ModeCloud}, persisted, "demo mode is never persisted")
}

func TestRepositoriesFollowActiveAdapter(t *testing.T) {
	p, _ := memoryBacked(t, ProviderOptions{})
	ctx := context.Background()
	require.NoError(t, p.Start(ctx, ModeLocal))
	defer func() { _ = p.Close() }()

	cat, err := p.AccountCategories().Create(ctx, "tenant-1", "user-1", &model.AccountCategory{
		Name: "Bank", CategoryType: model.AccountTypeAsset,
	})
	require.NoError(t, err)
	_, err = p.Accounts().Create(ctx, "tenant-1", "user-1", &model.Account{
		Name: "Checking", CategoryID: cat.ID, Currency: "USD",
	})
	require.NoError(t, err)

	require.NoError(t, p.Switch(ctx, ModeCloud))
	accounts, err := p.Accounts().List(ctx, "tenant-1", false)
	require.NoError(t, err)
	assert.Empty(t, accounts, "each backend keeps its own data; switching does not migrate")

	require.NoError(t, p.Switch(ctx, ModeLocal))
	accounts, err = p.Accounts().List(ctx, "tenant-1", false)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Bank", accounts[0].Category.Name)
}
