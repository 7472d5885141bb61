package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/hollis/centavo/internal/common"
	"github.com/hollis/centavo/internal/storage"
	"github.com/hollis/centavo/internal/storage/memory"
	"github.com/hollis/centavo/internal/storage/postgres"
	"github.com/hollis/centavo/internal/storage/sqlite"
)

// Mode selects which storage adapter backs every repository.
type Mode string

const (
	// ModeCloud stores data in the remote PostgreSQL backend.
	ModeCloud Mode = "cloud"
	// ModeLocal stores data in the embedded SQLite database.
	ModeLocal Mode = "local"
	// ModeDemo stores seeded sample data in memory; nothing is persisted.
	ModeDemo Mode = "demo"
)

// String implements fmt.Stringer.
func (m Mode) String() string { return string(m) }

// IsValid returns true if the mode is one of the known values.
func (m Mode) IsValid() bool {
	switch m {
	case ModeCloud, ModeLocal, ModeDemo:
		return true
	default:
		return false
	}
}

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("%w: unknown storage mode %q", common.ErrInvalidConfig, s)
	}
	return m, nil
}

// seeder is implemented by adapters that can seed deterministic sample data.
type seeder interface {
	Seed(ctx context.Context) error
}

// discarder is implemented by adapters whose data must be dropped on exit.
type discarder interface {
	Reset()
}

// ProviderOptions configures backend construction and mode persistence.
type ProviderOptions struct {
	// Warn receives advisory messages about data-locality consequences of a
	// mode switch. It never blocks the switch. Nil logs the warning.
	Warn func(message string)

	// PersistMode records the active mode so it survives restarts. Demo mode
	// is never persisted. Nil disables persistence.
	PersistMode func(m Mode) error

	// OpenAdapter overrides backend construction. Tests use it to inject
	// fakes; nil uses the real backends below.
	OpenAdapter func(m Mode) (storage.Adapter, error)

	LocalDBPath string
	CloudDSN    string
}

// repoSet binds every repository singleton to one adapter. A mode switch
// builds a whole new set and swaps it in atomically, so no repository ever
// observes an adapter transitioning mid-operation.
type repoSet struct {
	store                 storage.Adapter
	accounts              *AccountRepository
	accountCategories     *AccountCategoryRepository
	transactionGroups     *TransactionGroupRepository
	transactionCategories *TransactionCategoryRepository
	transactions          *TransactionRepository
	recurrings            *RecurringRepository
	mode                  Mode
}

func newRepoSet(mode Mode, store storage.Adapter) *repoSet {
	return &repoSet{
		mode:                  mode,
		store:                 store,
		accounts:              NewAccountRepository(store),
		accountCategories:     NewAccountCategoryRepository(store),
		transactionGroups:     NewTransactionGroupRepository(store),
		transactionCategories: NewTransactionCategoryRepository(store),
		transactions:          NewTransactionRepository(store),
		recurrings:            NewRecurringRepository(store),
	}
}

// Provider owns the process-wide active adapter reference and vends the
// repositories bound to it. Only Switch mutates the reference, by atomic
// swap; in-flight operations against the old adapter complete while new
// operations use the new adapter exclusively.
type Provider struct {
	current atomic.Pointer[repoSet]
	opts    ProviderOptions
	mu      sync.Mutex // serializes mode switches
}

// NewProvider creates an unstarted provider. Call Start before use.
func NewProvider(opts ProviderOptions) *Provider {
	return &Provider{opts: opts}
}

// Start binds the provider to its initial mode, normally the persisted
// preference. Demo mode always starts fresh: a new store is seeded on entry
// and nothing about the session is persisted.
func (p *Provider) Start(ctx context.Context, initial Mode) error {
	return p.Switch(ctx, initial)
}

// Switch rebinds every repository to the target mode's adapter. Switching to
// the current mode is a no-op and issues no warning. Switching into demo
// seeds sample data; switching out of demo discards it.
func (p *Provider) Switch(ctx context.Context, target Mode) error {
	if !target.IsValid() {
		return fmt.Errorf("%w: unknown storage mode %q", common.ErrInvalidConfig, target)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	old := p.current.Load()
	if old != nil && old.mode == target {
		return nil
	}

	if old != nil {
		p.warn(switchWarning(old.mode, target))
	}

	store, err := p.open(target)
	if err != nil {
		return fmt.Errorf("failed to open %s backend: %w", target, err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return fmt.Errorf("failed to migrate %s backend: %w", target, err)
	}
	if target == ModeDemo {
		if s, ok := store.(seeder); ok {
			if err := s.Seed(ctx); err != nil {
				_ = store.Close()
				return fmt.Errorf("failed to seed demo data: %w", err)
			}
		}
	}

	p.current.Store(newRepoSet(target, store))
	slog.Info("storage mode switched", "mode", target)

	if old != nil {
		if old.mode == ModeDemo {
			if d, ok := old.store.(discarder); ok {
				d.Reset()
			}
		}
		if err := old.store.Close(); err != nil {
			slog.Warn("failed to close previous backend", "mode", old.mode, "error", err)
		}
	}

	if target != ModeDemo && p.opts.PersistMode != nil {
		if err := p.opts.PersistMode(target); err != nil {
			slog.Warn("failed to persist storage mode", "mode", target, "error", err)
		}
	}
	return nil
}

func (p *Provider) open(m Mode) (storage.Adapter, error) {
	if p.opts.OpenAdapter != nil {
		return p.opts.OpenAdapter(m)
	}
	switch m {
	case ModeCloud:
		return postgres.New(p.opts.CloudDSN)
	case ModeLocal:
		return sqlite.New(p.opts.LocalDBPath)
	case ModeDemo:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("%w: unknown storage mode %q", common.ErrInvalidConfig, m)
	}
}

func (p *Provider) warn(message string) {
	if message == "" {
		return
	}
	if p.opts.Warn != nil {
		p.opts.Warn(message)
		return
	}
	slog.Warn(message)
}

func switchWarning(from, to Mode) string {
	switch {
	case from == ModeCloud:
		return "leaving cloud mode: synced data stays in the cloud and will not be available until you switch back"
	case to == ModeDemo:
		return "entering demo mode: demo data is temporary and discarded when you leave"
	case from == ModeDemo:
		return "leaving demo mode: demo data will be discarded"
	case to == ModeCloud:
		return "entering cloud mode: local data stays on this device and is not uploaded"
	default:
		return ""
	}
}

func (p *Provider) set() *repoSet {
	s := p.current.Load()
	if s == nil {
		panic("repository: provider used before Start")
	}
	return s
}

// Mode returns the active storage mode.
func (p *Provider) Mode() Mode { return p.set().mode }

// Store returns the active adapter. Bulk import/export uses it directly.
func (p *Provider) Store() storage.Adapter { return p.set().store }

// Accounts returns the account repository bound to the active adapter.
func (p *Provider) Accounts() *AccountRepository { return p.set().accounts }

// AccountCategories returns the account category repository.
func (p *Provider) AccountCategories() *AccountCategoryRepository { return p.set().accountCategories }

// TransactionGroups returns the transaction group repository.
func (p *Provider) TransactionGroups() *TransactionGroupRepository { return p.set().transactionGroups }

// TransactionCategories returns the transaction category repository.
func (p *Provider) TransactionCategories() *TransactionCategoryRepository {
	return p.set().transactionCategories
}

// Transactions returns the transaction repository.
func (p *Provider) Transactions() *TransactionRepository { return p.set().transactions }

// Recurrings returns the recurring repository.
func (p *Provider) Recurrings() *RecurringRepository { return p.set().recurrings }

// Close tears down the active adapter, discarding demo data first.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.current.Load()
	if s == nil {
		return nil
	}
	if s.mode == ModeDemo {
		if d, ok := s.store.(discarder); ok {
			d.Reset()
		}
	}
	return s.store.Close()
}
