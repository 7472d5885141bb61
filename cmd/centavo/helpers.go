package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hollis/centavo/internal/config"
	"github.com/hollis/centavo/internal/engine"
	"github.com/hollis/centavo/internal/repository"
)

// initProvider loads the configuration and starts the repository provider in
// the configured mode. Callers must Close it.
func initProvider(ctx context.Context) (*repository.Provider, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	mode, err := repository.ParseMode(cfg.Mode)
	if err != nil {
		return nil, nil, err
	}

	provider := repository.NewProvider(repository.ProviderOptions{
		LocalDBPath: cfg.Local.DBPath,
		CloudDSN:    cfg.Cloud.DSN,
		Warn: func(message string) {
			fmt.Fprintf(os.Stderr, "warning: %s\n", message)
		},
		PersistMode: func(m repository.Mode) error {
			return config.SaveMode(m.String())
		},
	})
	if err := provider.Start(ctx, mode); err != nil {
		return nil, nil, err
	}
	return provider, cfg, nil
}

// initEngine builds the recurrence engine over the provider's active
// repositories, with a history-based amount estimator.
func initEngine(provider *repository.Provider, cfg *config.Config) *engine.Engine {
	estimator := engine.NewHistoryEstimator(provider.Store(), 0)
	return engine.New(
		provider.Recurrings(),
		provider.Transactions(),
		provider.Accounts(),
		estimator,
		engine.Options{
			CatchUp:            engine.CatchUpPolicy(cfg.Recurrence.CatchUp),
			DateFlexWindowDays: cfg.Recurrence.DateFlexWindowDays,
		},
	)
}
