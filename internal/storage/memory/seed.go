package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/hollis/centavo/internal/model"
)

const seedActor = "demo-seed"

// Seed populates the store with the deterministic demo data set. Fixed ids
// and timestamps make the result identical on every run. Seeding a non-empty
// store is a no-op.
func (a *Adapter) Seed(ctx context.Context) error {
	if !a.IsEmpty() {
		return nil
	}

	base := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	meta := func(id string, offsetHours int) model.Meta {
		return model.Meta{
			ID:        id,
			TenantID:  model.DemoTenant,
			CreatedAt: base.Add(time.Duration(offsetHours) * time.Hour),
			UpdatedAt: base.Add(time.Duration(offsetHours) * time.Hour),
			CreatedBy: seedActor,
		}
	}

	entities := []model.Entity{
		&model.AccountCategory{
			Meta: meta("demo-acat-bank", 0),
			Name: "Bank Accounts", CategoryType: model.AccountTypeAsset,
			Color: "#1f77b4", Icon: "bank", DisplayOrder: 1,
		},
		&model.AccountCategory{
			Meta: meta("demo-acat-cards", 1),
			Name: "Credit Cards", CategoryType: model.AccountTypeLiability,
			Color: "#d62728", Icon: "credit-card", DisplayOrder: 2,
		},
		&model.TransactionGroup{
			Meta: meta("demo-group-living", 2),
			Name: "Living", Description: "Day-to-day essentials", Icon: "home", DisplayOrder: 1,
		},
		&model.TransactionGroup{
			Meta: meta("demo-group-income", 3),
			Name: "Income", Icon: "wallet", DisplayOrder: 2,
		},
		&model.TransactionCategory{
			Meta: meta("demo-cat-groceries", 4),
			Name: "Groceries", CategoryType: model.AccountTypeAsset,
			Icon: "cart", GroupID: "demo-group-living",
		},
		&model.TransactionCategory{
			Meta: meta("demo-cat-rent", 5),
			Name: "Rent", Icon: "key", GroupID: "demo-group-living",
		},
		&model.TransactionCategory{
			Meta: meta("demo-cat-salary", 6),
			Name: "Salary", Icon: "banknote", GroupID: "demo-group-income",
		},
		&model.Account{
			Meta: meta("demo-acct-checking", 7),
			Name: "Everyday Checking", CategoryID: "demo-acat-bank", Currency: "USD",
			OpeningBalance: 2500, CurrentBalance: 2500,
		},
		&model.Account{
			Meta: meta("demo-acct-savings", 8),
			Name: "Rainy Day Savings", CategoryID: "demo-acat-bank", Currency: "USD",
			OpeningBalance: 10000, CurrentBalance: 10000,
		},
		&model.Account{
			Meta: meta("demo-acct-card", 9),
			Name: "Sapphire Card", CategoryID: "demo-acat-cards", Currency: "USD",
			OpeningBalance: 0, CurrentBalance: -420.5,
		},
		&model.Transaction{
			Meta: meta("demo-txn-salary", 10),
			Date: base.AddDate(0, 0, 2), AccountID: "demo-acct-checking",
			CategoryID: "demo-cat-salary", Amount: 3200, Notes: "January salary",
		},
		&model.Transaction{
			Meta: meta("demo-txn-groceries", 11),
			Date: base.AddDate(0, 0, 5), AccountID: "demo-acct-card",
			CategoryID: "demo-cat-groceries", Amount: -84.3, Tags: []string{"food"},
		},
		&model.Recurring{
			Meta: meta("demo-rec-rent", 12),
			Name: "Monthly Rent", AccountID: "demo-acct-checking",
			CategoryID: "demo-cat-rent", RecurringType: model.RecurringStandard,
			Amount: -1450, IntervalMonths: 1,
			NextOccurrenceDate: base.AddDate(0, 1, 0),
			AutoApplyEnabled:   true, MaxFailedAttempts: 3, IsActive: true,
		},
		&model.Recurring{
			Meta: meta("demo-rec-card", 13),
			Name: "Card Payment", AccountID: "demo-acct-checking",
			TransferAccountID: "demo-acct-card", RecurringType: model.RecurringCreditCardPayment,
			Amount: -500, AmountMin: 50, AmountMax: 1000, IsAmountFlexible: true,
			IntervalMonths:     1,
			NextOccurrenceDate: base.AddDate(0, 1, 14),
			AutoApplyEnabled:   false, MaxFailedAttempts: 3, IsActive: true,
		},
	}

	for _, e := range entities {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("invalid seed entity %s: %w", e.EntityMeta().ID, err)
		}
		if _, err := a.Insert(ctx, e); err != nil {
			return fmt.Errorf("failed to seed %s: %w", e.EntityMeta().ID, err)
		}
	}
	return nil
}
