package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

const cliActor = "cli"

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Inspect accounts",
	}

	cmd.AddCommand(accountsListCmd())
	cmd.AddCommand(accountsRecomputeCmd())
	return cmd
}

func accountsListCmd() *cobra.Command {
	var grouped bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts with their categories and balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			provider, cfg, err := initProvider(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = provider.Close() }()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			if grouped {
				groups, err := provider.Accounts().GroupedByCategory(ctx, cfg.Tenant)
				if err != nil {
					return err
				}
				for _, g := range groups {
					name := "(uncategorized)"
					if g.Category != nil {
						name = g.Category.Name
					}
					fmt.Fprintf(w, "%s\n", name)
					for _, a := range g.Accounts {
						fmt.Fprintf(w, "  %s\t%s\t%.2f\n", a.Account.Name, a.Account.Currency, a.Account.CurrentBalance)
					}
				}
				return nil
			}

			accounts, err := provider.Accounts().List(ctx, cfg.Tenant, false)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "NAME\tCATEGORY\tCURRENCY\tBALANCE")
			for _, a := range accounts {
				category := ""
				if a.Category != nil {
					category = a.Category.Name
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\n", a.Account.Name, category, a.Account.Currency, a.Account.CurrentBalance)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&grouped, "grouped", false, "group accounts by category")
	return cmd
}

func accountsRecomputeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recompute <account-id>",
		Short: "Rebuild an account's running balance from its ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			provider, cfg, err := initProvider(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = provider.Close() }()

			balance, err := provider.Transactions().RecomputeBalance(ctx, cfg.Tenant, args[0], cliActor)
			if err != nil {
				return err
			}
			fmt.Printf("balance: %.2f\n", balance)
			return nil
		},
	}
}
