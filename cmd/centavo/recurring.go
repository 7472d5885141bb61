package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func recurringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Manage recurring transaction templates",
	}

	cmd.AddCommand(recurringListCmd())
	cmd.AddCommand(recurringProcessCmd())
	cmd.AddCommand(recurringPendingCmd())
	cmd.AddCommand(recurringApplyCmd())
	cmd.AddCommand(recurringResetCmd())
	return cmd
}

func recurringListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active recurring templates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			provider, cfg, err := initProvider(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = provider.Close() }()

			recs, err := provider.Recurrings().ListActive(ctx, cfg.Tenant)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tAMOUNT\tNEXT\tFAILURES")
			for _, r := range recs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\t%d/%d\n",
					r.ID, r.Name, r.RecurringType, r.Amount,
					r.NextOccurrenceDate.Format("2006-01-02"),
					r.FailedAttempts, r.MaxFailedAttempts)
			}
			return nil
		},
	}
}

func recurringProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Materialize all due recurring templates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			provider, cfg, err := initProvider(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = provider.Close() }()

			result, err := initEngine(provider, cfg).ProcessDueRecurrings(ctx, cfg.Tenant, time.Now())
			if err != nil {
				return err
			}

			for _, a := range result.Applied {
				fmt.Printf("applied %s on %s, next %s\n",
					a.Name, a.OccurrenceDate.Format("2006-01-02"), a.NextOccurrenceDate.Format("2006-01-02"))
			}
			for _, s := range result.Skipped {
				fmt.Printf("skipped %s: %s\n", s.Name, s.Reason)
			}
			for _, f := range result.Failed {
				fmt.Printf("failed %s: %v\n", f.Name, f.Err)
			}
			fmt.Printf("%d applied, %d skipped, %d failed\n",
				len(result.Applied), len(result.Skipped), len(result.Failed))
			return nil
		},
	}
}

func recurringPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List due templates waiting for manual confirmation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			provider, cfg, err := initProvider(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = provider.Close() }()

			pending, err := initEngine(provider, cfg).ListPendingManual(ctx, cfg.Tenant, time.Now())
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				fmt.Println("nothing pending")
				return nil
			}
			for _, r := range pending {
				fmt.Printf("%s\t%s\tdue %s\n", r.ID, r.Name, r.NextOccurrenceDate.Format("2006-01-02"))
			}
			return nil
		},
	}
}

func recurringApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <recurring-id>",
		Short: "Materialize one due template on explicit confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			provider, cfg, err := initProvider(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = provider.Close() }()

			applied, err := initEngine(provider, cfg).ApplyOne(ctx, cfg.Tenant, args[0], time.Now())
			if err != nil {
				return err
			}
			fmt.Printf("applied %s on %s, next %s\n",
				applied.Name, applied.OccurrenceDate.Format("2006-01-02"),
				applied.NextOccurrenceDate.Format("2006-01-02"))
			return nil
		},
	}
}

func recurringResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <recurring-id>",
		Short: "Reset a template's failure counter so auto-apply resumes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			provider, cfg, err := initProvider(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = provider.Close() }()

			if _, err := provider.Recurrings().ResetFailures(ctx, cfg.Tenant, args[0], cliActor); err != nil {
				return err
			}
			fmt.Println("failure counter reset")
			return nil
		},
	}
}
