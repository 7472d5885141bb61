package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hollis/centavo/internal/porter"
)

func exportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all tenant data to a JSON payload",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			provider, cfg, err := initProvider(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = provider.Close() }()

			payload, err := porter.NewExporter(provider.Store()).Export(ctx, cfg.Tenant)
			if err != nil {
				return err
			}

			raw, err := json.MarshalIndent(payload, "", "  ")
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				fmt.Println(string(raw))
				return nil
			}
			if err := os.WriteFile(output, raw, 0o600); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			fmt.Printf("exported to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func importCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a JSON payload into the active backend",
		Long: `Validate and import a payload produced by export. Rows that fail
validation are skipped and reported; valid rows commit regardless.

With --dry-run the payload is only validated and classified.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read payload: %w", err)
			}
			var payload porter.Payload
			if err := json.Unmarshal(raw, &payload); err != nil {
				return fmt.Errorf("payload is not valid JSON: %w", err)
			}

			provider, cfg, err := initProvider(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = provider.Close() }()

			importer := porter.NewImporter(provider)

			if dryRun {
				existing, err := importer.ExistingIDs(ctx, cfg.Tenant)
				if err != nil {
					return err
				}
				result := porter.Validate(&payload, existing)
				for _, warning := range result.Warnings {
					fmt.Printf("warning: %s\n", warning)
				}
				for _, e := range result.Errors {
					fmt.Printf("error: %s\n", e)
				}
				for _, row := range result.Rows {
					if row.Status == porter.RowError {
						fmt.Printf("%s[%d] %s: %v\n", row.Table, row.Index, row.Status, row.Errors)
						continue
					}
					fmt.Printf("%s[%d] %s\n", row.Table, row.Index, row.Status)
				}
				return nil
			}

			summary, err := importer.Import(ctx, cfg.Tenant, cliActor, &payload)
			if err != nil {
				return err
			}
			for _, warning := range summary.Warnings {
				fmt.Printf("warning: %s\n", warning)
			}
			for _, row := range summary.Errors {
				fmt.Printf("skipped %s[%d]: %v\n", row.Table, row.Index, row.Errors)
			}
			fmt.Printf("%d imported, %d skipped\n", summary.Succeeded, summary.Skipped)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate without writing")
	return cmd
}
