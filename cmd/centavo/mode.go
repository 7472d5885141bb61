package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hollis/centavo/internal/repository"
)

func modeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mode",
		Short: "Show or switch the storage backend",
		Long: `Show the active storage mode or switch to another one.

Modes: cloud (PostgreSQL), local (SQLite), demo (in-memory sample data).
Switching never migrates data between backends; each backend keeps its own.
Demo data is seeded on entry and discarded on exit.`,
	}

	cmd.AddCommand(modeShowCmd())
	cmd.AddCommand(modeSwitchCmd())
	return cmd
}

func modeShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the active storage mode",
		RunE: func(cmd *cobra.Command, _ []string) error {
			provider, _, err := initProvider(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = provider.Close() }()

			fmt.Println(provider.Mode())
			return nil
		},
	}
}

func modeSwitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch <cloud|local|demo>",
		Short: "Switch to another storage backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := repository.ParseMode(args[0])
			if err != nil {
				return err
			}

			provider, _, err := initProvider(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = provider.Close() }()

			if err := provider.Switch(cmd.Context(), target); err != nil {
				return err
			}
			fmt.Printf("storage mode: %s\n", provider.Mode())
			return nil
		},
	}
}
