package main

import (
	"fmt"
	"os"

	"github.com/fleetpunch/attendance-backend/internal/cli"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "attendancectl",
		Short: "Operate the field attendance backend",
		Long: `attendancectl runs one-off maintenance against the attendance database:
schema migration, reference data seeding and the daily reconciliation batch.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.MigrateCmd())
	rootCmd.AddCommand(cli.SeedCmd())
	rootCmd.AddCommand(cli.ReconcileCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
