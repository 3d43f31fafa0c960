package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/fleetpunch/attendance-backend/internal/attendance"
	"github.com/fleetpunch/attendance-backend/internal/auth"
	"github.com/spf13/cobra"
)

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the attendance tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, d, err := connect()
			if err != nil {
				return err
			}

			if err := attendance.Migrate(d); err != nil {
				return err
			}
			if err := auth.Migrate(d); err != nil {
				return err
			}

			fmt.Printf("%s schema %s is up to date\n", color.New(color.FgGreen).Sprint("✓"), cfg.Schema)
			return nil
		},
	}
}
