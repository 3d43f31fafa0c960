package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/fleetpunch/attendance-backend/internal/seeds"
	"github.com/spf13/cobra"
)

// SeedCmd returns the seed command
func SeedCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load workers, routes, points and tokens from a YAML file",
		Long: `Upsert HR reference data and bearer tokens from a YAML seed file.
Rows are matched by id, so the same file can be loaded repeatedly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := seeds.Load(path)
			if err != nil {
				return err
			}

			_, d, err := connect()
			if err != nil {
				return err
			}

			c, err := seeds.SeedAll(d, f)
			if err != nil {
				return err
			}

			fmt.Printf("%s seeded %d points, %d routes, %d workers, %d tokens\n",
				color.New(color.FgGreen).Sprint("✓"), c.Points, c.Routes, c.Workers, c.Tokens)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", seeds.DefaultPath, "seed file")
	return cmd
}
