package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/fleetpunch/attendance-backend/internal/attendance"
	"github.com/fleetpunch/attendance-backend/internal/reconcile"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ReconcileCmd returns the reconcile command
func ReconcileCmd() *cobra.Command {
	var (
		date   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run the daily attendance batch once",
		Long: `Mark absent every active worker with no attendance for the date and
auto-close sessions that were never punched out. Safe to re-run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, d, err := connect()
			if err != nil {
				return err
			}

			dir := attendance.NewGormDirectory(d)
			svc := attendance.NewService(d, dir, cfg.Policy)
			r := reconcile.NewRunner(dir, svc)

			if date == "" {
				date = r.Today()
			}

			sum, err := r.Run(context.Background(), date)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(sum)
			}
			printSummary(os.Stdout, sum)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "business date to reconcile (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func printSummary(w io.Writer, sum reconcile.Summary) {
	p := message.NewPrinter(language.English)

	status := color.New(color.FgGreen).Sprint("OK")
	if sum.Errors > 0 {
		status = color.New(color.FgYellow).Sprintf("%d ERRORS", sum.Errors)
	}

	fmt.Fprintf(w, "Reconcile %s [%s]\n", sum.Date, status)
	p.Fprintf(w, "  active workers:  %d\n", sum.ActiveCount)
	p.Fprintf(w, "  marked absent:   %d\n", sum.MarkedAbsent)
	p.Fprintf(w, "  already marked:  %d\n", sum.AlreadyMarked)
	p.Fprintf(w, "  auto-closed:     %d\n", sum.AutoClosed)
	p.Fprintf(w, "  carried over:    %d\n", sum.CarriedOver)

	for _, f := range sum.Failures {
		fmt.Fprintf(w, "  %s %s (%s): %s\n", color.New(color.FgRed).Sprint("✗"), f.WorkerID, f.Step, f.Reason)
	}
}
