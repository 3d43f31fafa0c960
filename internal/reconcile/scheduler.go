package reconcile

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/robfig/cron/v3"
)

// runTimeout bounds one scheduled run.
const runTimeout = 10 * time.Minute

// StartCron runs r daily on spec, evaluated in loc. Overlapping runs are
// skipped. The caller stops the returned scheduler on shutdown.
func StartCron(r *Runner, spec string, loc *time.Location) (*cron.Cron, error) {
	logger := cron.VerbosePrintfLogger(log.New(os.Stdout, "[cron] ", log.LstdFlags))

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		if _, err := r.Run(ctx, r.Today()); err != nil {
			log.Printf("[reconcile] scheduled run failed: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("add reconcile schedule %q: %w", spec, err)
	}

	c.Start()
	log.Printf("[reconcile] scheduled %q in %s", spec, loc)
	return c, nil
}
