// Package reconcile is the end-of-day batch: it fills absences for the active
// roster and force-closes sessions nobody punched out of.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fleetpunch/attendance-backend/internal/attendance"
)

var ErrInvalidDate = errors.New("invalid date")

// Failure is one worker the batch could not process.
type Failure struct {
	WorkerID string `json:"worker_id"`
	Step     string `json:"step"`
	Reason   string `json:"reason"`
}

// Summary is the outcome of one batch run.
type Summary struct {
	Date          string    `json:"date"`
	RunAt         time.Time `json:"run_at"`
	ActiveCount   int       `json:"active_count"`
	MarkedAbsent  int       `json:"marked_absent"`
	AlreadyMarked int       `json:"already_marked"`
	AutoClosed    int       `json:"auto_closed"`
	CarriedOver   int       `json:"carried_over"`
	Errors        int       `json:"errors"`
	Failures      []Failure `json:"failures,omitempty"`
}

func (s *Summary) fail(workerID, step string, err error) {
	s.Errors++
	s.Failures = append(s.Failures, Failure{WorkerID: workerID, Step: step, Reason: err.Error()})
	log.Printf("[reconcile] %s failed for worker=%s date=%s: %v", step, workerID, s.Date, err)
}

// Roster lists the workers expected at work on a date.
type Roster interface {
	ActiveWorkers(ctx context.Context, date string) ([]attendance.Worker, error)
}

// Sessions is the part of the attendance service the batch drives.
type Sessions interface {
	MarkAbsent(ctx context.Context, workerID, date string) (bool, error)
	OpenSessions(ctx context.Context, date string) ([]attendance.Session, error)
	StaleOpenSessions(ctx context.Context, date string) ([]attendance.Session, error)
	ForceClose(ctx context.Context, workerID, date string, runAt time.Time) (*attendance.Session, bool, error)
	Now() time.Time
	CurrentDate() string
}

type Runner struct {
	roster   Roster
	sessions Sessions
}

func NewRunner(roster Roster, sessions Sessions) *Runner {
	return &Runner{roster: roster, sessions: sessions}
}

// Today is the business date the scheduled run reconciles.
func (r *Runner) Today() string {
	return r.sessions.CurrentDate()
}

// Run reconciles date. Sessions from earlier dates that are still open, such
// as ones opened after the previous run, are closed too and counted as
// carried over. Per-worker failures are recorded in the summary and do not
// stop the run; only failing to read the roster or the open-session lists
// returns an error. Running twice for the same date changes nothing the
// second time.
func (r *Runner) Run(ctx context.Context, date string) (Summary, error) {
	sum := Summary{Date: date, RunAt: r.sessions.Now()}

	if _, err := time.Parse(attendance.DateLayout, date); err != nil {
		return sum, fmt.Errorf("%w %q: %v", ErrInvalidDate, date, err)
	}

	workers, err := r.roster.ActiveWorkers(ctx, date)
	if err != nil {
		return sum, fmt.Errorf("load roster for %s: %w", date, err)
	}
	sum.ActiveCount = len(workers)

	for _, w := range workers {
		created, err := r.sessions.MarkAbsent(ctx, w.ID, date)
		if err != nil {
			sum.fail(w.ID, "mark_absent", err)
			continue
		}
		if created {
			sum.MarkedAbsent++
		} else {
			sum.AlreadyMarked++
		}
	}

	stale, err := r.sessions.StaleOpenSessions(ctx, date)
	if err != nil {
		return sum, fmt.Errorf("list open sessions before %s: %w", date, err)
	}
	for _, s := range stale {
		if r.forceClose(ctx, &sum, s) {
			sum.CarriedOver++
		}
	}

	open, err := r.sessions.OpenSessions(ctx, date)
	if err != nil {
		return sum, fmt.Errorf("list open sessions for %s: %w", date, err)
	}
	for _, s := range open {
		r.forceClose(ctx, &sum, s)
	}

	log.Printf("[reconcile] date=%s active=%d marked_absent=%d already_marked=%d auto_closed=%d carried_over=%d errors=%d",
		sum.Date, sum.ActiveCount, sum.MarkedAbsent, sum.AlreadyMarked, sum.AutoClosed, sum.CarriedOver, sum.Errors)
	return sum, nil
}

func (r *Runner) forceClose(ctx context.Context, sum *Summary, s attendance.Session) bool {
	closed, ok, err := r.sessions.ForceClose(ctx, s.WorkerID, s.WorkDate, sum.RunAt)
	if err != nil {
		sum.fail(s.WorkerID, "force_close", err)
		return false
	}
	if ok {
		sum.AutoClosed++
		log.Printf("[reconcile] auto-closed worker=%s date=%s distance=%.3fkm",
			s.WorkerID, s.WorkDate, *closed.DistanceKm)
	}
	return ok
}
