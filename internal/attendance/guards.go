package attendance

import "time"

// Guards are pure functions over already-loaded state. They return nil when
// the transition is allowed and a domain *Error otherwise.

// PunchInContext provides context for punch-in guards.
type PunchInContext struct {
	Worker   *Worker
	Existing *Session
}

// CanPunchIn evaluates whether a worker may open a session.
// Rules:
// - Worker must exist and be active
// - No non-cancelled session may exist for the date
func CanPunchIn(ctx PunchInContext) error {
	if ctx.Worker == nil {
		return ErrEmployeeNotFound
	}
	if !ctx.Worker.IsActive() {
		return ErrEmployeeNotActive
	}
	if ctx.Existing != nil && ctx.Existing.Status != StatusCancelled {
		if ctx.Existing.Status == StatusPresent {
			return alreadyPunchedIn(ctx.Existing.PunchInAt)
		}
		return ErrAttendanceExists
	}
	return nil
}

// CanAppend evaluates whether a session accepts path points or deliveries.
// Rules:
// - A present session must exist for today
// - It must not be punched out
func CanAppend(s *Session) error {
	if s == nil || s.Status != StatusPresent {
		return ErrNoApprovedAttendanceToday
	}
	if s.PunchOutAt != nil {
		return ErrNoOpenSession
	}
	return nil
}

// PunchOutContext provides context for punch-out guards.
type PunchOutContext struct {
	Session *Session
	When    time.Time
}

// CanPunchOut evaluates the state preconditions of punch-out. The delivery
// gate is checked separately by CheckDeliveries.
// Rules:
// - A present session with a punch-in must exist
// - It must not already be punched out
// - The punch-out time must be strictly after the punch-in time
func CanPunchOut(ctx PunchOutContext) error {
	s := ctx.Session
	if s == nil || s.Status != StatusPresent || s.PunchInAt == nil {
		return ErrNoPunchIn
	}
	if s.PunchOutAt != nil {
		return alreadyPunchedOut(s.PunchOutAt)
	}
	if !ctx.When.After(*s.PunchInAt) {
		return ErrPunchOutBeforePunchIn
	}
	return nil
}

// CheckDeliveries is the reconciliation gate. A missing expected count is
// treated as zero.
func CheckDeliveries(expected *int, actual int) error {
	want := 0
	if expected != nil {
		want = *expected
	}
	if actual != want {
		return invalidDeliveryCount(want, actual)
	}
	return nil
}

// ShouldDebounce reports whether a ping at when falls inside the window
// after the last accepted point. Pings older than the last point are also
// swallowed so the path never goes backwards in time.
func ShouldDebounce(last *TrackPoint, when time.Time, window time.Duration) bool {
	if last == nil {
		return false
	}
	return when.Sub(last.RecordedAt) < window
}

// ForceCloseTime picks the punch-out time for an auto-close: the batch run
// time, pushed to one second after punch-in if the run time is not later.
func ForceCloseTime(s *Session, runAt time.Time) time.Time {
	if s.PunchInAt != nil && !runAt.After(*s.PunchInAt) {
		return s.PunchInAt.Add(time.Second)
	}
	return runAt
}
