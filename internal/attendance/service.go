package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/fleetpunch/attendance-backend/internal/config"
	"github.com/fleetpunch/attendance-backend/internal/db"
	"github.com/fleetpunch/attendance-backend/internal/geo"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ping is one device observation: where, how precise, and when.
type Ping struct {
	Coordinate geo.Coordinate
	Accuracy   float64
	// At defaults to the service clock when zero.
	At         time.Time
}

// IngestResult is the outcome of a location ping. When Debounced is set,
// Point is the previously accepted point and nothing was written.
type IngestResult struct {
	Point     TrackPoint
	Debounced bool
}

// SessionView is a session plus its derived counters.
type SessionView struct {
	Session             *Session `json:"attendance"`
	Open                bool     `json:"open"`
	ActualDeliveryCount int      `json:"actual_delivery_count"`
	TrackedPoints       int      `json:"tracked_points"`
}

// Service is the punch state machine and ping pipeline. Every mutation for a
// (worker, date) pair runs under the same keyed lock and inside a transaction
// that locks the session row.
type Service struct {
	db     *gorm.DB
	store  *Store
	dir    Directory
	fence  *geo.Validator
	locks  *KeyedLock
	policy config.Policy
	now    func() time.Time
}

func NewService(d *gorm.DB, dir Directory, policy config.Policy) *Service {
	return &Service{
		db:     d,
		store:  NewStore(d),
		dir:    dir,
		fence:  geo.NewValidator(dir),
		locks:  NewKeyedLock(),
		policy: policy,
		now:    time.Now,
	}
}

// WithClock replaces the service clock. Used by tests and the batch CLI.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Store() *Store { return s.store }

func (s *Service) Directory() Directory { return s.dir }

func (s *Service) Now() time.Time { return s.now().UTC() }

// DateOf returns the business calendar date containing t.
func (s *Service) DateOf(t time.Time) string {
	return t.In(s.policy.Location()).Format(DateLayout)
}

// CurrentDate is today's business date by the service clock.
func (s *Service) CurrentDate() string {
	return s.DateOf(s.now())
}

func (s *Service) normalize(p Ping) (Ping, error) {
	if err := p.Coordinate.Validate(); err != nil {
		return p, invalidLocation(err)
	}
	if math.IsNaN(p.Accuracy) || math.IsInf(p.Accuracy, 0) || p.Accuracy < 0 {
		return p, invalidLocation(fmt.Errorf("accuracy %v must be a non-negative number", p.Accuracy))
	}
	if p.At.IsZero() {
		p.At = s.now()
	}
	p.At = p.At.UTC()
	return p, nil
}

// PunchIn opens a present session for the worker for today after checking
// the worker, the existing session and the geofence. The punch-in time is the
// service clock; p.At is ignored so a client cannot open a session on
// another date.
func (s *Service) PunchIn(ctx context.Context, workerID string, p Ping) (*Session, error) {
	p.At = s.now()
	p, err := s.normalize(p)
	if err != nil {
		return nil, err
	}
	date := s.DateOf(p.At)

	unlock := s.locks.Lock(sessionKey(workerID, date))
	defer unlock()

	var worker *Worker
	w, err := s.dir.Worker(ctx, workerID)
	switch {
	case err == nil:
		worker = &w
	case !errors.Is(err, ErrWorkerNotFound):
		return nil, err
	}

	existing, err := s.store.FindSession(ctx, workerID, date)
	if err != nil {
		return nil, err
	}
	if err := CanPunchIn(PunchInContext{Worker: worker, Existing: existing}); err != nil {
		return nil, err
	}

	fence, err := s.fence.Validate(ctx, workerID, p.Coordinate)
	if err != nil {
		return nil, fromGeofence(err)
	}
	if !fence.Inside {
		return nil, locationOutOfBounds(fence.DistanceMeters, fence.RadiusMeters)
	}

	expected, err := s.dir.ExpectedDeliveries(ctx, workerID)
	if err != nil {
		return nil, err
	}

	at := p.At
	lat, lon, acc := p.Coordinate.Latitude, p.Coordinate.Longitude, p.Accuracy
	pointID, dist, radius := fence.PointID, fence.DistanceMeters, fence.RadiusMeters
	sess := &Session{
		ID:                    uuid.New(),
		WorkerID:              workerID,
		WorkDate:              date,
		Status:                StatusPresent,
		PunchInAt:             &at,
		PunchInLatitude:       &lat,
		PunchInLongitude:      &lon,
		PunchInAccuracy:       &acc,
		PointID:               &pointID,
		GeofenceDistanceM:     &dist,
		GeofenceRadiusM:       &radius,
		ExpectedDeliveryCount: expected,
		Version:               1,
	}
	first := &TrackPoint{
		ID:           uuid.New(),
		AttendanceID: sess.ID,
		Seq:          1,
		WorkerID:     workerID,
		Latitude:     lat,
		Longitude:    lon,
		Accuracy:     acc,
		RecordedAt:   at,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sess).Error; err != nil {
			return err
		}
		return tx.Create(first).Error
	})
	if db.IsUniqueViolation(err) {
		// Lost the insert race to another process holding the same date.
		if existing, ferr := s.store.FindSession(ctx, workerID, date); ferr == nil {
			if gerr := CanPunchIn(PunchInContext{Worker: worker, Existing: existing}); gerr != nil {
				return nil, gerr
			}
		}
		return nil, ErrAlreadyPunchedIn
	}
	if err != nil {
		return nil, fmt.Errorf("create session for %s on %s: %w", workerID, date, err)
	}

	log.Printf("[attendance] punch-in worker=%s date=%s point=%s distance=%.1fm expected=%v",
		workerID, date, pointID, dist, derefInt(expected))
	return sess, nil
}

// IngestLocation appends a ping to today's open session, unless it falls
// inside the debounce window of the last accepted point.
func (s *Service) IngestLocation(ctx context.Context, workerID string, p Ping) (IngestResult, error) {
	p, err := s.normalize(p)
	if err != nil {
		return IngestResult{}, err
	}
	date := s.CurrentDate()

	unlock := s.locks.Lock(sessionKey(workerID, date))
	defer unlock()

	var res IngestResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sess, err := findSession(tx, workerID, date, true)
		if err != nil {
			return err
		}
		if err := CanAppend(sess); err != nil {
			return err
		}

		last, err := lastTrackPoint(tx, sess.ID.String())
		if err != nil {
			return err
		}
		if ShouldDebounce(last, p.At, s.policy.DebounceWindow) {
			res = IngestResult{Point: *last, Debounced: true}
			return nil
		}

		seq := 1
		if last != nil {
			seq = last.Seq + 1
		}
		pt := TrackPoint{
			ID:           uuid.New(),
			AttendanceID: sess.ID,
			Seq:          seq,
			WorkerID:     workerID,
			Latitude:     p.Coordinate.Latitude,
			Longitude:    p.Coordinate.Longitude,
			Accuracy:     p.Accuracy,
			RecordedAt:   p.At,
		}
		if err := tx.Create(&pt).Error; err != nil {
			if db.IsUniqueViolation(err) {
				return ErrConcurrentUpdate
			}
			return fmt.Errorf("append track point: %w", err)
		}
		if err := updateSession(tx, sess, map[string]any{}); err != nil {
			return err
		}

		res = IngestResult{Point: pt}
		return nil
	})
	if err != nil {
		return IngestResult{}, err
	}
	return res, nil
}

// PunchOut closes today's session once every expected delivery is recorded,
// storing the accrued route distance.
func (s *Service) PunchOut(ctx context.Context, workerID string, p Ping) (*Session, error) {
	p, err := s.normalize(p)
	if err != nil {
		return nil, err
	}
	date := s.CurrentDate()

	unlock := s.locks.Lock(sessionKey(workerID, date))
	defer unlock()

	var closed *Session
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sess, err := findSession(tx, workerID, date, true)
		if err != nil {
			return err
		}
		if err := CanPunchOut(PunchOutContext{Session: sess, When: p.At}); err != nil {
			return err
		}

		actual, err := countDeliveries(tx, sess.ID.String())
		if err != nil {
			return err
		}
		if err := CheckDeliveries(sess.ExpectedDeliveryCount, actual); err != nil {
			return err
		}

		path, err := loadPath(tx, sess.ID.String())
		if err != nil {
			return err
		}

		if err := updateSession(tx, sess, map[string]any{
			"punch_out_at":        p.At,
			"punch_out_latitude":  p.Coordinate.Latitude,
			"punch_out_longitude": p.Coordinate.Longitude,
			"punch_out_accuracy":  p.Accuracy,
			"distance_km":         AccrueDistance(path),
		}); err != nil {
			return err
		}
		closed = sess
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[attendance] punch-out worker=%s date=%s distance=%.3fkm", workerID, date, derefFloat(closed.DistanceKm))
	return closed, nil
}

// ForceClose closes an open session without the delivery gate and marks it
// auto-closed. It reports false when there was nothing open to close, which
// makes re-runs harmless.
func (s *Service) ForceClose(ctx context.Context, workerID, date string, runAt time.Time) (*Session, bool, error) {
	unlock := s.locks.Lock(sessionKey(workerID, date))
	defer unlock()

	var closed *Session
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sess, err := findSession(tx, workerID, date, true)
		if err != nil {
			return err
		}
		if !sess.IsOpen() {
			return nil
		}

		path, err := loadPath(tx, sess.ID.String())
		if err != nil {
			return err
		}

		if err := updateSession(tx, sess, map[string]any{
			"punch_out_at": ForceCloseTime(sess, runAt.UTC()),
			"distance_km":  AccrueDistance(path),
			"auto_closed":  true,
		}); err != nil {
			return err
		}
		closed = sess
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return closed, closed != nil, nil
}

// MarkAbsent creates an absent session for a worker with none on date. It
// reports false when a session already existed.
func (s *Service) MarkAbsent(ctx context.Context, workerID, date string) (bool, error) {
	unlock := s.locks.Lock(sessionKey(workerID, date))
	defer unlock()

	existing, err := s.store.FindSession(ctx, workerID, date)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	return insertAbsent(s.db.WithContext(ctx), &Session{
		ID:       uuid.New(),
		WorkerID: workerID,
		WorkDate: date,
		Status:   StatusAbsent,
		Version:  1,
	})
}

// RecordDelivery stores a committed delivery against today's open session.
func (s *Service) RecordDelivery(ctx context.Context, workerID string, p Ping) (*DeliveryEvent, error) {
	p, err := s.normalize(p)
	if err != nil {
		return nil, err
	}
	date := s.CurrentDate()

	unlock := s.locks.Lock(sessionKey(workerID, date))
	defer unlock()

	var ev *DeliveryEvent
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sess, err := findSession(tx, workerID, date, true)
		if err != nil {
			return err
		}
		if err := CanAppend(sess); err != nil {
			return err
		}

		e := &DeliveryEvent{
			ID:           uuid.New(),
			AttendanceID: sess.ID,
			WorkerID:     workerID,
			Latitude:     p.Coordinate.Latitude,
			Longitude:    p.Coordinate.Longitude,
			Accuracy:     p.Accuracy,
			RecordedAt:   p.At,
			Committed:    true,
		}
		if err := tx.Create(e).Error; err != nil {
			return fmt.Errorf("record delivery: %w", err)
		}
		if err := updateSession(tx, sess, map[string]any{}); err != nil {
			return err
		}
		ev = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// OpenSessions lists sessions for date that are present and not punched out.
func (s *Service) OpenSessions(ctx context.Context, date string) ([]Session, error) {
	return s.store.OpenSessions(ctx, date)
}

// StaleOpenSessions lists sessions dated before date that are still open.
func (s *Service) StaleOpenSessions(ctx context.Context, date string) ([]Session, error) {
	return s.store.OpenSessionsBefore(ctx, date)
}

// Current returns today's session for the worker with derived counters, or
// nil when there is none.
func (s *Service) Current(ctx context.Context, workerID string) (*SessionView, error) {
	sess, err := s.store.FindSession(ctx, workerID, s.CurrentDate())
	if err != nil || sess == nil {
		return nil, err
	}
	return s.view(ctx, sess)
}

// Track returns the tracked path of one of the worker's sessions.
func (s *Service) Track(ctx context.Context, workerID string, sessionID uuid.UUID) ([]TrackPoint, error) {
	var sess Session
	err := s.db.WithContext(ctx).Take(&sess, "id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && sess.WorkerID != workerID) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	return s.store.Path(ctx, sess.ID)
}

func (s *Service) view(ctx context.Context, sess *Session) (*SessionView, error) {
	actual, err := s.store.DeliveryCount(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	path, err := s.store.Path(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	return &SessionView{
		Session:             sess,
		Open:                sess.IsOpen(),
		ActualDeliveryCount: actual,
		TrackedPoints:       len(path),
	}, nil
}

func derefInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
