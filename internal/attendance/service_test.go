package attendance

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/fleetpunch/attendance-backend/internal/config"
	"github.com/fleetpunch/attendance-backend/internal/db"
	"github.com/fleetpunch/attendance-backend/internal/db/dbtest"
	"github.com/fleetpunch/attendance-backend/internal/geo"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var hub = geo.Coordinate{Latitude: 17.4375, Longitude: 78.4482}

// 10:00 in Asia/Kolkata, same calendar day in UTC.
var t0 = time.Date(2026, 3, 10, 4, 30, 0, 0, time.UTC)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func fptr(v float64) *float64 { return &v }
func sptr(v string) *string   { return &v }
func iptr(v int) *int         { return &v }

type fixture struct {
	db    *gorm.DB
	svc   *Service
	clock *testClock
}

func seed(t *testing.T, d *gorm.DB, rows ...any) {
	t.Helper()
	for _, row := range rows {
		if err := d.Create(row).Error; err != nil {
			t.Fatalf("seed %T: %v", row, err)
		}
	}
}

// newFixture seeds worker W-1 on route R-1 (4 deliveries) checking in at
// PT-1, a 100 m fence around hub.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	d := dbtest.Open(t)
	if err := Migrate(d); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	seed(t, d,
		&Point{ID: "PT-1", Name: "Ameerpet Hub", Latitude: fptr(hub.Latitude), Longitude: fptr(hub.Longitude), RadiusMeters: fptr(100), Active: true},
		&Route{ID: "R-1", Name: "Ameerpet North", PointID: sptr("PT-1"), TotalDelivery: iptr(4)},
		&Worker{ID: "W-1", Name: "Ravi", Status: WorkerActive, RouteID: sptr("R-1")},
	)

	clock := &testClock{t: t0}
	svc := NewService(d, NewGormDirectory(d), config.DefaultPolicy()).WithClock(clock.Now)
	return &fixture{db: d, svc: svc, clock: clock}
}

// offset returns a coordinate roughly meters north of hub.
func offset(meters float64) geo.Coordinate {
	return geo.Coordinate{
		Latitude:  hub.Latitude + meters/geo.EarthRadiusMeters*180/math.Pi,
		Longitude: hub.Longitude,
	}
}

func (f *fixture) punchIn(t *testing.T, workerID string) *Session {
	t.Helper()
	sess, err := f.svc.PunchIn(context.Background(), workerID, Ping{Coordinate: hub, Accuracy: 5, At: t0})
	if err != nil {
		t.Fatalf("PunchIn: %v", err)
	}
	return sess
}

func (f *fixture) deliveries(t *testing.T, workerID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := f.svc.RecordDelivery(context.Background(), workerID, Ping{Coordinate: hub}); err != nil {
			t.Fatalf("RecordDelivery %d: %v", i+1, err)
		}
	}
}

func TestHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess := f.punchIn(t, "W-1")
	if sess.Status != StatusPresent || !sess.IsOpen() {
		t.Fatalf("session not open: %+v", sess)
	}
	if sess.ExpectedDeliveryCount == nil || *sess.ExpectedDeliveryCount != 4 {
		t.Errorf("expected delivery snapshot = %v, want 4", sess.ExpectedDeliveryCount)
	}

	for i := 1; i <= 4; i++ {
		res, err := f.svc.IngestLocation(ctx, "W-1", Ping{
			Coordinate: offset(float64(i) * 500),
			Accuracy:   8,
			At:         t0.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("IngestLocation %d: %v", i, err)
		}
		if res.Debounced {
			t.Fatalf("ping %d unexpectedly debounced", i)
		}
		if res.Point.Seq != i+1 {
			t.Errorf("ping %d seq = %d, want %d", i, res.Point.Seq, i+1)
		}
	}

	f.deliveries(t, "W-1", 4)

	closed, err := f.svc.PunchOut(ctx, "W-1", Ping{Coordinate: offset(2000), At: t0.Add(8 * time.Hour)})
	if err != nil {
		t.Fatalf("PunchOut: %v", err)
	}

	path, err := f.svc.Store().Path(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if len(path) != 5 {
		t.Fatalf("path has %d points, want 5", len(path))
	}

	want := geo.PathLength(PathCoordinates(path))
	if closed.DistanceKm == nil || math.Abs(*closed.DistanceKm-want) > 1e-9 {
		t.Errorf("distance_km = %v, want %v", closed.DistanceKm, want)
	}
	if math.Abs(want-2.0) > 0.01 {
		t.Errorf("path length = %v km, want about 2", want)
	}
	if closed.PunchOutAt == nil || !closed.PunchOutAt.After(*closed.PunchInAt) {
		t.Errorf("punch_out_at %v not after punch_in_at %v", closed.PunchOutAt, closed.PunchInAt)
	}
	if closed.AutoClosed {
		t.Error("manual punch-out marked auto-closed")
	}
	if closed.IsOpen() {
		t.Error("session still open after punch-out")
	}
}

func TestPunchOutDeliveryGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess := f.punchIn(t, "W-1")
	f.deliveries(t, "W-1", 3)

	before, err := f.svc.Store().FindSession(ctx, "W-1", sess.WorkDate)
	if err != nil {
		t.Fatalf("FindSession: %v", err)
	}

	_, err = f.svc.PunchOut(ctx, "W-1", Ping{Coordinate: hub, At: t0.Add(time.Hour)})
	if !errors.Is(err, ErrInvalidDeliveryCount) {
		t.Fatalf("err = %v, want ErrInvalidDeliveryCount", err)
	}
	de, _ := DomainError(err)
	if de.Details["expected"] != 4 || de.Details["actual"] != 3 {
		t.Errorf("details = %v, want expected 4 actual 3", de.Details)
	}

	after, err := f.svc.Store().FindSession(ctx, "W-1", sess.WorkDate)
	if err != nil {
		t.Fatalf("FindSession: %v", err)
	}
	if after.PunchOutAt != nil || after.DistanceKm != nil || after.Version != before.Version {
		t.Errorf("rejected punch-out mutated the session: before %+v after %+v", before, after)
	}

	f.deliveries(t, "W-1", 1)
	if _, err := f.svc.PunchOut(ctx, "W-1", Ping{Coordinate: hub, At: t0.Add(time.Hour)}); err != nil {
		t.Fatalf("PunchOut with 4 of 4: %v", err)
	}
}

func TestPunchOutMissingExpectedCountIsZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.db.Model(&Route{}).Where("id = ?", "R-1").Update("total_delivery", nil).Error; err != nil {
		t.Fatalf("clear total_delivery: %v", err)
	}
	f.punchIn(t, "W-1")

	if _, err := f.svc.PunchOut(ctx, "W-1", Ping{Coordinate: hub, At: t0.Add(time.Hour)}); err != nil {
		t.Fatalf("PunchOut with no expected count and no deliveries: %v", err)
	}
}

func TestPunchInGeofenceBoundary(t *testing.T) {
	probe := offset(250)
	edge := geo.Distance(hub, probe)

	tests := []struct {
		name    string
		radius  float64
		wantErr error
	}{
		{name: "probe exactly on the radius", radius: edge},
		{name: "probe one meter outside", radius: edge - 1, wantErr: ErrLocationOutOfBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if err := f.db.Model(&Point{}).Where("id = ?", "PT-1").Update("radius_meters", tt.radius).Error; err != nil {
				t.Fatalf("update radius: %v", err)
			}

			sess, err := f.svc.PunchIn(context.Background(), "W-1", Ping{Coordinate: probe, At: t0})
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("PunchIn: %v", err)
				}
				if *sess.GeofenceDistanceM != edge {
					t.Errorf("snapshot distance = %v, want %v", *sess.GeofenceDistanceM, edge)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			de, _ := DomainError(err)
			if de.Details["allowed_radius"] != tt.radius || de.Details["distance"] != edge {
				t.Errorf("details = %v", de.Details)
			}

			existing, err := f.svc.Store().FindSession(context.Background(), "W-1", "2026-03-10")
			if err != nil || existing != nil {
				t.Errorf("rejected punch-in left a session: %+v (err %v)", existing, err)
			}
		})
	}
}

func TestPunchInRejections(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, f *fixture)
		worker  string
		coord   geo.Coordinate
		wantErr error
	}{
		{
			name:    "unknown worker",
			worker:  "W-404",
			coord:   hub,
			wantErr: ErrEmployeeNotFound,
		},
		{
			name: "inactive worker",
			setup: func(t *testing.T, f *fixture) {
				seed(t, f.db, &Worker{ID: "W-2", Status: "left", RouteID: sptr("R-1")})
			},
			worker:  "W-2",
			coord:   hub,
			wantErr: ErrEmployeeNotActive,
		},
		{
			name: "no route",
			setup: func(t *testing.T, f *fixture) {
				seed(t, f.db, &Worker{ID: "W-3", Status: WorkerActive})
			},
			worker:  "W-3",
			coord:   hub,
			wantErr: ErrNoRouteAssigned,
		},
		{
			name: "route without point",
			setup: func(t *testing.T, f *fixture) {
				seed(t, f.db,
					&Route{ID: "R-2", Name: "Unplanned"},
					&Worker{ID: "W-4", Status: WorkerActive, RouteID: sptr("R-2")},
				)
			},
			worker:  "W-4",
			coord:   hub,
			wantErr: ErrNoPointAssigned,
		},
		{
			name: "inactive point",
			setup: func(t *testing.T, f *fixture) {
				seed(t, f.db,
					&Point{ID: "PT-2", Latitude: fptr(hub.Latitude), Longitude: fptr(hub.Longitude), RadiusMeters: fptr(100)},
					&Route{ID: "R-3", PointID: sptr("PT-2")},
					&Worker{ID: "W-5", Status: WorkerActive, RouteID: sptr("R-3")},
				)
			},
			worker:  "W-5",
			coord:   hub,
			wantErr: ErrPointNotActive,
		},
		{
			name: "point without radius",
			setup: func(t *testing.T, f *fixture) {
				seed(t, f.db,
					&Point{ID: "PT-3", Latitude: fptr(hub.Latitude), Longitude: fptr(hub.Longitude), Active: true},
					&Route{ID: "R-4", PointID: sptr("PT-3")},
					&Worker{ID: "W-6", Status: WorkerActive, RouteID: sptr("R-4")},
				)
			},
			worker:  "W-6",
			coord:   hub,
			wantErr: ErrIncompletePointData,
		},
		{
			name: "already marked absent",
			setup: func(t *testing.T, f *fixture) {
				if _, err := f.svc.MarkAbsent(context.Background(), "W-1", "2026-03-10"); err != nil {
					t.Fatalf("MarkAbsent: %v", err)
				}
			},
			worker:  "W-1",
			coord:   hub,
			wantErr: ErrAttendanceExists,
		},
		{
			name:    "latitude out of range",
			worker:  "W-1",
			coord:   geo.Coordinate{Latitude: 91, Longitude: 78},
			wantErr: ErrInvalidLocation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(t, f)
			}

			_, err := f.svc.PunchIn(context.Background(), tt.worker, Ping{Coordinate: tt.coord, At: t0})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConcurrentPunchInCreatesOneSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		dupes     int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.PunchIn(ctx, "W-1", Ping{Coordinate: hub, At: t0})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrAlreadyPunchedIn):
				dupes++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || dupes != n-1 {
		t.Errorf("successes = %d, duplicates = %d", successes, dupes)
	}

	var count int64
	f.db.Model(&Session{}).Where("worker_id = ? AND work_date = ?", "W-1", "2026-03-10").Count(&count)
	if count != 1 {
		t.Errorf("sessions = %d, want 1", count)
	}
}

func TestPunchInUsesServerDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.PunchIn(ctx, "W-1", Ping{Coordinate: hub, At: t0.Add(-72 * time.Hour)})
	if err != nil {
		t.Fatalf("PunchIn: %v", err)
	}
	if sess.WorkDate != "2026-03-10" || !sess.PunchInAt.Equal(t0) {
		t.Errorf("session date=%s punch_in_at=%v, want 2026-03-10 at %v", sess.WorkDate, sess.PunchInAt, t0)
	}

	if _, err := f.svc.IngestLocation(ctx, "W-1", Ping{Coordinate: offset(50), At: t0.Add(time.Minute)}); err != nil {
		t.Errorf("IngestLocation after punch-in: %v", err)
	}

	_, err = f.svc.PunchIn(ctx, "W-1", Ping{Coordinate: hub})
	if !errors.Is(err, ErrAlreadyPunchedIn) {
		t.Errorf("second punch-in err = %v, want ErrAlreadyPunchedIn", err)
	}

	var count int64
	f.db.Model(&Session{}).Where("worker_id = ?", "W-1").Count(&count)
	if count != 1 {
		t.Errorf("sessions = %d, want 1", count)
	}
}

func TestConcurrentPingsAppendOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess := f.punchIn(t, "W-1")

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		appended  int
		debounced int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.IngestLocation(ctx, "W-1", Ping{Coordinate: offset(40), At: t0.Add(15 * time.Second)})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				t.Errorf("IngestLocation: %v", err)
			case res.Debounced:
				debounced++
			default:
				appended++
			}
		}()
	}
	wg.Wait()

	if appended != 1 || debounced != n-1 {
		t.Errorf("appended = %d, debounced = %d", appended, debounced)
	}

	path, err := f.svc.Store().Path(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if len(path) != 2 {
		t.Errorf("path has %d points, want 2", len(path))
	}
}

func TestUniqueSessionIndex(t *testing.T) {
	f := newFixture(t)

	mk := func(status Status) *Session {
		return &Session{ID: uuid.New(), WorkerID: "W-1", WorkDate: "2026-03-10", Status: status, Version: 1}
	}

	if err := f.db.Create(mk(StatusCancelled)).Error; err != nil {
		t.Fatalf("create cancelled: %v", err)
	}
	if err := f.db.Create(mk(StatusPresent)).Error; err != nil {
		t.Fatalf("create present next to cancelled: %v", err)
	}
	err := f.db.Create(mk(StatusAbsent)).Error
	if !db.IsUniqueViolation(err) {
		t.Errorf("second live session err = %v, want unique violation", err)
	}
}

func TestIngestDebounce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess := f.punchIn(t, "W-1")
	path, _ := f.svc.Store().Path(ctx, sess.ID)
	first := path[0]

	res, err := f.svc.IngestLocation(ctx, "W-1", Ping{Coordinate: offset(30), At: t0.Add(3 * time.Second)})
	if err != nil {
		t.Fatalf("IngestLocation +3s: %v", err)
	}
	if !res.Debounced || res.Point.ID != first.ID {
		t.Errorf("+3s ping: debounced=%v id=%v, want debounced onto %v", res.Debounced, res.Point.ID, first.ID)
	}

	res, err = f.svc.IngestLocation(ctx, "W-1", Ping{Coordinate: offset(60), At: t0.Add(15 * time.Second)})
	if err != nil {
		t.Fatalf("IngestLocation +15s: %v", err)
	}
	if res.Debounced || res.Point.Seq != 2 {
		t.Errorf("+15s ping: debounced=%v seq=%d, want appended as seq 2", res.Debounced, res.Point.Seq)
	}

	path, _ = f.svc.Store().Path(ctx, sess.ID)
	if len(path) != 2 {
		t.Errorf("path has %d points, want 2", len(path))
	}
}

func TestPathIsMonotonic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess := f.punchIn(t, "W-1")

	offsets := []time.Duration{20 * time.Second, 50 * time.Second, 30 * time.Second, 90 * time.Second, 85 * time.Second, 2 * time.Minute}
	for i, d := range offsets {
		if _, err := f.svc.IngestLocation(ctx, "W-1", Ping{Coordinate: offset(float64(i) * 10), At: t0.Add(d)}); err != nil {
			t.Fatalf("IngestLocation %v: %v", d, err)
		}
	}

	path, err := f.svc.Store().Path(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	// +30s and +85s arrive late and are dropped.
	if len(path) != 5 {
		t.Errorf("path has %d points, want 5", len(path))
	}
	for i := 1; i < len(path); i++ {
		if path[i].Seq <= path[i-1].Seq {
			t.Errorf("seq not increasing at %d: %d then %d", i, path[i-1].Seq, path[i].Seq)
		}
		if path[i].RecordedAt.Before(path[i-1].RecordedAt) {
			t.Errorf("recorded_at goes backwards at %d: %v then %v", i, path[i-1].RecordedAt, path[i].RecordedAt)
		}
	}
}

func TestIngestRequiresOpenSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.IngestLocation(ctx, "W-1", Ping{Coordinate: hub})
	if !errors.Is(err, ErrNoApprovedAttendanceToday) {
		t.Fatalf("before punch-in err = %v, want ErrNoApprovedAttendanceToday", err)
	}

	f.punchIn(t, "W-1")
	f.deliveries(t, "W-1", 4)
	if _, err := f.svc.PunchOut(ctx, "W-1", Ping{Coordinate: hub, At: t0.Add(time.Hour)}); err != nil {
		t.Fatalf("PunchOut: %v", err)
	}

	_, err = f.svc.IngestLocation(ctx, "W-1", Ping{Coordinate: hub, At: t0.Add(2 * time.Hour)})
	if !errors.Is(err, ErrNoOpenSession) {
		t.Errorf("after punch-out err = %v, want ErrNoOpenSession", err)
	}
	_, err = f.svc.RecordDelivery(ctx, "W-1", Ping{Coordinate: hub})
	if !errors.Is(err, ErrNoOpenSession) {
		t.Errorf("delivery after punch-out err = %v, want ErrNoOpenSession", err)
	}
}

func TestPunchOutStateErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.PunchOut(ctx, "W-1", Ping{Coordinate: hub, At: t0.Add(time.Hour)})
	if !errors.Is(err, ErrNoPunchIn) {
		t.Fatalf("without session err = %v, want ErrNoPunchIn", err)
	}

	f.punchIn(t, "W-1")
	f.deliveries(t, "W-1", 4)

	_, err = f.svc.PunchOut(ctx, "W-1", Ping{Coordinate: hub, At: t0})
	if !errors.Is(err, ErrPunchOutBeforePunchIn) {
		t.Fatalf("same instant err = %v, want ErrPunchOutBeforePunchIn", err)
	}

	if _, err := f.svc.PunchOut(ctx, "W-1", Ping{Coordinate: hub, At: t0.Add(time.Hour)}); err != nil {
		t.Fatalf("PunchOut: %v", err)
	}

	_, err = f.svc.PunchOut(ctx, "W-1", Ping{Coordinate: hub, At: t0.Add(2 * time.Hour)})
	if !errors.Is(err, ErrAlreadyPunchedOut) {
		t.Errorf("second punch-out err = %v, want ErrAlreadyPunchedOut", err)
	}

	_, err = f.svc.PunchIn(ctx, "W-1", Ping{Coordinate: hub, At: t0.Add(3 * time.Hour)})
	if !errors.Is(err, ErrAlreadyPunchedIn) {
		t.Errorf("punch-in after close err = %v, want ErrAlreadyPunchedIn", err)
	}
}

func TestForceCloseClampsAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess := f.punchIn(t, "W-1")

	closed, ok, err := f.svc.ForceClose(ctx, "W-1", sess.WorkDate, t0)
	if err != nil || !ok {
		t.Fatalf("ForceClose: ok=%v err=%v", ok, err)
	}
	if !closed.AutoClosed {
		t.Error("auto_closed not set")
	}
	if want := t0.Add(time.Second); !closed.PunchOutAt.Equal(want) {
		t.Errorf("punch_out_at = %v, want %v", closed.PunchOutAt, want)
	}
	if closed.DistanceKm == nil || *closed.DistanceKm != 0 {
		t.Errorf("distance_km = %v, want 0 for a single point", closed.DistanceKm)
	}

	_, ok, err = f.svc.ForceClose(ctx, "W-1", sess.WorkDate, t0.Add(time.Hour))
	if err != nil || ok {
		t.Errorf("second ForceClose: ok=%v err=%v, want no-op", ok, err)
	}
}

func TestMarkAbsent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.MarkAbsent(ctx, "W-1", "2026-03-09")
	if err != nil || !created {
		t.Fatalf("MarkAbsent: created=%v err=%v", created, err)
	}
	created, err = f.svc.MarkAbsent(ctx, "W-1", "2026-03-09")
	if err != nil || created {
		t.Errorf("second MarkAbsent: created=%v err=%v, want skip", created, err)
	}

	f.punchIn(t, "W-1")
	created, err = f.svc.MarkAbsent(ctx, "W-1", "2026-03-10")
	if err != nil || created {
		t.Errorf("MarkAbsent over present: created=%v err=%v, want skip", created, err)
	}
}

func TestTrackAndCurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.svc.Current(ctx, "W-1")
	if err != nil || view != nil {
		t.Fatalf("Current before punch-in = %+v, %v", view, err)
	}

	sess := f.punchIn(t, "W-1")
	f.deliveries(t, "W-1", 2)
	if _, err := f.svc.IngestLocation(ctx, "W-1", Ping{Coordinate: offset(100), At: t0.Add(time.Minute)}); err != nil {
		t.Fatalf("IngestLocation: %v", err)
	}

	view, err = f.svc.Current(ctx, "W-1")
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if !view.Open || view.ActualDeliveryCount != 2 || view.TrackedPoints != 2 {
		t.Errorf("view = %+v", view)
	}

	points, err := f.svc.Track(ctx, "W-1", sess.ID)
	if err != nil || len(points) != 2 {
		t.Fatalf("Track = %d points, %v", len(points), err)
	}

	seed(t, f.db, &Worker{ID: "W-9", Status: WorkerActive})
	if _, err := f.svc.Track(ctx, "W-9", sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("foreign Track err = %v, want ErrSessionNotFound", err)
	}
	if _, err := f.svc.Track(ctx, "W-1", uuid.New()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("unknown Track err = %v, want ErrSessionNotFound", err)
	}
}
