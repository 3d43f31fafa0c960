package attendance

import (
	"context"
	"errors"
	"fmt"

	"github.com/fleetpunch/attendance-backend/internal/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the persistence layer for sessions and their child rows. Methods
// that take a tx are meant to run inside a caller's transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(d *gorm.DB) *Store {
	return &Store{db: d}
}

// Migrate creates the attendance tables and the uniqueness index that backs
// the one-session-per-worker-per-date rule.
func Migrate(d *gorm.DB) error {
	if err := d.AutoMigrate(
		&Worker{},
		&Route{},
		&Point{},
		&Session{},
		&TrackPoint{},
		&DeliveryEvent{},
	); err != nil {
		return fmt.Errorf("auto-migrate attendance tables: %w", err)
	}

	table, err := db.TableName(d, &Session{})
	if err != nil {
		return fmt.Errorf("resolve sessions table: %w", err)
	}

	if err := d.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS ux_sessions_worker_date
		ON ? (worker_id, work_date)
		WHERE status <> 'cancelled'
	`, clause.Table{Name: table}).Error; err != nil {
		return fmt.Errorf("create ux_sessions_worker_date: %w", err)
	}
	return nil
}

// FindSession returns the non-cancelled session for (workerID, date), or nil.
func (s *Store) FindSession(ctx context.Context, workerID, date string) (*Session, error) {
	return findSession(s.db.WithContext(ctx), workerID, date, false)
}

// OpenSessions lists present sessions for date that have not been punched out.
func (s *Store) OpenSessions(ctx context.Context, date string) ([]Session, error) {
	var sessions []Session
	err := s.db.WithContext(ctx).
		Where("work_date = ? AND status = ? AND punch_out_at IS NULL", date, StatusPresent).
		Order("worker_id").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("list open sessions for %s: %w", date, err)
	}
	return sessions, nil
}

// OpenSessionsBefore lists present sessions dated before date that have not
// been punched out, oldest first.
func (s *Store) OpenSessionsBefore(ctx context.Context, date string) ([]Session, error) {
	var sessions []Session
	err := s.db.WithContext(ctx).
		Where("work_date < ? AND status = ? AND punch_out_at IS NULL", date, StatusPresent).
		Order("work_date, worker_id").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("list open sessions before %s: %w", date, err)
	}
	return sessions, nil
}

// Path returns the tracked path of a session in append order.
func (s *Store) Path(ctx context.Context, sessionID uuid.UUID) ([]TrackPoint, error) {
	return loadPath(s.db.WithContext(ctx), sessionID.String())
}

// DeliveryCount returns the number of committed deliveries for a session.
func (s *Store) DeliveryCount(ctx context.Context, sessionID uuid.UUID) (int, error) {
	return countDeliveries(s.db.WithContext(ctx), sessionID.String())
}

func findSession(tx *gorm.DB, workerID, date string, forUpdate bool) (*Session, error) {
	q := tx.Where("worker_id = ? AND work_date = ? AND status <> ?", workerID, date, StatusCancelled)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var sess Session
	err := q.Take(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find session for %s on %s: %w", workerID, date, err)
	}
	return &sess, nil
}

func lastTrackPoint(tx *gorm.DB, sessionID string) (*TrackPoint, error) {
	var p TrackPoint
	err := tx.Where("attendance_id = ?", sessionID).Order("seq DESC").Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load last track point: %w", err)
	}
	return &p, nil
}

func loadPath(tx *gorm.DB, sessionID string) ([]TrackPoint, error) {
	var points []TrackPoint
	if err := tx.Where("attendance_id = ?", sessionID).Order("seq ASC").Find(&points).Error; err != nil {
		return nil, fmt.Errorf("load tracked path: %w", err)
	}
	return points, nil
}

func countDeliveries(tx *gorm.DB, sessionID string) (int, error) {
	var n int64
	err := tx.Model(&DeliveryEvent{}).
		Where("attendance_id = ? AND committed = ?", sessionID, true).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count deliveries: %w", err)
	}
	return int(n), nil
}

// updateSession applies fields guarded by the version column and reloads
// sess. A stale version means another writer got there first.
func updateSession(tx *gorm.DB, sess *Session, fields map[string]any) error {
	fields["version"] = sess.Version + 1

	res := tx.Model(&Session{}).
		Where("id = ? AND version = ?", sess.ID, sess.Version).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update session %s: %w", sess.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}

	if err := tx.Take(sess, "id = ?", sess.ID).Error; err != nil {
		return fmt.Errorf("reload session %s: %w", sess.ID, err)
	}
	return nil
}

// insertAbsent creates an absent session unless one already exists. It
// reports whether a row was written.
func insertAbsent(tx *gorm.DB, sess *Session) (bool, error) {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(sess)
	if res.Error != nil {
		if db.IsUniqueViolation(res.Error) {
			return false, nil
		}
		return false, fmt.Errorf("insert absent session: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
