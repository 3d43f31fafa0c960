package attendance

import (
	"time"

	"github.com/google/uuid"
)

// Status is the persisted attendance status. A present session is open until
// PunchOutAt is set.
type Status string

const (
	StatusPresent   Status = "present"
	StatusAbsent    Status = "absent"
	StatusOnLeave   Status = "on_leave"
	StatusCancelled Status = "cancelled"
)

// DateLayout is the layout of Session.WorkDate.
const DateLayout = "2006-01-02"

// Session is one worker's attendance for one calendar date.
type Session struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"attendance_id"`
	WorkerID string    `gorm:"size:64;not null;index" json:"worker_id"`
	WorkDate string    `gorm:"size:10;not null;index" json:"date"`
	Status   Status    `gorm:"size:16;not null" json:"status"`

	PunchInAt        *time.Time `json:"punch_in_at,omitempty"`
	PunchInLatitude  *float64   `json:"punch_in_latitude,omitempty"`
	PunchInLongitude *float64   `json:"punch_in_longitude,omitempty"`
	PunchInAccuracy  *float64   `json:"punch_in_accuracy,omitempty"`

	PunchOutAt        *time.Time `json:"punch_out_at,omitempty"`
	PunchOutLatitude  *float64   `json:"punch_out_latitude,omitempty"`
	PunchOutLongitude *float64   `json:"punch_out_longitude,omitempty"`
	PunchOutAccuracy  *float64   `json:"punch_out_accuracy,omitempty"`

	// Geofence snapshot taken at punch-in.
	PointID           *string  `gorm:"size:64" json:"point_id,omitempty"`
	GeofenceDistanceM *float64 `json:"geofence_distance_m,omitempty"`
	GeofenceRadiusM   *float64 `json:"geofence_radius_m,omitempty"`

	ExpectedDeliveryCount *int     `json:"expected_delivery_count,omitempty"`
	DistanceKm            *float64 `json:"distance_km,omitempty"`
	AutoClosed            bool     `gorm:"not null" json:"auto_closed"`

	Version   int       `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsOpen reports whether the session is present and not yet punched out.
func (s *Session) IsOpen() bool {
	return s != nil && s.Status == StatusPresent && s.PunchOutAt == nil
}

// TrackPoint is one accepted location ping. Seq is the 1-based append order
// within the session.
type TrackPoint struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"tracking_id"`
	AttendanceID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_track_points_attendance_seq,priority:1" json:"attendance_id"`
	Seq          int       `gorm:"not null;uniqueIndex:ux_track_points_attendance_seq,priority:2" json:"seq"`
	WorkerID     string    `gorm:"size:64;not null" json:"worker_id"`
	Latitude     float64   `gorm:"not null" json:"latitude"`
	Longitude    float64   `gorm:"not null" json:"longitude"`
	Accuracy     float64   `gorm:"not null" json:"accuracy"`
	RecordedAt   time.Time `gorm:"not null;index" json:"recorded_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// DeliveryEvent is a completed delivery recorded against a session. Only
// committed events count toward the punch-out gate.
type DeliveryEvent struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"delivery_id"`
	AttendanceID uuid.UUID `gorm:"type:uuid;not null;index" json:"attendance_id"`
	WorkerID     string    `gorm:"size:64;not null" json:"worker_id"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Accuracy     float64   `json:"accuracy"`
	RecordedAt   time.Time `gorm:"not null" json:"recorded_at"`
	Committed    bool      `gorm:"not null" json:"committed"`
	CreatedAt    time.Time `json:"created_at"`
}

// Worker, Route and Point are HR reference data. This service only reads them.

type Worker struct {
	ID            string  `gorm:"primaryKey;size:64" json:"id" yaml:"id"`
	Name          string  `json:"name" yaml:"name"`
	Status        string  `gorm:"size:16;not null" json:"status" yaml:"status"`
	RouteID       *string `gorm:"size:64" json:"route_id,omitempty" yaml:"route_id"`
	DateOfJoining *string `gorm:"size:10" json:"date_of_joining,omitempty" yaml:"date_of_joining"`
}

const WorkerActive = "active"

func (w Worker) IsActive() bool { return w.Status == WorkerActive }

type Route struct {
	ID            string  `gorm:"primaryKey;size:64" json:"id" yaml:"id"`
	Name          string  `json:"name" yaml:"name"`
	PointID       *string `gorm:"size:64" json:"point_id,omitempty" yaml:"point_id"`
	TotalDelivery *int    `json:"total_delivery,omitempty" yaml:"total_delivery"`
}

type Point struct {
	ID           string   `gorm:"primaryKey;size:64" json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Latitude     *float64 `json:"latitude,omitempty" yaml:"latitude"`
	Longitude    *float64 `json:"longitude,omitempty" yaml:"longitude"`
	RadiusMeters *float64 `json:"radius_meters,omitempty" yaml:"radius_meters"`
	Active       bool     `gorm:"not null" json:"active" yaml:"active"`
}
