package attendance

import (
	"errors"
	"fmt"
	"time"

	"github.com/fleetpunch/attendance-backend/internal/geo"
)

// Kind groups domain errors by who can fix them.
type Kind string

const (
	KindValidation Kind = "validation" // malformed input, client-correctable
	KindState      Kind = "state"      // wrong lifecycle state, carries current state
	KindPolicy     Kind = "policy"     // measured value over a threshold
	KindReference  Kind = "reference"  // HR/point configuration problem
	KindConflict   Kind = "conflict"   // lost a race with another writer
)

// Error is a domain error returned synchronously by the punch and ping
// operations. Two Errors match under errors.Is when their codes match.
type Error struct {
	Kind    Kind           `json:"-"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func (e *Error) with(details map[string]any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

var (
	ErrInvalidLocation = &Error{Kind: KindValidation, Code: "INVALID_LOCATION_DATA", Message: "Invalid location data"}

	ErrEmployeeNotFound          = &Error{Kind: KindReference, Code: "EMPLOYEE_NOT_FOUND", Message: "No employee record found"}
	ErrEmployeeNotActive         = &Error{Kind: KindState, Code: "EMPLOYEE_NOT_ACTIVE", Message: "Employee is not active"}
	ErrAlreadyPunchedIn          = &Error{Kind: KindState, Code: "ALREADY_PUNCHED_IN", Message: "You have already punched in for today"}
	ErrAttendanceExists          = &Error{Kind: KindState, Code: "ATTENDANCE_EXISTS", Message: "Attendance already exists for this employee on this date"}
	ErrNoPunchIn                 = &Error{Kind: KindState, Code: "NO_PUNCH_IN", Message: "No punch-in found for today"}
	ErrAlreadyPunchedOut         = &Error{Kind: KindState, Code: "ALREADY_PUNCHED_OUT", Message: "You have already punched out for today"}
	ErrPunchOutBeforePunchIn     = &Error{Kind: KindState, Code: "PUNCH_OUT_BEFORE_PUNCH_IN", Message: "Punch-out time must be after punch-in time"}
	ErrNoOpenSession             = &Error{Kind: KindState, Code: "STOP_LOCATION_RECORDING", Message: "Location recording stopped - You have already punched out for today"}
	ErrNoApprovedAttendanceToday = &Error{Kind: KindState, Code: "NO_APPROVED_ATTENDANCE_FOUND_FOR_TODAY", Message: "No approved attendance found for today"}
	ErrSessionNotFound           = &Error{Kind: KindState, Code: "ATTENDANCE_NOT_FOUND", Message: "Attendance record not found"}

	ErrLocationOutOfBounds  = &Error{Kind: KindPolicy, Code: "LOCATION_OUT_OF_BOUNDS", Message: "You are outside the allowed check-in area"}
	ErrInvalidDeliveryCount = &Error{Kind: KindPolicy, Code: "INVALID_DELIVERY_COUNT", Message: "Completed deliveries do not match the expected count"}

	ErrNoRouteAssigned     = &Error{Kind: KindReference, Code: "NO_ROUTE_ASSIGNED", Message: "No route assigned to employee"}
	ErrNoPointAssigned     = &Error{Kind: KindReference, Code: "NO_POINT_ASSIGNED", Message: "No check-in point assigned to route"}
	ErrPointNotActive      = &Error{Kind: KindReference, Code: "POINT_NOT_ACTIVE", Message: "Assigned check-in point is not active"}
	ErrIncompletePointData = &Error{Kind: KindReference, Code: "INCOMPLETE_POINT_DATA", Message: "Assigned check-in point has incomplete location data"}

	ErrConcurrentUpdate = &Error{Kind: KindConflict, Code: "CONCURRENT_UPDATE", Message: "Attendance was modified concurrently, retry the request"}
)

func invalidLocation(err error) *Error {
	return ErrInvalidLocation.with(map[string]any{"reason": err.Error()})
}

func alreadyPunchedIn(at *time.Time) *Error {
	return ErrAlreadyPunchedIn.with(map[string]any{"punch_in_time": at})
}

func alreadyPunchedOut(at *time.Time) *Error {
	return ErrAlreadyPunchedOut.with(map[string]any{"punch_out_time": at})
}

func locationOutOfBounds(distance, radius float64) *Error {
	e := ErrLocationOutOfBounds.with(map[string]any{
		"distance":       distance,
		"allowed_radius": radius,
	})
	e.Message = fmt.Sprintf("You are %.0f meters from the check-in point, allowed radius is %.0f meters", distance, radius)
	return e
}

func invalidDeliveryCount(expected, actual int) *Error {
	e := ErrInvalidDeliveryCount.with(map[string]any{
		"expected": expected,
		"actual":   actual,
	})
	e.Message = fmt.Sprintf("Completed %d of %d expected deliveries", actual, expected)
	return e
}

// fromGeofence maps geo reference failures onto domain errors. Anything else
// is returned unchanged.
func fromGeofence(err error) error {
	switch {
	case errors.Is(err, geo.ErrInvalidCoordinate):
		return invalidLocation(err)
	case errors.Is(err, geo.ErrNoRouteAssigned):
		return ErrNoRouteAssigned
	case errors.Is(err, geo.ErrNoPointAssigned):
		return ErrNoPointAssigned
	case errors.Is(err, geo.ErrPointNotActive):
		return ErrPointNotActive
	case errors.Is(err, geo.ErrIncompletePointData):
		return ErrIncompletePointData
	default:
		return err
	}
}

// DomainError extracts a *Error from err, if there is one.
func DomainError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
