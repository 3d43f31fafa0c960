package geo

import (
	"context"
	"errors"
	"fmt"
)

// Reference-data failures. They mean the worker's assignment is misconfigured,
// not that the worker is in the wrong place.
var (
	ErrNoRouteAssigned     = errors.New("no route assigned to worker")
	ErrNoPointAssigned     = errors.New("no check-in point assigned to route")
	ErrPointNotActive      = errors.New("check-in point is not active")
	ErrIncompletePointData = errors.New("check-in point is missing location data")
)

// Point is a check-in location. Nil fields mean the data was never filled in.
type Point struct {
	ID           string
	Name         string
	Latitude     *float64
	Longitude    *float64
	RadiusMeters *float64
	Active       bool
}

// Assignment is the worker → route → point chain as stored. Empty IDs mark a
// broken link.
type Assignment struct {
	WorkerID string
	RouteID  string
	PointID  string
	Point    *Point
}

// PointResolver loads a worker's assignment chain.
type PointResolver interface {
	AssignedPoint(ctx context.Context, workerID string) (Assignment, error)
}

// Result is the outcome of a geofence check.
type Result struct {
	PointID        string  `json:"point_id"`
	PointName      string  `json:"point_name"`
	DistanceMeters float64 `json:"distance_meters"`
	RadiusMeters   float64 `json:"radius_meters"`
	Inside         bool    `json:"inside"`
}

// Validator decides whether a coordinate lies inside a worker's assigned
// geofence.
type Validator struct {
	points PointResolver
}

func NewValidator(points PointResolver) *Validator {
	return &Validator{points: points}
}

// Validate resolves the worker's point and classifies c against it.
func (v *Validator) Validate(ctx context.Context, workerID string, c Coordinate) (Result, error) {
	if err := c.Validate(); err != nil {
		return Result{}, err
	}

	a, err := v.points.AssignedPoint(ctx, workerID)
	if err != nil {
		return Result{}, fmt.Errorf("resolve point for worker %s: %w", workerID, err)
	}
	if a.RouteID == "" {
		return Result{}, ErrNoRouteAssigned
	}
	if a.PointID == "" || a.Point == nil {
		return Result{}, ErrNoPointAssigned
	}

	return Check(*a.Point, c)
}

// Check classifies c against p. A coordinate exactly on the radius is inside.
func Check(p Point, c Coordinate) (Result, error) {
	if !p.Active {
		return Result{}, ErrPointNotActive
	}
	if p.Latitude == nil || p.Longitude == nil || p.RadiusMeters == nil {
		return Result{}, ErrIncompletePointData
	}

	center := Coordinate{Latitude: *p.Latitude, Longitude: *p.Longitude}
	if err := center.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrIncompletePointData, err)
	}

	d := Distance(center, c)
	return Result{
		PointID:        p.ID,
		PointName:      p.Name,
		DistanceMeters: d,
		RadiusMeters:   *p.RadiusMeters,
		Inside:         d <= *p.RadiusMeters,
	}, nil
}
