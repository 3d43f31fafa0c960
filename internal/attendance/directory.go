package attendance

import (
	"context"
	"errors"
	"fmt"

	"github.com/fleetpunch/attendance-backend/internal/geo"
	"gorm.io/gorm"
)

var ErrWorkerNotFound = errors.New("worker not found")

// Directory is the read-only view of HR reference data the core needs.
type Directory interface {
	geo.PointResolver

	// Worker returns ErrWorkerNotFound when the id is unknown.
	Worker(ctx context.Context, id string) (Worker, error)
	// ActiveWorkers lists workers that are active and have joined on or
	// before date.
	ActiveWorkers(ctx context.Context, date string) ([]Worker, error)
	// ExpectedDeliveries is the worker's current route delivery count.
	ExpectedDeliveries(ctx context.Context, workerID string) (*int, error)
}

// GormDirectory reads workers, routes and points from the shared database.
type GormDirectory struct {
	db *gorm.DB
}

func NewGormDirectory(d *gorm.DB) *GormDirectory {
	return &GormDirectory{db: d}
}

func (g *GormDirectory) Worker(ctx context.Context, id string) (Worker, error) {
	var w Worker
	err := g.db.WithContext(ctx).Take(&w, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Worker{}, fmt.Errorf("%w: %s", ErrWorkerNotFound, id)
	}
	if err != nil {
		return Worker{}, fmt.Errorf("load worker %s: %w", id, err)
	}
	return w, nil
}

func (g *GormDirectory) ActiveWorkers(ctx context.Context, date string) ([]Worker, error) {
	var workers []Worker
	err := g.db.WithContext(ctx).
		Where("status = ?", WorkerActive).
		Where("date_of_joining IS NULL OR date_of_joining <= ?", date).
		Order("id").
		Find(&workers).Error
	if err != nil {
		return nil, fmt.Errorf("list active workers: %w", err)
	}
	return workers, nil
}

func (g *GormDirectory) ExpectedDeliveries(ctx context.Context, workerID string) (*int, error) {
	w, err := g.Worker(ctx, workerID)
	if err != nil {
		return nil, err
	}
	if w.RouteID == nil || *w.RouteID == "" {
		return nil, nil
	}

	var r Route
	err = g.db.WithContext(ctx).Take(&r, "id = ?", *w.RouteID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load route %s: %w", *w.RouteID, err)
	}
	return r.TotalDelivery, nil
}

// AssignedPoint walks worker → route → point. Missing links come back as
// empty IDs for the validator to classify.
func (g *GormDirectory) AssignedPoint(ctx context.Context, workerID string) (geo.Assignment, error) {
	a := geo.Assignment{WorkerID: workerID}

	w, err := g.Worker(ctx, workerID)
	if err != nil {
		return a, err
	}
	if w.RouteID == nil || *w.RouteID == "" {
		return a, nil
	}

	var r Route
	err = g.db.WithContext(ctx).Take(&r, "id = ?", *w.RouteID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return a, nil
	}
	if err != nil {
		return a, fmt.Errorf("load route %s: %w", *w.RouteID, err)
	}
	a.RouteID = r.ID
	if r.PointID == nil || *r.PointID == "" {
		return a, nil
	}

	var p Point
	err = g.db.WithContext(ctx).Take(&p, "id = ?", *r.PointID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return a, nil
	}
	if err != nil {
		return a, fmt.Errorf("load point %s: %w", *r.PointID, err)
	}

	a.PointID = p.ID
	a.Point = &geo.Point{
		ID:           p.ID,
		Name:         p.Name,
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
		RadiusMeters: p.RadiusMeters,
		Active:       p.Active,
	}
	return a, nil
}

var _ Directory = (*GormDirectory)(nil)
