package attendance

import "github.com/fleetpunch/attendance-backend/internal/geo"

// PathCoordinates strips a tracked path down to its coordinates, keeping order.
func PathCoordinates(points []TrackPoint) []geo.Coordinate {
	coords := make([]geo.Coordinate, len(points))
	for i, p := range points {
		coords[i] = geo.Coordinate{Latitude: p.Latitude, Longitude: p.Longitude}
	}
	return coords
}

// AccrueDistance is the route distance in kilometers stored on close.
func AccrueDistance(points []TrackPoint) float64 {
	return geo.PathLength(PathCoordinates(points))
}
