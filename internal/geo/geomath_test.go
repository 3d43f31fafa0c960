package geo

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b Coordinate
		want float64
		tol  float64
	}{
		{
			name: "same point",
			a:    Coordinate{Latitude: 17.4097146, Longitude: 78.4207672},
			b:    Coordinate{Latitude: 17.4097146, Longitude: 78.4207672},
			want: 0,
			tol:  1e-9,
		},
		{
			name: "one degree of longitude on the equator",
			a:    Coordinate{Latitude: 0, Longitude: 0},
			b:    Coordinate{Latitude: 0, Longitude: 1},
			want: EarthRadiusMeters * math.Pi / 180,
			tol:  1e-6,
		},
		{
			name: "one degree of latitude",
			a:    Coordinate{Latitude: 10, Longitude: 20},
			b:    Coordinate{Latitude: 11, Longitude: 20},
			want: EarthRadiusMeters * math.Pi / 180,
			tol:  1e-6,
		},
		{
			name: "antipodal points",
			a:    Coordinate{Latitude: 0, Longitude: 0},
			b:    Coordinate{Latitude: 0, Longitude: 180},
			want: EarthRadiusMeters * math.Pi,
			tol:  1e-3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if !almostEqual(got, tt.want, tt.tol) {
				t.Errorf("Distance = %v, want %v", got, tt.want)
			}
			if back := Distance(tt.b, tt.a); !almostEqual(back, got, 1e-9) {
				t.Errorf("Distance not symmetric: %v vs %v", got, back)
			}
		})
	}
}

func TestPathLength(t *testing.T) {
	a := Coordinate{Latitude: 0, Longitude: 0}
	b := Coordinate{Latitude: 0, Longitude: 1}
	c := Coordinate{Latitude: 0, Longitude: 2}

	if got := PathLength(nil); got != 0 {
		t.Errorf("PathLength(nil) = %v, want 0", got)
	}
	if got := PathLength([]Coordinate{a}); got != 0 {
		t.Errorf("PathLength(single) = %v, want 0", got)
	}

	want := (Distance(a, b) + Distance(b, c)) / 1000
	if got := PathLength([]Coordinate{a, b, c}); !almostEqual(got, want, 1e-9) {
		t.Errorf("PathLength = %v, want %v", got, want)
	}

	reordered := PathLength([]Coordinate{a, c, b})
	if almostEqual(reordered, want, 1e-6) {
		t.Errorf("PathLength should depend on order, got %v for both orders", reordered)
	}
}

func TestCoordinateValidate(t *testing.T) {
	tests := []struct {
		name    string
		c       Coordinate
		wantErr bool
	}{
		{name: "valid", c: Coordinate{Latitude: 17.4, Longitude: 78.4}},
		{name: "bounds inclusive", c: Coordinate{Latitude: -90, Longitude: 180}},
		{name: "latitude too high", c: Coordinate{Latitude: 90.0001, Longitude: 0}, wantErr: true},
		{name: "longitude too low", c: Coordinate{Latitude: 0, Longitude: -180.5}, wantErr: true},
		{name: "nan latitude", c: Coordinate{Latitude: math.NaN(), Longitude: 0}, wantErr: true},
		{name: "infinite longitude", c: Coordinate{Latitude: 0, Longitude: math.Inf(1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidCoordinate) {
				t.Errorf("expected ErrInvalidCoordinate, got %v", err)
			}
		})
	}
}
