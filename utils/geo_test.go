package utils

import (
	"math"
	"testing"
)

func TestHaversineDistance(t *testing.T) {
	riyadh := Coordinate{Lat: 24.7136, Lng: 46.6753}

	near := Coordinate{Lat: 24.7137, Lng: 46.6754}
	d := HaversineDistance(riyadh, near)
	if d < 10 || d > 20 {
		t.Errorf("expected roughly 14m, got %.2f", d)
	}

	far := Coordinate{Lat: 24.7200, Lng: 46.6800}
	d = HaversineDistance(riyadh, far)
	if d < 700 || d > 1100 {
		t.Errorf("expected roughly 900m, got %.2f", d)
	}

	if HaversineDistance(riyadh, riyadh) != 0 {
		t.Error("distance to self should be zero")
	}
}

func TestHaversineSymmetry(t *testing.T) {
	a := Coordinate{Lat: 24.7136, Lng: 46.6753}
	b := Coordinate{Lat: 21.4858, Lng: 39.1925}
	if diff := math.Abs(HaversineDistance(a, b) - HaversineDistance(b, a)); diff > 0.01 {
		t.Errorf("haversine not symmetric, diff %.6f m", diff)
	}
}

func TestInsideGeofence(t *testing.T) {
	center := Coordinate{Lat: 24.7136, Lng: 46.6753}

	tests := []struct {
		name   string
		point  Coordinate
		radius float64
		inside bool
	}{
		{"nearby point inside 500m", Coordinate{24.7137, 46.6754}, 500, true},
		{"distant point outside 500m", Coordinate{24.7200, 46.6800}, 500, false},
		{"center always inside", center, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InsideGeofence(tt.point, center, tt.radius); got != tt.inside {
				t.Errorf("InsideGeofence = %v, expected %v", got, tt.inside)
			}
		})
	}
}

func TestValidateCoordinate(t *testing.T) {
	if err := ValidateCoordinate(Coordinate{Lat: 24.7, Lng: 46.6}); err != nil {
		t.Errorf("valid coordinate rejected: %v", err)
	}
	if err := ValidateCoordinate(Coordinate{Lat: 91, Lng: 0}); err == nil {
		t.Error("latitude out of range should fail")
	}
	if err := ValidateCoordinate(Coordinate{Lat: 0, Lng: -181}); err == nil {
		t.Error("longitude out of range should fail")
	}
}

func TestCentroidAndBoundingRadius(t *testing.T) {
	pts := []Coordinate{
		{Lat: 24.70, Lng: 46.67},
		{Lat: 24.72, Lng: 46.67},
		{Lat: 24.70, Lng: 46.69},
		{Lat: 24.72, Lng: 46.69},
	}
	c := CalculateCentroid(pts)
	if math.Abs(c.Lat-24.71) > 1e-9 || math.Abs(c.Lng-46.68) > 1e-9 {
		t.Errorf("unexpected centroid %+v", c)
	}
	r := BoundingRadius(c, pts)
	if r <= 0 {
		t.Error("bounding radius should be positive")
	}
	for _, p := range pts {
		if HaversineDistance(c, p) > r+0.01 {
			t.Errorf("point %+v falls outside bounding radius", p)
		}
	}
}
