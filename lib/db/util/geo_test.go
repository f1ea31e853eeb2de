package util

import (
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	tests := []struct {
		name                   string
		lon1, lat1, lon2, lat2 float64
		want                   float64
		tolerance              float64
	}{
		{"same point", 13.4, 52.5, 13.4, 52.5, 0, 1e-9},
		{"one degree on equator", 0, 0, 1, 0, 111.226, 0.01},
		{"one degree of latitude", 0, 0, 0, 1, 111.226, 0.01},
		{"berlin to paris", 13.4050, 52.5200, 2.3522, 48.8566, 877.5, 2},
		{"antimeridian", 179.5, 0, -179.5, 0, 111.226, 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.lon1, tt.lat1, tt.lon2, tt.lat2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("HaversineKm() = %f, want %f (+/- %f)", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestHaversineKmSymmetric(t *testing.T) {
	a := HaversineKm(10, 20, -30, 40)
	b := HaversineKm(-30, 40, 10, 20)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("distance not symmetric: %f != %f", a, b)
	}
}
