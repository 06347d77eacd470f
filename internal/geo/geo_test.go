package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	paris     = Coordinate{Lat: 48.8566, Lng: 2.3522}
	lyon      = Coordinate{Lat: 45.7640, Lng: 4.8357}
	marseille = Coordinate{Lat: 43.2965, Lng: 5.3698}
	brest     = Coordinate{Lat: 48.3904, Lng: -4.4861}
)

func TestDistanceKmKnownFixtures(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Coordinate
		want  float64
		delta float64
	}{
		{"Paris to Lyon", paris, lyon, 392, 2},
		{"Paris to Marseille", paris, marseille, 660.5, 1},
		{"Equator half turn", Coordinate{0, 0}, Coordinate{0, 180}, math.Pi * EarthRadiusKm, 1e-6},
		{"Pole to pole", Coordinate{90, 0}, Coordinate{-90, 0}, math.Pi * EarthRadiusKm, 1e-6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DistanceKm(tt.a, tt.b), tt.delta)
		})
	}
}

func TestDistanceKmIdentity(t *testing.T) {
	for _, c := range []Coordinate{paris, lyon, {0, 0}, {90, 180}, {-90, -180}} {
		assert.Equal(t, 0.0, DistanceKm(c, c), "distance from %v to itself", c)
	}
}

func TestDistanceKmSymmetric(t *testing.T) {
	points := []Coordinate{paris, lyon, marseille, brest, {0, 0}, {-33.8688, 151.2093}}
	for _, a := range points {
		for _, b := range points {
			assert.InDelta(t, DistanceKm(a, b), DistanceKm(b, a), 1e-9, "%v <-> %v", a, b)
			assert.GreaterOrEqual(t, DistanceKm(a, b), 0.0)
		}
	}
}

func TestDistanceKmTriangleInequality(t *testing.T) {
	points := []Coordinate{paris, lyon, marseille, brest, {0, 0}, {60, -120}}
	for _, a := range points {
		for _, b := range points {
			for _, c := range points {
				assert.LessOrEqual(t, DistanceKm(a, c), DistanceKm(a, b)+DistanceKm(b, c)+1e-9)
			}
		}
	}
}

func TestDistanceKmMonotonic(t *testing.T) {
	prev := 0.0
	for lng := 0.5; lng <= 180; lng += 0.5 {
		d := DistanceKm(Coordinate{0, 0}, Coordinate{0, lng})
		require.Greater(t, d, prev, "lng %v", lng)
		prev = d
	}
}

func TestDistanceMeters(t *testing.T) {
	assert.InDelta(t, DistanceKm(paris, lyon)*1000, DistanceMeters(paris, lyon), 1e-6)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		c       Coordinate
		wantErr bool
	}{
		{"Paris", paris, false},
		{"Corners", Coordinate{90, 180}, false},
		{"Negative corners", Coordinate{-90, -180}, false},
		{"Latitude too large", Coordinate{90.1, 0}, true},
		{"Longitude too small", Coordinate{0, -180.5}, true},
		{"NaN", Coordinate{math.NaN(), 0}, true},
		{"Inf", Coordinate{0, math.Inf(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrOutOfRange))
		})
	}
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "850m", FormatDistance(0.85))
	assert.Equal(t, "392.4km", FormatDistance(392.4))
	assert.Equal(t, "1.0km", FormatDistance(1))
	assert.Equal(t, "999m", FormatDistance(0.999))
	assert.Equal(t, "1.0km", FormatDistance(0.9996))
	assert.Equal(t, "0m", FormatDistance(0))
}
