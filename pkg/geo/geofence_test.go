package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var office = Point{Latitude: 39.9042, Longitude: 116.4074}

func TestIsWithinFenceSamePoint(t *testing.T) {
	result := IsWithinFence(office, office, 0)

	assert.True(t, result.Within)
	assert.Equal(t, 0.0, result.DistanceMeters)
}

func TestIsWithinFenceKnownDistance(t *testing.T) {
	// 纬度方向 0.001 度约 111.2 米
	p := Point{Latitude: office.Latitude + 0.001, Longitude: office.Longitude}

	result := IsWithinFence(p, office, 200)

	assert.True(t, result.Within)
	assert.InDelta(t, 111.2, result.DistanceMeters, 1.0)
}

func TestIsWithinFenceJustOutside(t *testing.T) {
	p := Point{Latitude: office.Latitude + 0.001, Longitude: office.Longitude}
	distance := Distance(p, office)

	// 半径比实际距离小 1 米，应判出界
	result := IsWithinFence(p, office, distance-1)

	assert.False(t, result.Within)
	assert.InDelta(t, distance, result.DistanceMeters, 1e-9)
}

func TestIsWithinFenceBoundaryInclusive(t *testing.T) {
	p := Point{Latitude: office.Latitude + 0.001, Longitude: office.Longitude}
	distance := Distance(p, office)

	result := IsWithinFence(p, office, distance)
	assert.True(t, result.Within)
}

func TestIsWithinFenceInvalidInput(t *testing.T) {
	cases := []struct {
		name   string
		p      Point
		center Point
		radius float64
	}{
		{"latitude out of range", Point{91, 0}, office, 100},
		{"longitude out of range", Point{0, 181}, office, 100},
		{"NaN latitude", Point{math.NaN(), 0}, office, 100},
		{"infinite longitude", Point{0, math.Inf(1)}, office, 100},
		{"invalid center", office, Point{-91, 0}, 100},
		{"negative radius", office, office, -1},
		{"NaN radius", office, office, math.NaN()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := IsWithinFence(tc.p, tc.center, tc.radius)
			assert.False(t, result.Within)
			assert.True(t, math.IsInf(result.DistanceMeters, 1))
		})
	}
}
