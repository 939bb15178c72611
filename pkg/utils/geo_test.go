package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKm(t *testing.T) {
	tests := []struct {
		name                   string
		latA, lngA, latB, lngB float64
		expected               float64
	}{
		{name: "same point", latA: 40.4168, lngA: -3.7038, latB: 40.4168, lngB: -3.7038, expected: 0},
		{name: "one degree longitude at equator", latA: 0, lngA: 0, latB: 0, lngB: 1, expected: 111.2},
		{name: "madrid to barcelona", latA: 40.4168, lngA: -3.7038, latB: 41.3874, lngB: 2.1686, expected: 505.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, HaversineKm(tt.latA, tt.lngA, tt.latB, tt.lngB), 0.3)
		})
	}
}

func TestHaversineKmSymmetry(t *testing.T) {
	assert.Equal(t,
		HaversineKm(48.8566, 2.3522, 51.5074, -0.1278),
		HaversineKm(51.5074, -0.1278, 48.8566, 2.3522))
}

func TestHaversineKmRounding(t *testing.T) {
	d := HaversineKm(40.4168, -3.7038, 40.4178, -3.7048)
	assert.Equal(t, d, math.Round(d*10)/10)
}
