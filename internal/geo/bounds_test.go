package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundsContains(t *testing.T) {
	b := Bounds{MinLng: -66.25, MaxLng: -66.05, MinLat: -17.50, MaxLat: -17.25}

	assert.True(t, b.Contains(-66.157, -17.39))
	// Edges are inclusive.
	assert.True(t, b.Contains(-66.25, -17.50))
	assert.True(t, b.Contains(-66.05, -17.25))

	assert.False(t, b.Contains(-68.15, -16.50)) // La Paz
	assert.False(t, b.Contains(-66.157, -17.24))
	assert.False(t, b.Contains(-66.26, -17.39))
	assert.False(t, b.Contains(0, 0))
}
