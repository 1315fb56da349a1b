package places

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milinea/milinea-backend/internal/geo"
	"github.com/milinea/milinea-backend/internal/model"
)

var testBounds = geo.Bounds{MinLng: -66.25, MaxLng: -66.05, MinLat: -17.50, MaxLat: -17.25}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	return NewCache(filepath.Join(t.TempDir(), "cache.json"), testBounds, zerolog.Nop())
}

func TestCacheSetGet(t *testing.T) {
	c := newTestCache(t)

	c.Set("La Cancha", model.Point{Lng: -66.157, Lat: -17.39})

	// Label variants collapse to one entry.
	pt, ok := c.Get("  la   cancha ")
	require.True(t, ok)
	assert.Equal(t, -66.157, pt.Lng)
	assert.Equal(t, -17.39, pt.Lat)
	assert.Equal(t, 1, c.Len())
}

func TestCacheRejectsOutOfBounds(t *testing.T) {
	c := newTestCache(t)

	c.Set("la paz", model.Point{Lng: -68.15, Lat: -16.50})

	_, ok := c.Get("la paz")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCacheGetBumpsHits(t *testing.T) {
	c := newTestCache(t)
	c.Set("umss", model.Point{Lng: -66.147, Lat: -17.393})

	_, _ = c.Get("umss")
	_, _ = c.Get("UMSS")

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Equal(t, 3, c.entries["umss"].Hits) // 1 on set + 2 reads
}

func TestCachePurgeOutOfBounds(t *testing.T) {
	c := newTestCache(t)
	c.Set("plaza principal", model.Point{Lng: -66.1568, Lat: -17.3935})

	// Inject a violating entry directly, simulating a snapshot written
	// before bounds enforcement.
	c.mu.Lock()
	c.entries["lejos"] = &CacheEntry{Lng: -70.0, Lat: -30.0, Hits: 1}
	c.mu.Unlock()

	removed := c.PurgeOutOfBounds()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, c.Len())

	// Every surviving entry satisfies the bounds predicate.
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		assert.True(t, testBounds.Contains(e.Lng, e.Lat), "entry %q out of bounds", k)
	}
}

func TestCachePersistAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")

	c := NewCache(path, testBounds, zerolog.Nop())
	c.Set("umss", model.Point{Lng: -66.147, Lat: -17.393})
	require.NoError(t, c.persist())

	c2 := NewCache(path, testBounds, zerolog.Nop())
	c2.Load()
	pt, ok := c2.Get("umss")
	require.True(t, ok)
	assert.Equal(t, -66.147, pt.Lng)
}

func TestCacheLoadSoftFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")

	// Missing file.
	c := NewCache(path, testBounds, zerolog.Nop())
	c.Load()
	assert.Equal(t, 0, c.Len())

	// Corrupt file.
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	c2 := NewCache(path, testBounds, zerolog.Nop())
	c2.Load()
	assert.Equal(t, 0, c2.Len())
}
