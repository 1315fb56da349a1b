package places

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/milinea/milinea-backend/internal/geo"
	"github.com/milinea/milinea-backend/internal/model"
)

// CacheEntry is one persisted place. Timestamps are epoch milliseconds.
type CacheEntry struct {
	Lng       float64 `json:"lng"`
	Lat       float64 `json:"lat"`
	Hits      int     `json:"hits"`
	FirstSeen int64   `json:"first_seen"`
	LastSeen  int64   `json:"last_seen"`
}

// Cache is a persistent mapping from normalized place label to resolved
// coordinates. Coordinates outside the city bounds are never admitted.
// The full snapshot is rewritten wholesale on each periodic flush.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*CacheEntry

	path   string
	bounds geo.Bounds
	log    zerolog.Logger
	now    func() time.Time

	persistOnce sync.Once
}

// NewCache creates an empty cache persisted at path.
func NewCache(path string, bounds geo.Bounds, log zerolog.Logger) *Cache {
	return &Cache{
		entries: make(map[string]*CacheEntry),
		path:    path,
		bounds:  bounds,
		log:     log.With().Str("component", "place_cache").Logger(),
		now:     time.Now,
	}
}

// Load restores the snapshot from disk. A missing or corrupt file yields an
// empty cache, never an error.
func (c *Cache) Load() {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return
	}
	var data map[string]*CacheEntry
	if err := json.Unmarshal(raw, &data); err != nil {
		c.log.Warn().Err(err).Str("path", c.path).Msg("corrupt place cache snapshot, starting empty")
		return
	}
	c.mu.Lock()
	c.entries = data
	if c.entries == nil {
		c.entries = make(map[string]*CacheEntry)
	}
	c.mu.Unlock()
	c.log.Info().Int("entries", len(data)).Msg("place cache loaded")
}

// PurgeOutOfBounds drops stored entries whose coordinates fail the bounds
// check and returns how many were removed. Defensive migration step for
// snapshots written before bounds enforcement.
func (c *Cache) PurgeOutOfBounds() int {
	c.mu.Lock()
	removed := 0
	for k, e := range c.entries {
		if !c.bounds.Contains(e.Lng, e.Lat) {
			delete(c.entries, k)
			removed++
		}
	}
	c.mu.Unlock()
	if removed > 0 {
		c.log.Info().Int("removed", removed).Msg("purged out-of-bounds cache entries")
		_ = c.persist()
	}
	return removed
}

// Get returns the cached coordinates for a label. A hit bumps the entry's
// hit count and last-seen time.
func (c *Cache) Get(label string) (model.Point, bool) {
	key := normalizeKey(label)
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return model.Point{}, false
	}
	e.Hits++
	e.LastSeen = c.now().UnixMilli()
	return model.Point{Lng: e.Lng, Lat: e.Lat}, true
}

// Set stores coordinates under a label. A no-op when the coordinates lie
// outside the city bounds.
func (c *Cache) Set(label string, pt model.Point) {
	if !c.bounds.Contains(pt.Lng, pt.Lat) {
		return
	}
	key := normalizeKey(label)
	if key == "" {
		return
	}
	now := c.now().UnixMilli()
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.Hits++
		e.LastSeen = now
		return
	}
	c.entries[key] = &CacheEntry{Lng: pt.Lng, Lat: pt.Lat, Hits: 1, FirstSeen: now, LastSeen: now}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// persist rewrites the snapshot wholesale.
func (c *Cache) persist() error {
	c.mu.Lock()
	raw, err := json.MarshalIndent(c.entries, "", "  ")
	c.mu.Unlock()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(c.path, raw, 0o644)
}

// StartPersist registers exactly one periodic flush of the full cache to
// disk. Subsequent calls are no-ops. Persistence failures are logged and
// swallowed; durability is best-effort.
func (c *Cache) StartPersist(ctx context.Context, period time.Duration) {
	c.persistOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(period)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					_ = c.persist()
					return
				case <-ticker.C:
					if err := c.persist(); err != nil {
						c.log.Warn().Err(err).Msg("place cache flush failed")
					}
				}
			}
		}()
	})
}
