package places

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// maxOriginalSamples caps the distinct raw spellings kept per unresolved key.
const maxOriginalSamples = 5

// UnresolvedEntry is one place label that failed resolution, kept for
// curation. Timestamps are epoch milliseconds.
type UnresolvedEntry struct {
	Key             string   `json:"key"`
	Hits            int      `json:"hits"`
	LastSeen        int64    `json:"last_seen"`
	OriginalSamples []string `json:"original_samples"`
}

type unresolvedSnapshot struct {
	Updated int64              `json:"updated"`
	Data    []*UnresolvedEntry `json:"data"`
}

// Tracker is a persistent frequency table of labels that failed resolution.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]*UnresolvedEntry

	path string
	log  zerolog.Logger
	now  func() time.Time

	persistOnce sync.Once
}

// NewTracker creates an empty tracker persisted at path.
func NewTracker(path string, log zerolog.Logger) *Tracker {
	return &Tracker{
		entries: make(map[string]*UnresolvedEntry),
		path:    path,
		log:     log.With().Str("component", "unresolved_tracker").Logger(),
		now:     time.Now,
	}
}

// Register records one resolution failure for a label, keeping up to
// maxOriginalSamples distinct raw spellings.
func (t *Tracker) Register(label string) {
	key := normalizeKey(label)
	if key == "" {
		return
	}
	now := t.now().UnixMilli()
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		t.entries[key] = &UnresolvedEntry{Key: key, Hits: 1, LastSeen: now, OriginalSamples: []string{label}}
		return
	}
	e.Hits++
	e.LastSeen = now
	if len(e.OriginalSamples) < maxOriginalSamples && !containsString(e.OriginalSamples, label) {
		e.OriginalSamples = append(e.OriginalSamples, label)
	}
}

// List returns entries with hits >= minHits, sorted by hit count descending.
func (t *Tracker) List(minHits int) []*UnresolvedEntry {
	t.mu.Lock()
	out := make([]*UnresolvedEntry, 0, len(t.entries))
	for _, e := range t.entries {
		if e.Hits >= minHits {
			cp := *e
			cp.OriginalSamples = append([]string(nil), e.OriginalSamples...)
			out = append(out, &cp)
		}
	}
	t.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hits != out[j].Hits {
			return out[i].Hits > out[j].Hits
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// PurgeOld drops entries not seen within maxAgeDays.
func (t *Tracker) PurgeOld(maxAgeDays int) int {
	maxAge := time.Duration(maxAgeDays) * 24 * time.Hour
	cutoff := t.now().Add(-maxAge).UnixMilli()
	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for k, e := range t.entries {
		if e.LastSeen < cutoff {
			delete(t.entries, k)
			removed++
		}
	}
	return removed
}

// Load restores the snapshot from disk. Missing or corrupt files yield an
// empty tracker, never an error.
func (t *Tracker) Load() {
	raw, err := os.ReadFile(t.path)
	if err != nil {
		return
	}
	var snap unresolvedSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.log.Warn().Err(err).Str("path", t.path).Msg("corrupt unresolved snapshot, starting empty")
		return
	}
	entries := make(map[string]*UnresolvedEntry, len(snap.Data))
	for _, e := range snap.Data {
		if e == nil || e.Key == "" {
			continue
		}
		if e.Hits <= 0 {
			e.Hits = 1
		}
		if e.LastSeen == 0 {
			e.LastSeen = t.now().UnixMilli()
		}
		if len(e.OriginalSamples) == 0 {
			e.OriginalSamples = []string{e.Key}
		}
		entries[e.Key] = e
	}
	t.mu.Lock()
	t.entries = entries
	t.mu.Unlock()
	t.log.Info().Int("entries", len(entries)).Msg("unresolved terms loaded")
}

func (t *Tracker) persist() error {
	t.mu.Lock()
	snap := unresolvedSnapshot{Updated: t.now().UnixMilli(), Data: make([]*UnresolvedEntry, 0, len(t.entries))}
	for _, e := range t.entries {
		snap.Data = append(snap.Data, e)
	}
	raw, err := json.MarshalIndent(snap, "", "  ")
	t.mu.Unlock()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(t.path, raw, 0o644)
}

// StartPersist registers exactly one periodic flush. Subsequent calls are
// no-ops. Flush failures are logged and swallowed.
func (t *Tracker) StartPersist(ctx context.Context, period time.Duration) {
	t.persistOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(period)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					_ = t.persist()
					return
				case <-ticker.C:
					if err := t.persist(); err != nil {
						t.log.Warn().Err(err).Msg("unresolved flush failed")
					}
				}
			}
		}()
	})
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
