package places

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	return NewTracker(filepath.Join(t.TempDir(), "unresolved.json"), zerolog.Nop())
}

func TestTrackerRegisterDedupes(t *testing.T) {
	tr := newTestTracker(t)

	tr.Register("Villa Pagador")
	tr.Register("villa  pagador")
	tr.Register("VILLA PAGADOR")

	got := tr.List(1)
	require.Len(t, got, 1)
	assert.Equal(t, "villa pagador", got[0].Key)
	assert.Equal(t, 3, got[0].Hits)
	// Distinct raw spellings are kept alongside the normalized key.
	assert.Equal(t, []string{"Villa Pagador", "villa  pagador", "VILLA PAGADOR"}, got[0].OriginalSamples)
}

func TestTrackerSampleCap(t *testing.T) {
	tr := newTestTracker(t)

	spellings := []string{"cala cala", "Cala Cala", "CALA CALA", "cala  cala", "Cala cala", "cAla cala", "calA cala"}
	for _, s := range spellings {
		tr.Register(s)
	}

	got := tr.List(1)
	require.Len(t, got, 1)
	assert.Equal(t, len(spellings), got[0].Hits)
	assert.Len(t, got[0].OriginalSamples, maxOriginalSamples)
}

func TestTrackerListOrderAndThreshold(t *testing.T) {
	tr := newTestTracker(t)

	tr.Register("alpha")
	tr.Register("alpha")
	tr.Register("alpha")
	tr.Register("beta")
	tr.Register("beta")
	tr.Register("gamma")
	tr.Register("delta")
	tr.Register("delta")

	got := tr.List(2)
	require.Len(t, got, 3)
	assert.Equal(t, "alpha", got[0].Key)
	// Ties break alphabetically.
	assert.Equal(t, "beta", got[1].Key)
	assert.Equal(t, "delta", got[2].Key)
}

func TestTrackerPurgeOld(t *testing.T) {
	tr := newTestTracker(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tr.now = func() time.Time { return base }
	tr.Register("stale")

	tr.now = func() time.Time { return base.Add(40 * 24 * time.Hour) }
	tr.Register("fresh")

	removed := tr.PurgeOld(30)
	assert.Equal(t, 1, removed)

	got := tr.List(1)
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].Key)
}

func TestTrackerPersistRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "unresolved.json")

	tr := NewTracker(path, zerolog.Nop())
	tr.Register("el castillo")
	tr.Register("El Castillo")
	require.NoError(t, tr.persist())

	tr2 := NewTracker(path, zerolog.Nop())
	tr2.Load()
	got := tr2.List(1)
	require.Len(t, got, 1)
	assert.Equal(t, "el castillo", got[0].Key)
	assert.Equal(t, 2, got[0].Hits)
	assert.Contains(t, got[0].OriginalSamples, "el castillo")
}

func TestTrackerListCopies(t *testing.T) {
	tr := newTestTracker(t)
	tr.Register("mutable")

	got := tr.List(1)
	require.Len(t, got, 1)
	got[0].Hits = 99
	got[0].OriginalSamples[0] = "clobbered"

	again := tr.List(1)
	assert.Equal(t, 1, again[0].Hits)
	assert.Equal(t, "mutable", again[0].OriginalSamples[0])
}
