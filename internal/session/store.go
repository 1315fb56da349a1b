// Package session keeps per-conversation slot-filling state: the origin and
// destination resolved in earlier turns, expiring after idle time.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/milinea/milinea-backend/internal/model"
)

// Store owns the session map and its expiry sweep. Eviction is
// lazy-consistent: a session may serve one more interaction before the
// sweep that removes it.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*model.Session

	ttl time.Duration
	log zerolog.Logger
	now func() time.Time

	sweepOnce sync.Once
}

// NewStore creates a session store with the given idle TTL.
func NewStore(ttl time.Duration, log zerolog.Logger) *Store {
	return &Store{
		sessions: make(map[string]*model.Session),
		ttl:      ttl,
		log:      log.With().Str("component", "session_store").Logger(),
		now:      time.Now,
	}
}

// NewID generates a fresh session id.
func NewID() string { return uuid.NewString() }

// Ensure returns the session for id, creating it when absent. Any access
// refreshes the idle clock.
func (s *Store) Ensure(id string) *model.Session {
	if id == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = &model.Session{ID: id}
		s.sessions[id] = sess
	}
	sess.UpdatedAt = s.now()
	return sess
}

// SetOrigin merges a resolved origin into the session.
func (s *Store) SetOrigin(id string, p *model.ResolvedPlace) {
	s.update(id, func(sess *model.Session) { sess.Origin = p })
}

// SetDestination merges a resolved destination into the session.
func (s *Store) SetDestination(id string, p *model.ResolvedPlace) {
	s.update(id, func(sess *model.Session) { sess.Destination = p })
}

func (s *Store) update(id string, fn func(*model.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return
	}
	fn(sess)
	sess.UpdatedAt = s.now()
}

// Get returns the session for id, or nil.
func (s *Store) Get(id string) *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// Evict removes a session explicitly.
func (s *Store) Evict(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// sweep drops sessions idle for longer than the TTL.
func (s *Store) sweep() int {
	cutoff := s.now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweep registers exactly one periodic expiry sweep. Subsequent calls
// are no-ops.
func (s *Store) StartSweep(ctx context.Context, period time.Duration) {
	s.sweepOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(period)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if n := s.sweep(); n > 0 {
						s.log.Debug().Int("evicted", n).Msg("idle sessions swept")
					}
				}
			}
		}()
	})
}
