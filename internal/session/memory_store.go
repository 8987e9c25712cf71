package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. It is the default backend:
// sessions are short-lived and losing them on restart means the caller
// re-uploads.
type MemoryStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]Record
}

// NewMemoryStore creates an in-memory store with the given TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]Record),
	}
}

// Put stores all four session fields as one unit. A zero CreatedAt is
// stamped with the current time.
func (s *MemoryStore) Put(_ context.Context, documentID string, rec Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	s.mu.Lock()
	s.sessions[documentID] = rec
	s.mu.Unlock()

	return nil
}

// Get returns the session record, or ErrNotFound when absent or past its
// TTL. Expiry is checked on read so a session is unusable as soon as it
// ages out, even before the next sweep.
func (s *MemoryStore) Get(_ context.Context, documentID string) (Record, error) {
	s.mu.RLock()
	rec, ok := s.sessions[documentID]
	s.mu.RUnlock()

	if !ok || time.Since(rec.CreatedAt) > s.ttl {
		return Record{}, ErrNotFound
	}

	return rec, nil
}

// Evict removes the session. Evicting an unknown id is a no-op.
func (s *MemoryStore) Evict(_ context.Context, documentID string) error {
	s.mu.Lock()
	delete(s.sessions, documentID)
	s.mu.Unlock()

	return nil
}

// Sweep evicts every session whose creation timestamp is older than the TTL
// relative to now.
func (s *MemoryStore) Sweep(_ context.Context, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0

	for id, rec := range s.sessions {
		if now.Sub(rec.CreatedAt) > s.ttl {
			delete(s.sessions, id)

			evicted++
		}
	}

	return evicted
}

// Len reports the number of live entries, expired or not. Used by tests and
// the readiness probe.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}
