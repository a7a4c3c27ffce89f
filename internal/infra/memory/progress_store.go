package memory

import (
	"context"
	"sync"
	"time"
)

// ProgressStore tracks in-progress attempt markers in memory. Expired
// markers are dropped lazily on read; an abandoned attempt simply ages out
// without ever consuming an attempt slot.
type ProgressStore struct {
	clock   func() time.Time
	mu      sync.Mutex
	markers map[string]progressMarker
}

type progressMarker struct {
	startedAt time.Time
	expiresAt time.Time // zero = no expiry
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		clock:   time.Now,
		markers: make(map[string]progressMarker),
	}
}

// NewProgressStoreWithClock is test-only for deterministic expiry.
func NewProgressStoreWithClock(now func() time.Time) *ProgressStore {
	s := NewProgressStore()
	s.clock = now
	return s
}

func (s *ProgressStore) Start(_ context.Context, quizID, userID string, startedAt time.Time, ttl time.Duration) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ownerKey(quizID, userID)
	if m, ok := s.markers[key]; ok && s.live(m) {
		return m.startedAt, nil
	}
	m := progressMarker{startedAt: startedAt}
	if ttl > 0 {
		m.expiresAt = startedAt.Add(ttl)
	}
	s.markers[key] = m
	return startedAt, nil
}

func (s *ProgressStore) Get(_ context.Context, quizID, userID string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ownerKey(quizID, userID)
	m, ok := s.markers[key]
	if !ok {
		return time.Time{}, false, nil
	}
	if !s.live(m) {
		delete(s.markers, key)
		return time.Time{}, false, nil
	}
	return m.startedAt, true, nil
}

func (s *ProgressStore) Clear(_ context.Context, quizID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markers, ownerKey(quizID, userID))
	return nil
}

func (s *ProgressStore) live(m progressMarker) bool {
	return m.expiresAt.IsZero() || m.expiresAt.After(s.clock())
}
