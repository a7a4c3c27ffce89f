package memory

import (
	"context"
	"sort"
	"sync"

	"lms-assessment-service/internal/domain"
)

// AttemptStore keeps attempt records in memory. Append performs the
// check-and-reserve atomically under the store lock, so concurrent
// submissions can never push a (quiz, user) past its attempt limit.
type AttemptStore struct {
	mu      sync.RWMutex
	byID    map[string]domain.AttemptRecord
	byOwner map[string][]string // quizID+userID -> ordered attempt IDs
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		byID:    make(map[string]domain.AttemptRecord),
		byOwner: make(map[string][]string),
	}
}

func ownerKey(quizID, userID string) string {
	return quizID + "\x00" + userID
}

func (s *AttemptStore) Completed(_ context.Context, quizID, userID string) ([]domain.AttemptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byOwner[ownerKey(quizID, userID)]
	out := make([]domain.AttemptRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byID[id])
	}
	return out, nil
}

func (s *AttemptStore) Append(_ context.Context, rec domain.AttemptRecord, limit int) (domain.AttemptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ownerKey(rec.QuizID, rec.UserID)
	existing := s.byOwner[key]
	if limit > 0 && len(existing) >= limit {
		return domain.AttemptRecord{}, domain.ErrAttemptLimitExceeded
	}
	rec.AttemptNumber = len(existing) + 1
	s.byID[rec.ID] = rec
	s.byOwner[key] = append(existing, rec.ID)
	return rec, nil
}

func (s *AttemptStore) ListByQuiz(_ context.Context, quizID string) ([]domain.AttemptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AttemptRecord
	for _, rec := range s.byID {
		if rec.QuizID == quizID {
			out = append(out, rec)
		}
	}
	sortAttempts(out)
	return out, nil
}

func (s *AttemptStore) ListByUser(_ context.Context, userID string) ([]domain.AttemptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AttemptRecord
	for _, rec := range s.byID {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sortAttempts(out)
	return out, nil
}

func (s *AttemptStore) Get(_ context.Context, attemptID string) (domain.AttemptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.byID[attemptID]; ok {
		return rec, nil
	}
	return domain.AttemptRecord{}, domain.ErrAttemptNotFound
}

func (s *AttemptStore) Update(_ context.Context, rec domain.AttemptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[rec.ID]; !ok {
		return domain.ErrAttemptNotFound
	}
	s.byID[rec.ID] = rec
	return nil
}

func (s *AttemptStore) DeleteFor(_ context.Context, quizID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ownerKey(quizID, userID)
	for _, id := range s.byOwner[key] {
		delete(s.byID, id)
	}
	delete(s.byOwner, key)
	return nil
}

func sortAttempts(recs []domain.AttemptRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].CompletedAt.Equal(recs[j].CompletedAt) {
			return recs[i].AttemptNumber < recs[j].AttemptNumber
		}
		return recs[i].CompletedAt.Before(recs[j].CompletedAt)
	})
}
