package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProgressStore keeps in-progress attempt markers in Redis.
// Markers are stored as: SET quiz:attempt:{quizID}:{userID} {startedAt RFC3339Nano} EX ttl
// Expiry doubles as abandonment handling: a marker that outlives the quiz's
// time limit plus grace vanishes, and the abandoned attempt never counts
// against the attempt allowance.
type ProgressStore struct {
	client *redis.Client
}

func NewProgressStore(client *redis.Client) *ProgressStore {
	return &ProgressStore{client: client}
}

func (s *ProgressStore) Start(ctx context.Context, quizID, userID string, startedAt time.Time, ttl time.Duration) (time.Time, error) {
	key := s.key(quizID, userID)
	set, err := s.client.SetNX(ctx, key, startedAt.Format(time.RFC3339Nano), ttl).Result()
	if err != nil {
		return time.Time{}, err
	}
	if set {
		return startedAt, nil
	}
	// Another fetch already started this attempt; return its marker.
	existing, ok, err := s.Get(ctx, quizID, userID)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		// Marker expired between SetNX and Get; claim it now.
		if err := s.client.Set(ctx, key, startedAt.Format(time.RFC3339Nano), ttl).Err(); err != nil {
			return time.Time{}, err
		}
		return startedAt, nil
	}
	return existing, nil
}

func (s *ProgressStore) Get(ctx context.Context, quizID, userID string) (time.Time, bool, error) {
	raw, err := s.client.Get(ctx, s.key(quizID, userID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	startedAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return startedAt, true, nil
}

func (s *ProgressStore) Clear(ctx context.Context, quizID, userID string) error {
	return s.client.Del(ctx, s.key(quizID, userID)).Err()
}

func (s *ProgressStore) key(quizID, userID string) string {
	return "quiz:attempt:" + quizID + ":" + userID
}
