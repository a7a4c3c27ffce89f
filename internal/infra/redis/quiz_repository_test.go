package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"lms-assessment-service/internal/domain"
)

type countingLoader struct {
	quizzes map[string]domain.Quiz
	calls   int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	quiz, ok := l.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func testQuiz() domain.Quiz {
	return domain.Quiz{
		ID:                  "quiz-1",
		Title:               "Cached",
		PassingScorePercent: 70,
		Published:           true,
		Questions: []domain.Question{
			{
				ID: "q1", Text: "Pick", Type: domain.MultipleChoice, Points: 2,
				Options: []domain.Option{{ID: "a", Correct: true}, {ID: "b"}},
			},
		},
	}
}

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestQuizRepositoryCachesInRedis(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	loader := &countingLoader{quizzes: map[string]domain.Quiz{"quiz-1": testQuiz()}}
	repo := NewQuizRepository(client, loader, time.Minute)

	got, err := repo.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if got.Title != "Cached" || len(got.Questions) != 1 {
		t.Fatalf("unexpected quiz: %+v", got)
	}
	if !mr.Exists("quiz:quiz-1:def") {
		t.Fatalf("expected cache key to be set")
	}

	if _, err := repo.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}
}

func TestQuizRepositoryReloadsAfterExpiry(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	loader := &countingLoader{quizzes: map[string]domain.Quiz{"quiz-1": testQuiz()}}
	repo := NewQuizRepository(client, loader, time.Minute)

	if _, err := repo.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := repo.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("get quiz after expiry: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after TTL, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryInvalidateDropsKey(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	loader := &countingLoader{quizzes: map[string]domain.Quiz{"quiz-1": testQuiz()}}
	repo := NewQuizRepository(client, loader, time.Minute)

	if _, err := repo.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if err := repo.Invalidate(ctx, "quiz-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists("quiz:quiz-1:def") {
		t.Fatalf("expected cache key to be gone")
	}
	if _, err := repo.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("get quiz after invalidate: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryPropagatesNotFound(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)
	loader := &countingLoader{quizzes: map[string]domain.Quiz{}}
	repo := NewQuizRepository(client, loader, time.Minute)

	if _, err := repo.GetQuiz(ctx, "missing"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected quiz-not-found, got %v", err)
	}
}
