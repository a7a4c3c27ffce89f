package app

import (
	"context"
	"sync"
	"time"

	"lms-assessment-service/internal/domain"
)

// QuizRepository is the cached read side for quiz definitions.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	// Invalidate drops any cached copy so the next read observes an edit.
	Invalidate(ctx context.Context, quizID string) error
}

// QuizStore is the authoring write side: uncached load + save.
type QuizStore interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
}

// AttemptStore persists completed attempt records.
type AttemptStore interface {
	// Completed returns the completed attempts for (quiz, user), ordered by
	// attempt number.
	Completed(ctx context.Context, quizID, userID string) ([]domain.AttemptRecord, error)
	// Append assigns the next attempt number and persists rec, but only if
	// the completed count for (quiz, user) is still below limit (0 means
	// unlimited). The check and the write are atomic with respect to other
	// Append calls; domain.ErrAttemptLimitExceeded is returned otherwise.
	Append(ctx context.Context, rec domain.AttemptRecord, limit int) (domain.AttemptRecord, error)
	ListByQuiz(ctx context.Context, quizID string) ([]domain.AttemptRecord, error)
	ListByUser(ctx context.Context, userID string) ([]domain.AttemptRecord, error)
	Get(ctx context.Context, attemptID string) (domain.AttemptRecord, error)
	// Update rewrites a stored record; used only for essay re-grading.
	Update(ctx context.Context, rec domain.AttemptRecord) error
	// DeleteFor removes all attempts for (quiz, user); instructor reset.
	DeleteFor(ctx context.Context, quizID, userID string) error
}

// ProgressStore tracks in-progress attempts. Markers carry the
// server-recorded start time and expire on their own past the quiz time
// limit plus a grace period, so an abandoned attempt never consumes a slot.
type ProgressStore interface {
	// Start records startedAt for (quiz, user) unless a live marker already
	// exists, and returns the marker's start time either way.
	Start(ctx context.Context, quizID, userID string, startedAt time.Time, ttl time.Duration) (time.Time, error)
	// Get returns the live marker's start time, if any.
	Get(ctx context.Context, quizID, userID string) (time.Time, bool, error)
	Clear(ctx context.Context, quizID, userID string) error
}

// Notifier receives result events for downstream delivery (notifications,
// certificate issuance). Delivery retries are the collaborator's concern.
type Notifier interface {
	PublishResult(ctx context.Context, ev domain.ResultEvent)
}

// NopNotifier discards result events; used when no collaborator is wired.
type NopNotifier struct{}

func (NopNotifier) PublishResult(context.Context, domain.ResultEvent) {}

// AssessmentService owns the attempt lifecycle and quiz authoring use cases.
type AssessmentService struct {
	quizzes  QuizRepository
	store    QuizStore
	attempts AttemptStore
	progress ProgressStore
	notifier Notifier
	clock    func() time.Time
	grace    time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option tweaks service construction.
type Option func(*AssessmentService)

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *AssessmentService) { s.clock = now }
}

// WithGrace overrides the abandonment grace period added to time limits.
func WithGrace(d time.Duration) Option {
	return func(s *AssessmentService) { s.grace = d }
}

func NewAssessmentService(quizzes QuizRepository, store QuizStore, attempts AttemptStore, progress ProgressStore, notifier Notifier, opts ...Option) *AssessmentService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	s := &AssessmentService{
		quizzes:  quizzes,
		store:    store,
		attempts: attempts,
		progress: progress,
		notifier: notifier,
		clock:    time.Now,
		grace:    5 * time.Minute,
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lockFor returns the single-writer critical section for one (quiz, user).
func (s *AssessmentService) lockFor(quizID, userID string) *sync.Mutex {
	key := quizID + "\x00" + userID
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[key] = l
	return l
}

// progressTTL is the lifetime of an in-progress marker: time limit plus
// grace for timed quizzes, zero (no expiry) when the quiz is untimed.
func (s *AssessmentService) progressTTL(quiz domain.Quiz) time.Duration {
	if quiz.TimeLimitSeconds <= 0 {
		return 0
	}
	return time.Duration(quiz.TimeLimitSeconds)*time.Second + s.grace
}

// submittable rejects draft quizzes unless the caller is privileged and the
// quiz is flagged for preview.
func submittable(quiz domain.Quiz, caller domain.Caller) error {
	if quiz.Published {
		return nil
	}
	if caller.CanAuthor() && quiz.Preview {
		return nil
	}
	return domain.ErrQuizNotPublished
}
