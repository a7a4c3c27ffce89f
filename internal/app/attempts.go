package app

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"lms-assessment-service/internal/domain"
	"lms-assessment-service/internal/grading"
	"lms-assessment-service/internal/preview"
	"lms-assessment-service/internal/stats"
)

// AnswerInput is one submitted answer; the value's JSON shape depends on the
// question's type and is decoded against it.
type AnswerInput struct {
	QuestionID string          `json:"questionId"`
	Value      json.RawMessage `json:"value"`
}

// SubmitRequest is a full submission for one attempt.
type SubmitRequest struct {
	QuizID  string        `json:"quizId"`
	Caller  domain.Caller `json:"-"`
	Answers []AnswerInput `json:"answers"`
}

// QuestionResult is the per-question slice of a submission response.
// CorrectAnswer and Explanation are present only when the preview policy
// reveals them.
type QuestionResult struct {
	QuestionID    string `json:"questionId"`
	IsCorrect     *bool  `json:"isCorrect"`
	PointsEarned  int    `json:"pointsEarned"`
	PendingGrade  bool   `json:"pendingGrade,omitempty"`
	CorrectAnswer any    `json:"correctAnswer,omitempty"`
	Explanation   string `json:"explanation,omitempty"`
}

// SubmitResult is the caller-facing outcome of a graded submission.
type SubmitResult struct {
	AttemptNumber     int              `json:"attemptNumber"`
	Score             int              `json:"score"`
	Passed            bool             `json:"passed"`
	Late              bool             `json:"late"`
	AttemptsRemaining int              `json:"attemptsRemaining"` // -1 = unlimited
	PerQuestion       []QuestionResult `json:"perQuestion"`
}

// StartView is what a student sees when an attempt begins: the ordered,
// sanitized question set and the server-recorded start time.
type StartView struct {
	QuizID           string            `json:"quizId"`
	AttemptNumber    int               `json:"attemptNumber"`
	StartedAt        time.Time         `json:"startedAt"`
	TimeLimitSeconds int               `json:"timeLimitSeconds"`
	Questions        []domain.Question `json:"questions"`
}

// StartAttempt begins (or re-fetches) an in-progress attempt. The start time
// is server-authoritative: repeated calls return the original marker, and
// the shuffle order is stable for the attempt's lifetime.
func (s *AssessmentService) StartAttempt(ctx context.Context, quizID string, caller domain.Caller) (StartView, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return StartView{}, err
	}
	if err := submittable(quiz, caller); err != nil {
		return StartView{}, err
	}

	completed, err := s.attempts.Completed(ctx, quizID, caller.UserID)
	if err != nil {
		return StartView{}, err
	}
	if quiz.AllowedAttempts > 0 && len(completed) >= quiz.AllowedAttempts {
		return StartView{}, domain.ErrAttemptLimitExceeded
	}

	attemptNumber := len(completed) + 1
	startedAt, err := s.progress.Start(ctx, quizID, caller.UserID, s.clock(), s.progressTTL(quiz))
	if err != nil {
		return StartView{}, err
	}

	ordered := preview.Order(quiz, caller.UserID, attemptNumber)
	return StartView{
		QuizID:           quiz.ID,
		AttemptNumber:    attemptNumber,
		StartedAt:        startedAt,
		TimeLimitSeconds: quiz.TimeLimitSeconds,
		Questions:        preview.Sanitize(ordered),
	}, nil
}

// Submit grades a full submission and persists the resulting attempt record.
//
// Submissions for one (user, quiz) are serialized: a concurrent submit for
// the same in-progress attempt is rejected rather than queued, and the
// attempt-count reservation is re-checked at the persistence boundary.
func (s *AssessmentService) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, req.QuizID)
	if err != nil {
		return SubmitResult{}, err
	}
	if err := submittable(quiz, req.Caller); err != nil {
		return SubmitResult{}, err
	}
	totalPoints := stats.TotalPoints(quiz)
	if totalPoints <= 0 {
		return SubmitResult{}, domain.ErrInconsistentQuestion
	}

	lock := s.lockFor(req.QuizID, req.Caller.UserID)
	if !lock.TryLock() {
		return SubmitResult{}, domain.ErrAttemptAlreadyInProgress
	}
	defer lock.Unlock()

	completed, err := s.attempts.Completed(ctx, req.QuizID, req.Caller.UserID)
	if err != nil {
		return SubmitResult{}, err
	}
	if quiz.AllowedAttempts > 0 && len(completed) >= quiz.AllowedAttempts {
		return SubmitResult{}, domain.ErrAttemptLimitExceeded
	}
	attemptNumber := len(completed) + 1

	now := s.clock()
	startedAt, ok, err := s.progress.Get(ctx, req.QuizID, req.Caller.UserID)
	if err != nil {
		return SubmitResult{}, err
	}
	if !ok {
		// Submission without an explicit start: the attempt begins now.
		startedAt = now
	}
	timeSpent := int(now.Sub(startedAt) / time.Second)
	late := quiz.TimeLimitSeconds > 0 && timeSpent > quiz.TimeLimitSeconds

	byQuestion := make(map[string]json.RawMessage, len(req.Answers))
	for _, in := range req.Answers {
		byQuestion[in.QuestionID] = in.Value
	}

	ordered := preview.Order(quiz, req.Caller.UserID, attemptNumber)
	records := make([]domain.AnswerRecord, 0, len(ordered))
	results := make([]QuestionResult, 0, len(ordered))
	earned := 0
	for _, q := range ordered {
		answer := decodeAnswer(q, byQuestion[q.ID])
		graded, err := grading.Grade(q, answer)
		if err != nil {
			return SubmitResult{}, err
		}
		earned += graded.PointsEarned
		records = append(records, domain.AnswerRecord{
			QuestionID:   q.ID,
			Answer:       answer,
			IsCorrect:    graded.IsCorrect,
			PointsEarned: graded.PointsEarned,
		})
		results = append(results, questionResult(quiz, q, graded, req.Caller))
	}

	score := roundPercent(earned, totalPoints)
	passed := score >= quiz.PassingScorePercent
	if late {
		// Late work is still graded but the attempt is consumed with a zero
		// score, closing the limit bypass of deliberately slow submissions.
		score = 0
		passed = false
	}

	rec := domain.AttemptRecord{
		ID:               uuid.NewString(),
		QuizID:           quiz.ID,
		UserID:           req.Caller.UserID,
		AttemptNumber:    attemptNumber,
		StartedAt:        startedAt,
		CompletedAt:      now,
		TimeSpentSeconds: timeSpent,
		TotalPoints:      totalPoints,
		Answers:          records,
		Score:            score,
		Passed:           passed,
		Late:             late,
	}
	stored, err := s.attempts.Append(ctx, rec, quiz.AllowedAttempts)
	if err != nil {
		return SubmitResult{}, err
	}
	if err := s.progress.Clear(ctx, quiz.ID, req.Caller.UserID); err != nil {
		log.Printf("clear progress marker for quiz %s user %s: %v", quiz.ID, req.Caller.UserID, err)
	}

	s.notifier.PublishResult(ctx, domain.ResultEvent{
		UserID:        stored.UserID,
		QuizID:        stored.QuizID,
		AttemptNumber: stored.AttemptNumber,
		Score:         stored.Score,
		Passed:        stored.Passed,
	})

	return SubmitResult{
		AttemptNumber:     stored.AttemptNumber,
		Score:             stored.Score,
		Passed:            stored.Passed,
		Late:              stored.Late,
		AttemptsRemaining: remaining(quiz.AllowedAttempts, stored.AttemptNumber),
		PerQuestion:       results,
	}, nil
}

func decodeAnswer(q domain.Question, raw json.RawMessage) domain.Answer {
	if len(raw) == 0 {
		return domain.Answer{}
	}
	answer, err := domain.DecodeAnswer(q.Type, raw)
	if err != nil {
		// Wrong shape for the type: grade it as incorrect, do not fail the
		// rest of the submission.
		return domain.Answer{}
	}
	return answer
}

func questionResult(quiz domain.Quiz, q domain.Question, graded domain.GradeResult, caller domain.Caller) QuestionResult {
	res := QuestionResult{
		QuestionID:   q.ID,
		IsCorrect:    graded.IsCorrect,
		PointsEarned: graded.PointsEarned,
		PendingGrade: graded.PendingGrade,
	}
	if !preview.Reveal(quiz, caller) {
		return res
	}
	res.Explanation = q.Explanation
	switch q.Type {
	case domain.MultipleChoice, domain.TrueFalse:
		if opt, ok := q.CorrectOption(); ok {
			res.CorrectAnswer = opt.ID
		}
	case domain.FillBlank:
		res.CorrectAnswer = q.Accepted
	case domain.Matching:
		expected := make(map[string]string, len(q.Pairs))
		for _, p := range q.Pairs {
			expected[p.Left] = p.Right
		}
		res.CorrectAnswer = expected
	}
	return res
}

func roundPercent(earned, total int) int {
	return int(math.Round(float64(earned) / float64(total) * 100))
}

func remaining(allowed, used int) int {
	if allowed <= 0 {
		return -1
	}
	left := allowed - used
	if left < 0 {
		return 0
	}
	return left
}
