package app

import (
	"context"

	"lms-assessment-service/internal/domain"
	"lms-assessment-service/internal/stats"
)

// EssayGrade is an instructor's verdict for one essay answer.
type EssayGrade struct {
	Correct bool `json:"correct"`
	Points  int  `json:"points"`
}

// GradeEssays applies manual grades to the essay answers of one stored
// attempt and recomputes its score. Non-essay answers are never touched.
// The update is idempotent: re-applying the same grades yields the same
// record.
func (s *AssessmentService) GradeEssays(ctx context.Context, attemptID string, grades map[string]EssayGrade, caller domain.Caller) (domain.AttemptRecord, error) {
	if !caller.CanAuthor() {
		return domain.AttemptRecord{}, domain.Invalid("caller", "essay grading requires instructor privilege")
	}
	rec, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return domain.AttemptRecord{}, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, rec.QuizID)
	if err != nil {
		return domain.AttemptRecord{}, err
	}

	earned := 0
	for i := range rec.Answers {
		ans := &rec.Answers[i]
		if grade, ok := grades[ans.QuestionID]; ok {
			// The question may have been removed since the attempt; the
			// historical answer is still gradable. A question that still
			// exists must actually be an essay.
			if q, present := quiz.QuestionByID(ans.QuestionID); present && q.Type != domain.Essay {
				return domain.AttemptRecord{}, domain.Invalid("questionId", "manual grades apply to essay questions only")
			}
			if grade.Points < 0 {
				return domain.AttemptRecord{}, domain.Invalid("points", "points cannot be negative")
			}
			verdict := grade.Correct
			ans.IsCorrect = &verdict
			ans.PointsEarned = grade.Points
		}
		earned += ans.PointsEarned
	}
	if earned > rec.TotalPoints {
		return domain.AttemptRecord{}, domain.Invalid("points", "awarded points exceed the attempt's total")
	}

	if !rec.Late {
		rec.Score = roundPercent(earned, rec.TotalPoints)
		rec.Passed = rec.Score >= quiz.PassingScorePercent
	}
	if err := s.attempts.Update(ctx, rec); err != nil {
		return domain.AttemptRecord{}, err
	}

	s.notifier.PublishResult(ctx, domain.ResultEvent{
		UserID:        rec.UserID,
		QuizID:        rec.QuizID,
		AttemptNumber: rec.AttemptNumber,
		Score:         rec.Score,
		Passed:        rec.Passed,
	})
	return rec, nil
}

// QuizStats recomputes the quiz's derived statistics from its completed
// attempts. Nothing is cached; attempt records are the source of truth.
func (s *AssessmentService) QuizStats(ctx context.Context, quizID string) (stats.Summary, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return stats.Summary{}, err
	}
	attempts, err := s.attempts.ListByQuiz(ctx, quizID)
	if err != nil {
		return stats.Summary{}, err
	}
	return stats.Summarize(quiz, attempts), nil
}

// ListUserAttempts returns every completed attempt of one user across quizzes.
func (s *AssessmentService) ListUserAttempts(ctx context.Context, userID string) ([]domain.AttemptRecord, error) {
	return s.attempts.ListByUser(ctx, userID)
}

// GetAttempt fetches a single attempt record. Students may only read their
// own attempts.
func (s *AssessmentService) GetAttempt(ctx context.Context, attemptID string, caller domain.Caller) (domain.AttemptRecord, error) {
	rec, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return domain.AttemptRecord{}, err
	}
	if !caller.CanAuthor() && rec.UserID != caller.UserID {
		return domain.AttemptRecord{}, domain.ErrAttemptNotFound
	}
	return rec, nil
}

// ResetAttempts clears a user's attempt history for a quiz, freeing their
// attempt allowance. Instructor-only, mirroring the LMS reset endpoint.
func (s *AssessmentService) ResetAttempts(ctx context.Context, quizID, userID string, caller domain.Caller) error {
	if !caller.CanAuthor() {
		return domain.Invalid("caller", "resetting attempts requires instructor privilege")
	}
	lock := s.lockFor(quizID, userID)
	lock.Lock()
	defer lock.Unlock()
	if err := s.attempts.DeleteFor(ctx, quizID, userID); err != nil {
		return err
	}
	return s.progress.Clear(ctx, quizID, userID)
}
