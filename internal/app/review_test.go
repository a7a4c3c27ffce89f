package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"lms-assessment-service/internal/app"
	"lms-assessment-service/internal/domain"
)

func essayQuiz() domain.Quiz {
	return domain.Quiz{
		ID:                  "quiz-essay",
		Title:               "Mixed",
		OwnerID:             "teacher-1",
		PassingScorePercent: 60,
		Published:           true,
		Questions: []domain.Question{
			{
				ID: "q1", Text: "Choose", Type: domain.MultipleChoice, Points: 5,
				Options: []domain.Option{{ID: "a1", Correct: true}, {ID: "a2"}},
			},
			{ID: "q2", Text: "Discuss", Type: domain.Essay, Points: 5},
		},
	}
}

func instructor() domain.Caller {
	return domain.Caller{UserID: "teacher-1", Role: domain.RoleInstructor}
}

func submitEssayQuiz(t *testing.T, f *fixture) string {
	t.Helper()
	choiceValue, _ := json.Marshal("a1")
	essayValue, _ := json.Marshal("my essay")
	if _, err := f.service.Submit(context.Background(), app.SubmitRequest{
		QuizID: "quiz-essay",
		Caller: student("u1"),
		Answers: []app.AnswerInput{
			{QuestionID: "q1", Value: choiceValue},
			{QuestionID: "q2", Value: essayValue},
		},
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	attempts, err := f.attempts.Completed(context.Background(), "quiz-essay", "u1")
	if err != nil || len(attempts) != 1 {
		t.Fatalf("expected 1 stored attempt, got %d (err %v)", len(attempts), err)
	}
	return attempts[0].ID
}

func TestGradeEssaysRecomputesScore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(essayQuiz())
	attemptID := submitEssayQuiz(t, f)

	rec, err := f.service.GradeEssays(ctx, attemptID, map[string]app.EssayGrade{
		"q2": {Correct: true, Points: 5},
	}, instructor())
	if err != nil {
		t.Fatalf("grade essays: %v", err)
	}
	if rec.Score != 100 || !rec.Passed {
		t.Fatalf("expected score=100 passed=true after manual grade, got score=%d passed=%v", rec.Score, rec.Passed)
	}
	var essay *domain.AnswerRecord
	for i := range rec.Answers {
		if rec.Answers[i].QuestionID == "q2" {
			essay = &rec.Answers[i]
		}
	}
	if essay == nil || essay.IsCorrect == nil || !*essay.IsCorrect || essay.PointsEarned != 5 {
		t.Fatalf("expected graded essay answer, got %+v", essay)
	}

	// Idempotent: applying the same grades again changes nothing.
	again, err := f.service.GradeEssays(ctx, attemptID, map[string]app.EssayGrade{
		"q2": {Correct: true, Points: 5},
	}, instructor())
	if err != nil {
		t.Fatalf("regrade: %v", err)
	}
	if again.Score != rec.Score || again.Passed != rec.Passed {
		t.Fatalf("regrade changed the record: %+v vs %+v", again, rec)
	}
}

func TestGradeEssaysRejectsNonEssayQuestions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(essayQuiz())
	attemptID := submitEssayQuiz(t, f)

	_, err := f.service.GradeEssays(ctx, attemptID, map[string]app.EssayGrade{
		"q1": {Correct: true, Points: 5},
	}, instructor())
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error for non-essay grade, got %v", err)
	}
}

func TestGradeEssaysRequiresInstructor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(essayQuiz())
	attemptID := submitEssayQuiz(t, f)

	_, err := f.service.GradeEssays(ctx, attemptID, map[string]app.EssayGrade{
		"q2": {Correct: true, Points: 5},
	}, student("u1"))
	if !domain.IsValidation(err) {
		t.Fatalf("expected privilege error, got %v", err)
	}
}

func TestGradeEssaysCapsAtTotalPoints(t *testing.T) {
	ctx := context.Background()
	f := newFixture(essayQuiz())
	attemptID := submitEssayQuiz(t, f)

	_, err := f.service.GradeEssays(ctx, attemptID, map[string]app.EssayGrade{
		"q2": {Correct: true, Points: 50},
	}, instructor())
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error when points exceed the total, got %v", err)
	}
}

func TestQuizStatsRecomputedFromAttempts(t *testing.T) {
	ctx := context.Background()
	quiz := twoChoiceQuiz()
	quiz.AllowedAttempts = 0
	f := newFixture(quiz)

	empty, err := f.service.QuizStats(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if empty.AverageScore != 0 || empty.PassingRate != 0 || empty.AttemptCount != 0 {
		t.Fatalf("expected zeroed stats with no attempts, got %+v", empty)
	}

	if _, err := f.service.Submit(ctx, app.SubmitRequest{
		QuizID:  "quiz-1",
		Caller:  student("u1"),
		Answers: answers(map[string]string{"q1": "a1", "q2": "b2"}),
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.service.Submit(ctx, app.SubmitRequest{
		QuizID:  "quiz-1",
		Caller:  student("u2"),
		Answers: answers(map[string]string{"q1": "a2", "q2": "b1"}),
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	summary, err := f.service.QuizStats(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if summary.AttemptCount != 2 {
		t.Fatalf("expected 2 attempts, got %d", summary.AttemptCount)
	}
	if summary.AverageScore != 50 {
		t.Fatalf("expected average 50, got %v", summary.AverageScore)
	}
	if summary.PassingRate != 50 {
		t.Fatalf("expected passing rate 50, got %d", summary.PassingRate)
	}
	if summary.TotalPoints != 2 {
		t.Fatalf("expected total points 2, got %d", summary.TotalPoints)
	}
}

func TestResetAttemptsFreesAllowance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(twoChoiceQuiz())

	if _, err := f.service.Submit(ctx, app.SubmitRequest{
		QuizID:  "quiz-1",
		Caller:  student("u1"),
		Answers: answers(map[string]string{"q1": "a1", "q2": "b2"}),
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := f.service.ResetAttempts(ctx, "quiz-1", "u1", student("u2")); !domain.IsValidation(err) {
		t.Fatalf("expected privilege error for student reset, got %v", err)
	}
	if err := f.service.ResetAttempts(ctx, "quiz-1", "u1", instructor()); err != nil {
		t.Fatalf("reset: %v", err)
	}

	result, err := f.service.Submit(ctx, app.SubmitRequest{
		QuizID:  "quiz-1",
		Caller:  student("u1"),
		Answers: answers(map[string]string{"q1": "a1", "q2": "b2"}),
	})
	if err != nil {
		t.Fatalf("submit after reset: %v", err)
	}
	if result.AttemptNumber != 1 {
		t.Fatalf("expected attempt numbering to restart, got %d", result.AttemptNumber)
	}
}

func TestGetAttemptEnforcesOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(essayQuiz())
	attemptID := submitEssayQuiz(t, f)

	if _, err := f.service.GetAttempt(ctx, attemptID, student("u1")); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := f.service.GetAttempt(ctx, attemptID, student("u2")); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected not-found for other students, got %v", err)
	}
	if _, err := f.service.GetAttempt(ctx, attemptID, instructor()); err != nil {
		t.Fatalf("instructor read: %v", err)
	}
}
