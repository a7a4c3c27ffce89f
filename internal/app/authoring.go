package app

import (
	"context"

	"github.com/google/uuid"

	"lms-assessment-service/internal/bank"
	"lms-assessment-service/internal/domain"
)

// CreateQuiz stores a new draft quiz owned by the caller.
func (s *AssessmentService) CreateQuiz(ctx context.Context, quiz domain.Quiz, caller domain.Caller) (domain.Quiz, error) {
	if !caller.CanAuthor() {
		return domain.Quiz{}, domain.Invalid("caller", "quiz authoring requires instructor privilege")
	}
	if quiz.Title == "" {
		return domain.Quiz{}, domain.Invalid("title", "quiz title is required")
	}
	if quiz.PassingScorePercent == 0 {
		quiz.PassingScorePercent = 70
	}
	if quiz.PassingScorePercent < 0 || quiz.PassingScorePercent > 100 {
		return domain.Quiz{}, domain.Invalid("passingScorePercent", "must be between 0 and 100")
	}
	for _, q := range quiz.Questions {
		if err := bank.ValidateQuestion(q); err != nil {
			return domain.Quiz{}, err
		}
	}
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	quiz.OwnerID = caller.UserID
	quiz.Published = false
	if err := s.store.SaveQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// editQuiz loads the quiz, applies fn, saves, and invalidates the read cache.
func (s *AssessmentService) editQuiz(ctx context.Context, quizID string, caller domain.Caller, fn func(*domain.Quiz) error) (domain.Quiz, error) {
	if !caller.CanAuthor() {
		return domain.Quiz{}, domain.Invalid("caller", "quiz authoring requires instructor privilege")
	}
	quiz, err := s.store.LoadQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if err := fn(&quiz); err != nil {
		return domain.Quiz{}, err
	}
	if err := s.store.SaveQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	if err := s.quizzes.Invalidate(ctx, quizID); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// AddQuestion appends a validated question to the quiz.
func (s *AssessmentService) AddQuestion(ctx context.Context, quizID string, q domain.Question, caller domain.Caller) (domain.Question, error) {
	var added domain.Question
	_, err := s.editQuiz(ctx, quizID, caller, func(quiz *domain.Quiz) error {
		var err error
		added, err = bank.AddQuestion(quiz, q)
		return err
	})
	return added, err
}

// UpdateQuestion replaces an existing question in place.
func (s *AssessmentService) UpdateQuestion(ctx context.Context, quizID string, q domain.Question, caller domain.Caller) error {
	_, err := s.editQuiz(ctx, quizID, caller, func(quiz *domain.Quiz) error {
		return bank.UpdateQuestion(quiz, q)
	})
	return err
}

// RemoveQuestion drops a question; historical answer records keep referencing
// its ID and remain readable.
func (s *AssessmentService) RemoveQuestion(ctx context.Context, quizID, questionID string, caller domain.Caller) error {
	_, err := s.editQuiz(ctx, quizID, caller, func(quiz *domain.Quiz) error {
		return bank.RemoveQuestion(quiz, questionID)
	})
	return err
}

// ReorderQuestions rearranges display order without touching identifiers.
func (s *AssessmentService) ReorderQuestions(ctx context.Context, quizID string, ids []string, caller domain.Caller) error {
	_, err := s.editQuiz(ctx, quizID, caller, func(quiz *domain.Quiz) error {
		return bank.Reorder(quiz, ids)
	})
	return err
}

// Publish makes the quiz available to students after validating it as a whole.
func (s *AssessmentService) Publish(ctx context.Context, quizID string, caller domain.Caller) (domain.Quiz, error) {
	return s.editQuiz(ctx, quizID, caller, func(quiz *domain.Quiz) error {
		if err := bank.ValidateForPublish(*quiz); err != nil {
			return err
		}
		quiz.Published = true
		return nil
	})
}

// Unpublish reverts the quiz to draft.
func (s *AssessmentService) Unpublish(ctx context.Context, quizID string, caller domain.Caller) (domain.Quiz, error) {
	return s.editQuiz(ctx, quizID, caller, func(quiz *domain.Quiz) error {
		quiz.Published = false
		return nil
	})
}

// MarkPreview lets privileged callers exercise a draft quiz end to end.
func (s *AssessmentService) MarkPreview(ctx context.Context, quizID string, caller domain.Caller) (domain.Quiz, error) {
	return s.editQuiz(ctx, quizID, caller, func(quiz *domain.Quiz) error {
		quiz.Preview = true
		return nil
	})
}

// ClearPreview removes the preview flag.
func (s *AssessmentService) ClearPreview(ctx context.Context, quizID string, caller domain.Caller) (domain.Quiz, error) {
	return s.editQuiz(ctx, quizID, caller, func(quiz *domain.Quiz) error {
		quiz.Preview = false
		return nil
	})
}
