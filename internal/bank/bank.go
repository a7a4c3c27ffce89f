// Package bank validates and edits a quiz's ordered question set.
// Questions carry durable IDs independent of display position, so edits
// never invalidate answer records written by earlier attempts.
package bank

import (
	"fmt"

	"github.com/google/uuid"

	"lms-assessment-service/internal/domain"
)

// ValidateQuestion rejects malformed question definitions.
func ValidateQuestion(q domain.Question) error {
	if q.Text == "" {
		return domain.Invalid("text", "question text is required")
	}
	if !q.Type.Valid() {
		return domain.Invalid("type", fmt.Sprintf("unsupported question type %q", q.Type))
	}
	if q.Points < 1 {
		return domain.Invalid("points", "points must be at least 1")
	}
	switch q.Type {
	case domain.MultipleChoice, domain.TrueFalse:
		if len(q.Options) == 0 {
			return domain.Invalid("options", "choice questions need at least one option")
		}
		correct := 0
		for _, opt := range q.Options {
			if opt.Correct {
				correct++
			}
		}
		if correct != 1 {
			return domain.Invalid("options", fmt.Sprintf("exactly one correct option required, got %d", correct))
		}
	case domain.FillBlank:
		if len(q.Accepted) == 0 {
			return domain.Invalid("accepted", "fill-blank questions need at least one accepted answer")
		}
	case domain.Matching:
		if len(q.Pairs) == 0 {
			return domain.Invalid("pairs", "matching questions need at least one pair")
		}
	}
	return nil
}

// AddQuestion validates q, assigns an ID if absent, and appends it to the
// quiz's display order.
func AddQuestion(quiz *domain.Quiz, q domain.Question) (domain.Question, error) {
	if err := ValidateQuestion(q); err != nil {
		return domain.Question{}, err
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if _, ok := quiz.QuestionByID(q.ID); ok {
		return domain.Question{}, domain.Invalid("id", "question id already in use")
	}
	quiz.Questions = append(quiz.Questions, q)
	return q, nil
}

// UpdateQuestion replaces the question with q's ID in place, keeping its
// display position. The ID itself is never reassigned.
func UpdateQuestion(quiz *domain.Quiz, q domain.Question) error {
	if err := ValidateQuestion(q); err != nil {
		return err
	}
	for i := range quiz.Questions {
		if quiz.Questions[i].ID == q.ID {
			quiz.Questions[i] = q
			return nil
		}
	}
	return domain.ErrQuestionNotFound
}

// RemoveQuestion drops a question from the quiz. Answer records referencing
// it are retained by their attempts; readers tolerate the dangling reference.
func RemoveQuestion(quiz *domain.Quiz, questionID string) error {
	for i := range quiz.Questions {
		if quiz.Questions[i].ID == questionID {
			quiz.Questions = append(quiz.Questions[:i], quiz.Questions[i+1:]...)
			return nil
		}
	}
	return domain.ErrQuestionNotFound
}

// Reorder rearranges display order to match ids, which must be a permutation
// of the current question IDs. Identifiers are untouched.
func Reorder(quiz *domain.Quiz, ids []string) error {
	if len(ids) != len(quiz.Questions) {
		return domain.Invalid("order", fmt.Sprintf("expected %d question ids, got %d", len(quiz.Questions), len(ids)))
	}
	reordered := make([]domain.Question, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return domain.Invalid("order", "duplicate question id "+id)
		}
		seen[id] = true
		q, ok := quiz.QuestionByID(id)
		if !ok {
			return domain.ErrQuestionNotFound
		}
		reordered = append(reordered, q)
	}
	quiz.Questions = reordered
	return nil
}

// ValidateForPublish enforces quiz-level invariants before the quiz can be
// served to students.
func ValidateForPublish(quiz domain.Quiz) error {
	if quiz.PassingScorePercent < 0 || quiz.PassingScorePercent > 100 {
		return domain.Invalid("passingScorePercent", "must be between 0 and 100")
	}
	total := 0
	for _, q := range quiz.Questions {
		if err := ValidateQuestion(q); err != nil {
			return err
		}
		total += q.Points
	}
	if total <= 0 {
		return domain.Invalid("questions", "published quiz must have total points > 0")
	}
	return nil
}
