// Package grading scores a single submitted answer against a question
// definition. Grading is a pure function of (question, answer): no clock,
// no storage, no side effects.
package grading

import (
	"strings"

	"lms-assessment-service/internal/domain"
)

// strategy grades one question type.
type strategy interface {
	grade(q domain.Question, ans domain.Answer) (domain.GradeResult, error)
}

var strategies = map[domain.QuestionType]strategy{
	domain.MultipleChoice: choiceStrategy{},
	domain.TrueFalse:      choiceStrategy{},
	domain.FillBlank:      fillBlankStrategy{},
	domain.Matching:       matchingStrategy{},
	domain.Essay:          essayStrategy{},
}

// Grade routes by question type to the matching strategy.
//
// A malformed answer (wrong variant for the type) scores as incorrect with
// zero points; it never aborts the surrounding submission. An error is
// returned only when the question definition itself is unusable, which is
// an authoring bug that must surface loudly.
func Grade(q domain.Question, ans domain.Answer) (domain.GradeResult, error) {
	s, ok := strategies[q.Type]
	if !ok {
		return domain.GradeResult{}, domain.ErrInconsistentQuestion
	}
	return s.grade(q, ans)
}

func incorrect() domain.GradeResult {
	wrong := false
	return domain.GradeResult{IsCorrect: &wrong}
}

func correct(points int) domain.GradeResult {
	right := true
	return domain.GradeResult{IsCorrect: &right, PointsEarned: points}
}

// choiceStrategy covers multiple-choice and true-false: the submitted option
// ID must equal the single option flagged correct. Full points or zero.
type choiceStrategy struct{}

func (choiceStrategy) grade(q domain.Question, ans domain.Answer) (domain.GradeResult, error) {
	want, ok := q.CorrectOption()
	if !ok {
		return domain.GradeResult{}, domain.ErrInconsistentQuestion
	}
	if ans.Kind != domain.AnswerOption {
		return incorrect(), nil
	}
	if ans.OptionID == want.ID {
		return correct(q.Points), nil
	}
	return incorrect(), nil
}

// fillBlankStrategy trims and case-folds the submission, then matches it
// against any of the accepted answers normalized the same way.
type fillBlankStrategy struct{}

func (fillBlankStrategy) grade(q domain.Question, ans domain.Answer) (domain.GradeResult, error) {
	if len(q.Accepted) == 0 {
		return domain.GradeResult{}, domain.ErrInconsistentQuestion
	}
	if ans.Kind != domain.AnswerText {
		return incorrect(), nil
	}
	got := normalize(ans.Text)
	for _, accepted := range q.Accepted {
		if got == normalize(accepted) {
			return correct(q.Points), nil
		}
	}
	return incorrect(), nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// matchingStrategy requires the submitted mapping to equal the expected one
// exactly: same key set, same value per key. Any mismatch scores zero.
type matchingStrategy struct{}

func (matchingStrategy) grade(q domain.Question, ans domain.Answer) (domain.GradeResult, error) {
	if len(q.Pairs) == 0 {
		return domain.GradeResult{}, domain.ErrInconsistentQuestion
	}
	if ans.Kind != domain.AnswerMatch || len(ans.Pairs) != len(q.Pairs) {
		return incorrect(), nil
	}
	for _, pair := range q.Pairs {
		if got, ok := ans.Pairs[pair.Left]; !ok || got != pair.Right {
			return incorrect(), nil
		}
	}
	return correct(q.Points), nil
}

// essayStrategy defers to manual review: nil correctness, zero points, and
// the pending flag set so responses can report EssayPendingGrade.
type essayStrategy struct{}

func (essayStrategy) grade(domain.Question, domain.Answer) (domain.GradeResult, error) {
	return domain.GradeResult{IsCorrect: nil, PointsEarned: 0, PendingGrade: true}, nil
}
