package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound indicates the quiz definition could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizNotPublished rejects student submissions against draft quizzes.
	ErrQuizNotPublished = errors.New("quiz not published")
	// ErrAttemptLimitExceeded rejects submissions once the allowed attempts are consumed.
	ErrAttemptLimitExceeded = errors.New("attempt limit exceeded")
	// ErrAttemptAlreadyInProgress rejects a concurrent submit for the same in-progress attempt.
	ErrAttemptAlreadyInProgress = errors.New("attempt already in progress")
	// ErrAttemptNotFound indicates a referenced attempt record does not exist.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrQuestionNotFound indicates a referenced question ID is not in the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInconsistentQuestion flags a question definition grading cannot be
	// total over, e.g. a choice question with no correct option. This is a
	// loud failure, never silently scored.
	ErrInconsistentQuestion = errors.New("question definition is inconsistent")
)

// ValidationError rejects malformed authored input before it can be published.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
