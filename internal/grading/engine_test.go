package grading_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lms-assessment-service/internal/domain"
	"lms-assessment-service/internal/grading"
)

func choiceQuestion() domain.Question {
	return domain.Question{
		ID:   "q1",
		Text: "What is 2 + 2?",
		Type: domain.MultipleChoice,
		Options: []domain.Option{
			{ID: "o1", Text: "3"},
			{ID: "o2", Text: "4", Correct: true},
		},
		Points: 5,
	}
}

func TestChoiceGrading(t *testing.T) {
	q := choiceQuestion()

	res, err := grading.Grade(q, domain.OptionAnswer("o2"))
	require.NoError(t, err)
	require.NotNil(t, res.IsCorrect)
	assert.True(t, *res.IsCorrect)
	assert.Equal(t, 5, res.PointsEarned)

	res, err = grading.Grade(q, domain.OptionAnswer("o1"))
	require.NoError(t, err)
	require.NotNil(t, res.IsCorrect)
	assert.False(t, *res.IsCorrect)
	assert.Zero(t, res.PointsEarned)
}

func TestChoiceGradingIsDeterministic(t *testing.T) {
	q := choiceQuestion()
	first, err := grading.Grade(q, domain.OptionAnswer("o2"))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := grading.Grade(q, domain.OptionAnswer("o2"))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestFillBlankNormalization(t *testing.T) {
	q := domain.Question{
		ID:       "q2",
		Text:     "Capital of France?",
		Type:     domain.FillBlank,
		Accepted: []string{"paris"},
		Points:   3,
	}

	for _, submitted := range []string{"paris", "Paris", "paris ", "  PARIS  "} {
		res, err := grading.Grade(q, domain.TextAnswer(submitted))
		require.NoError(t, err)
		require.NotNil(t, res.IsCorrect, "submitted %q", submitted)
		assert.True(t, *res.IsCorrect, "submitted %q", submitted)
		assert.Equal(t, 3, res.PointsEarned)
	}

	res, err := grading.Grade(q, domain.TextAnswer("lyon"))
	require.NoError(t, err)
	assert.False(t, *res.IsCorrect)
	assert.Zero(t, res.PointsEarned)
}

func TestMatchingRequiresExactMapping(t *testing.T) {
	q := domain.Question{
		ID:   "q3",
		Text: "Match countries to capitals",
		Type: domain.Matching,
		Pairs: []domain.MatchPair{
			{Left: "France", Right: "Paris"},
			{Left: "Spain", Right: "Madrid"},
		},
		Points: 4,
	}

	res, err := grading.Grade(q, domain.MatchAnswer(map[string]string{
		"France": "Paris",
		"Spain":  "Madrid",
	}))
	require.NoError(t, err)
	assert.True(t, *res.IsCorrect)
	assert.Equal(t, 4, res.PointsEarned)

	// One wrong value: no partial credit.
	res, err = grading.Grade(q, domain.MatchAnswer(map[string]string{
		"France": "Paris",
		"Spain":  "Paris",
	}))
	require.NoError(t, err)
	assert.False(t, *res.IsCorrect)
	assert.Zero(t, res.PointsEarned)

	// Missing key.
	res, err = grading.Grade(q, domain.MatchAnswer(map[string]string{"France": "Paris"}))
	require.NoError(t, err)
	assert.False(t, *res.IsCorrect)

	// Extra key.
	res, err = grading.Grade(q, domain.MatchAnswer(map[string]string{
		"France":  "Paris",
		"Spain":   "Madrid",
		"Germany": "Berlin",
	}))
	require.NoError(t, err)
	assert.False(t, *res.IsCorrect)
}

func TestEssayAlwaysPending(t *testing.T) {
	q := domain.Question{ID: "q4", Text: "Discuss.", Type: domain.Essay, Points: 10}

	res, err := grading.Grade(q, domain.TextAnswer("my essay"))
	require.NoError(t, err)
	assert.Nil(t, res.IsCorrect)
	assert.Zero(t, res.PointsEarned)
	assert.True(t, res.PendingGrade)
}

func TestWrongAnswerShapeScoresZero(t *testing.T) {
	q := choiceQuestion()

	// A text answer against a choice question is malformed input; it must
	// grade as incorrect, not error out.
	res, err := grading.Grade(q, domain.TextAnswer("o2"))
	require.NoError(t, err)
	require.NotNil(t, res.IsCorrect)
	assert.False(t, *res.IsCorrect)
	assert.Zero(t, res.PointsEarned)

	res, err = grading.Grade(q, domain.Answer{})
	require.NoError(t, err)
	assert.False(t, *res.IsCorrect)
}

func TestInconsistentQuestionFailsLoudly(t *testing.T) {
	q := choiceQuestion()
	for i := range q.Options {
		q.Options[i].Correct = false
	}

	_, err := grading.Grade(q, domain.OptionAnswer("o2"))
	assert.ErrorIs(t, err, domain.ErrInconsistentQuestion)

	blank := domain.Question{ID: "q5", Text: "x", Type: domain.FillBlank, Points: 1}
	_, err = grading.Grade(blank, domain.TextAnswer("x"))
	assert.ErrorIs(t, err, domain.ErrInconsistentQuestion)
}
