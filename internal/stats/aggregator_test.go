package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lms-assessment-service/internal/domain"
	"lms-assessment-service/internal/stats"
)

func attempt(score int) domain.AttemptRecord {
	return domain.AttemptRecord{Score: score}
}

func TestEmptyAttemptsYieldZeroes(t *testing.T) {
	assert.Equal(t, 0.0, stats.AverageScore(nil))
	assert.Equal(t, 0, stats.PassingRate(nil, 70))
}

func TestAverageScoreRoundsToTwoDecimals(t *testing.T) {
	attempts := []domain.AttemptRecord{attempt(50), attempt(51), attempt(51)}
	// mean = 152/3 = 50.666...
	assert.Equal(t, 50.67, stats.AverageScore(attempts))

	assert.Equal(t, 75.0, stats.AverageScore([]domain.AttemptRecord{attempt(50), attempt(100)}))
}

func TestPassingRate(t *testing.T) {
	attempts := []domain.AttemptRecord{attempt(90), attempt(60), attempt(70)}
	assert.Equal(t, 67, stats.PassingRate(attempts, 70))
	assert.Equal(t, 100, stats.PassingRate(attempts, 0))
	assert.Equal(t, 0, stats.PassingRate(attempts, 95))
}

func TestTotalPoints(t *testing.T) {
	quiz := domain.Quiz{Questions: []domain.Question{
		{ID: "q1", Points: 2},
		{ID: "q2", Points: 3},
	}}
	assert.Equal(t, 5, stats.TotalPoints(quiz))
	assert.Equal(t, 0, stats.TotalPoints(domain.Quiz{}))
}

func TestSummarizeUpdatesWithAttempts(t *testing.T) {
	quiz := domain.Quiz{
		ID:                  "quiz-1",
		PassingScorePercent: 70,
		Questions:           []domain.Question{{ID: "q1", Points: 10}},
	}

	empty := stats.Summarize(quiz, nil)
	assert.Equal(t, 0.0, empty.AverageScore)
	assert.Equal(t, 0, empty.PassingRate)
	assert.Equal(t, 0, empty.AttemptCount)
	assert.Equal(t, 10, empty.TotalPoints)

	one := stats.Summarize(quiz, []domain.AttemptRecord{attempt(80)})
	assert.Equal(t, 80.0, one.AverageScore)
	assert.Equal(t, 100, one.PassingRate)
	assert.Equal(t, 1, one.AttemptCount)

	two := stats.Summarize(quiz, []domain.AttemptRecord{attempt(80), attempt(40)})
	assert.Equal(t, 60.0, two.AverageScore)
	assert.Equal(t, 50, two.PassingRate)
}
