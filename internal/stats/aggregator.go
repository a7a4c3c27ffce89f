// Package stats derives quiz-level statistics from completed attempts.
// Everything here is recomputed from the attempt records on demand; the
// aggregates are never a source of truth of their own.
package stats

import (
	"math"

	"lms-assessment-service/internal/domain"
)

// Summary bundles the derived statistics served by the quiz stats endpoint.
type Summary struct {
	QuizID       string  `json:"quizId"`
	TotalPoints  int     `json:"totalPoints"`
	AttemptCount int     `json:"attemptCount"`
	AverageScore float64 `json:"averageScore"`
	PassingRate  int     `json:"passingRate"`
}

// TotalPoints sums the points across the quiz's current questions.
func TotalPoints(quiz domain.Quiz) int {
	total := 0
	for _, q := range quiz.Questions {
		total += q.Points
	}
	return total
}

// AverageScore is the mean score over completed attempts, rounded to two
// decimals. Zero when there are no attempts.
func AverageScore(attempts []domain.AttemptRecord) float64 {
	if len(attempts) == 0 {
		return 0
	}
	sum := 0
	for _, a := range attempts {
		sum += a.Score
	}
	return math.Round(float64(sum)/float64(len(attempts))*100) / 100
}

// PassingRate is the integer percentage of completed attempts whose score
// meets the passing threshold. Zero when there are no attempts.
func PassingRate(attempts []domain.AttemptRecord, passingScorePercent int) int {
	if len(attempts) == 0 {
		return 0
	}
	passed := 0
	for _, a := range attempts {
		if a.Score >= passingScorePercent {
			passed++
		}
	}
	return int(math.Round(float64(passed) / float64(len(attempts)) * 100))
}

// Summarize computes the full summary for a quiz and its completed attempts.
func Summarize(quiz domain.Quiz, attempts []domain.AttemptRecord) Summary {
	return Summary{
		QuizID:       quiz.ID,
		TotalPoints:  TotalPoints(quiz),
		AttemptCount: len(attempts),
		AverageScore: AverageScore(attempts),
		PassingRate:  PassingRate(attempts, quiz.PassingScorePercent),
	}
}
