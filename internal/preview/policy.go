// Package preview decides what a caller sees of a quiz: the question order
// for a given attempt and whether correct answers are revealed afterwards.
package preview

import (
	"hash/fnv"
	"math/rand"
	"sort"
	"strconv"

	"lms-assessment-service/internal/domain"
)

// Seed derives the shuffle seed from the attempt's own identity, so that
// re-fetching the same in-progress attempt yields the same order while
// different attempts and users diverge.
func Seed(quizID, userID string, attemptNumber int) int64 {
	h := fnv.New64a()
	h.Write([]byte(quizID))
	h.Write([]byte{0})
	h.Write([]byte(userID))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(attemptNumber)))
	return int64(h.Sum64())
}

// Order returns the display/grading order for one attempt. Without shuffle
// it is the authored order; with shuffle it is a deterministic permutation
// seeded by the attempt identity.
func Order(quiz domain.Quiz, userID string, attemptNumber int) []domain.Question {
	out := make([]domain.Question, len(quiz.Questions))
	copy(out, quiz.Questions)
	if !quiz.ShuffleQuestions {
		return out
	}
	rnd := rand.New(rand.NewSource(Seed(quiz.ID, userID, attemptNumber)))
	rnd.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// Reveal reports whether the response for this quiz may include correct
// answers and explanations: either the quiz allows it, or the caller owns
// the quiz.
func Reveal(quiz domain.Quiz, caller domain.Caller) bool {
	if quiz.ShowCorrectAnswers {
		return true
	}
	return caller.UserID != "" && caller.UserID == quiz.OwnerID
}

// Sanitize strips grading material from questions before they are shown to
// a student: correct-option flags, accepted answers, expected pairs and
// explanations all stay server-side.
func Sanitize(questions []domain.Question) []domain.Question {
	out := make([]domain.Question, len(questions))
	for i, q := range questions {
		q.Accepted = nil
		q.Explanation = ""
		if len(q.Options) > 0 {
			opts := make([]domain.Option, len(q.Options))
			for j, opt := range q.Options {
				opt.Correct = false
				opts[j] = opt
			}
			q.Options = opts
		}
		if len(q.Pairs) > 0 {
			// Keep both columns so the client can render them, but break
			// the association by sorting the right-hand side.
			rights := make([]string, len(q.Pairs))
			for j, p := range q.Pairs {
				rights[j] = p.Right
			}
			sort.Strings(rights)
			pairs := make([]domain.MatchPair, len(q.Pairs))
			for j, p := range q.Pairs {
				pairs[j] = domain.MatchPair{Left: p.Left, Right: rights[j]}
			}
			q.Pairs = pairs
		}
		out[i] = q
	}
	return out
}
