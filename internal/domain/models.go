package domain

import "time"

// QuestionType selects the grading strategy for a question.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple-choice"
	TrueFalse      QuestionType = "true-false"
	FillBlank      QuestionType = "fill-blank"
	Matching       QuestionType = "matching"
	Essay          QuestionType = "essay"
)

// Valid reports whether t is one of the supported question types.
func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, TrueFalse, FillBlank, Matching, Essay:
		return true
	}
	return false
}

// Role identifies the privilege level of a caller.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// Caller carries the identity the transport layer resolved for a request.
// Authentication itself lives outside this service.
type Caller struct {
	UserID string
	Role   Role
}

// CanAuthor reports whether the caller may edit quizzes and grade essays.
func (c Caller) CanAuthor() bool {
	return c.Role == RoleInstructor || c.Role == RoleAdmin
}

// Option represents a possible answer for a choice question.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// MatchPair is one expected left-key to right-key association of a matching question.
type MatchPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Question models a single gradable item. The ID is stable for the lifetime
// of the question: reordering or editing never reassigns it, so answer
// records referencing it stay valid.
type Question struct {
	ID          string       `json:"id"`
	Text        string       `json:"text"`
	Type        QuestionType `json:"type"`
	Points      int          `json:"points"`
	Options     []Option     `json:"options,omitempty"`  // multiple-choice, true-false
	Accepted    []string     `json:"accepted,omitempty"` // fill-blank
	Pairs       []MatchPair  `json:"pairs,omitempty"`    // matching
	Explanation string       `json:"explanation,omitempty"`
}

// CorrectOption returns the option flagged correct, if exactly one exists.
func (q Question) CorrectOption() (Option, bool) {
	var found Option
	count := 0
	for _, opt := range q.Options {
		if opt.Correct {
			found = opt
			count++
		}
	}
	return found, count == 1
}

// Quiz is an ordered question set plus the grading policy around it.
// The Questions slice is the display order; question identity lives in the IDs.
type Quiz struct {
	ID                  string     `json:"id"`
	CourseID            string     `json:"courseId"`
	SectionID           string     `json:"sectionId"`
	Title               string     `json:"title"`
	Description         string     `json:"description,omitempty"`
	OwnerID             string     `json:"ownerId"`
	Order               int        `json:"order"`
	TimeLimitSeconds    int        `json:"timeLimitSeconds"`    // 0 = unlimited
	PassingScorePercent int        `json:"passingScorePercent"` // 0..100
	AllowedAttempts     int        `json:"allowedAttempts"`     // 0 = unlimited
	ShuffleQuestions    bool       `json:"shuffleQuestions"`
	ShowCorrectAnswers  bool       `json:"showCorrectAnswers"`
	Published           bool       `json:"published"`
	Preview             bool       `json:"preview"`
	Questions           []Question `json:"questions"`
}

// QuestionByID returns the question with the given ID, if still present.
// Historical answers may reference questions that have since been removed.
func (q Quiz) QuestionByID(id string) (Question, bool) {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return q.Questions[i], true
		}
	}
	return Question{}, false
}

// AnswerRecord is the graded outcome for one question within an attempt.
// IsCorrect is nil exactly while an essay answer awaits manual review.
type AnswerRecord struct {
	QuestionID   string `json:"questionId"`
	Answer       Answer `json:"answer"`
	IsCorrect    *bool  `json:"isCorrect"`
	PointsEarned int    `json:"pointsEarned"`
}

// AttemptRecord is one complete submission cycle for a user against a quiz.
// It is immutable once written, except for essay grading which may revise
// the essay answers' correctness and the derived score.
type AttemptRecord struct {
	ID               string         `json:"id"`
	QuizID           string         `json:"quizId"`
	UserID           string         `json:"userId"`
	AttemptNumber    int            `json:"attemptNumber"` // 1-based, never reused
	StartedAt        time.Time      `json:"startedAt"`
	CompletedAt      time.Time      `json:"completedAt"`
	TimeSpentSeconds int            `json:"timeSpentSeconds"`
	TotalPoints      int            `json:"totalPoints"` // quiz total at grading time
	Answers          []AnswerRecord `json:"answers"`
	Score            int            `json:"score"` // 0..100
	Passed           bool           `json:"passed"`
	Late             bool           `json:"late"`
}

// GradeResult is the outcome of grading a single answer.
type GradeResult struct {
	IsCorrect    *bool
	PointsEarned int
	PendingGrade bool // essay awaiting manual review
}

// ResultEvent is handed to the notification collaborator after every
// completed attempt. Certificate issuance consumes it independently.
type ResultEvent struct {
	UserID        string `json:"userId"`
	QuizID        string `json:"quizId"`
	AttemptNumber int    `json:"attemptNumber"`
	Score         int    `json:"score"`
	Passed        bool   `json:"passed"`
}
