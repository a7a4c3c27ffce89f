package domain

import "encoding/json"

// AnswerKind tags the variant held by an Answer.
type AnswerKind string

const (
	AnswerNone   AnswerKind = ""
	AnswerText   AnswerKind = "text"   // fill-blank, essay
	AnswerOption AnswerKind = "option" // multiple-choice, true-false
	AnswerMatch  AnswerKind = "match"  // matching
)

// Answer is the tagged variant of a submitted answer value. The shape is
// fixed by the question's type, so grading can be total over the cases;
// a kind that does not match the question grades as incorrect.
type Answer struct {
	Kind     AnswerKind        `json:"kind"`
	Text     string            `json:"text,omitempty"`
	OptionID string            `json:"optionId,omitempty"`
	Pairs    map[string]string `json:"pairs,omitempty"`
}

// TextAnswer builds a free-text answer (fill-blank, essay).
func TextAnswer(s string) Answer { return Answer{Kind: AnswerText, Text: s} }

// OptionAnswer builds a selected-option answer (choice questions).
func OptionAnswer(id string) Answer { return Answer{Kind: AnswerOption, OptionID: id} }

// MatchAnswer builds a left-key to right-key mapping answer.
func MatchAnswer(pairs map[string]string) Answer { return Answer{Kind: AnswerMatch, Pairs: pairs} }

// DecodeAnswer interprets a raw JSON value according to the question type.
// A value whose shape does not fit the type yields an error; callers grade
// such answers as incorrect rather than failing the whole submission.
func DecodeAnswer(t QuestionType, raw json.RawMessage) (Answer, error) {
	switch t {
	case FillBlank, Essay:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Answer{}, err
		}
		return TextAnswer(s), nil
	case MultipleChoice, TrueFalse:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Answer{}, err
		}
		return OptionAnswer(s), nil
	case Matching:
		var m map[string]string
		if err := json.Unmarshal(raw, &m); err != nil {
			return Answer{}, err
		}
		return MatchAnswer(m), nil
	}
	return Answer{}, Invalid("type", "unsupported question type")
}
