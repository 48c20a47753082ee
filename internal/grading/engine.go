package grading

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

type Kind string

const (
	KindMultipleChoice Kind = "multiple-choice"
	KindTrueFalse      Kind = "true-false"
	KindShortAnswer    Kind = "short-answer"
	KindCalculation    Kind = "calculation"
)

// Q is a minimal view of a question needed for grading.
// Correct holds an int index, a bool, or text depending on Kind.
type Q struct {
	ID        int
	Kind      Kind
	Correct   interface{}
	Tolerance float64 // calculation only; 0 means DefaultTolerance
	Points    int
}

// Result is the outcome of grading a single question response.
type Result struct {
	QuestionID int  `json:"question_id"`
	Answered   bool `json:"answered"`
	Correct    bool `json:"correct"`
	Points     int  `json:"points"`
	MaxPoints  int  `json:"max_points"`
}

// Strategy decides correctness for a single question kind.
type Strategy interface {
	Correct(q Q, response interface{}) bool
}

// Grader routes by question kind to the correct Strategy.
type Grader interface {
	Grade(q Q, response interface{}) Result
}

type defaultGrader struct {
	strategies map[Kind]Strategy
}

func (g *defaultGrader) Grade(q Q, response interface{}) Result {
	res := Result{QuestionID: q.ID, Answered: response != nil, MaxPoints: q.Points}
	s, ok := g.strategies[q.Kind]
	if !ok {
		return res
	}
	if s.Correct(q, response) {
		res.Correct = true
		res.Points = q.Points
	}
	return res
}

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader() Grader {
	return &defaultGrader{
		strategies: map[Kind]Strategy{
			KindMultipleChoice: indexStrategy{},
			KindTrueFalse:      boolStrategy{},
			KindShortAnswer:    keywordStrategy{keywords: ShortAnswerKeywords, minHits: ShortAnswerMinHits, minLen: ShortAnswerMinLength},
			KindCalculation:    numericStrategy{},
		},
	}
}

var std = NewDefaultGrader()

// Evaluate reports whether response answers q correctly. Unknown kinds and
// malformed responses are incorrect.
func Evaluate(q Q, response interface{}) bool {
	return std.Grade(q, response).Correct
}

// --- Strategies ---

type indexStrategy struct{}

func (indexStrategy) Correct(q Q, response interface{}) bool {
	want, ok := toNumber(q.Correct)
	if !ok {
		return false
	}
	got, ok := toNumber(response)
	return ok && got == want
}

type boolStrategy struct{}

func (boolStrategy) Correct(q Q, response interface{}) bool {
	want, ok := q.Correct.(bool)
	if !ok {
		return false
	}
	got, ok := response.(bool)
	return ok && got == want
}

// Short-answer grading is a keyword count, not language understanding.
var ShortAnswerKeywords = []string{"gloves", "avoid", "skin", "contact", "staining", "safety"}

const (
	ShortAnswerMinHits   = 2
	ShortAnswerMinLength = 10 // text must be strictly longer
)

type keywordStrategy struct {
	keywords []string
	minHits  int
	minLen   int
}

func (s keywordStrategy) Correct(_ Q, response interface{}) bool {
	text, ok := response.(string)
	if !ok {
		return false
	}
	low := strings.ToLower(text)
	hits := 0
	for _, k := range s.keywords {
		if strings.Contains(low, k) {
			hits++
		}
	}
	return hits >= s.minHits && utf8.RuneCountInString(low) > s.minLen
}

// helpers

// toNumber accepts the numeric shapes a decoded answer can take. Strings are
// not numbers.
func toNumber(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
