package grading

import "math"

// PassingScore is the minimum percentage that passes a quiz.
const PassingScore = 70

// Outcome aggregates per-question results for one quiz submission.
type Outcome struct {
	Score  int      `json:"score"` // 0..100
	Passed bool     `json:"passed"`
	Earned int      `json:"earned"`
	Max    int      `json:"max"`
	Items  []Result `json:"items"`
}

// Score grades every question against answers (keyed by question id).
// Unanswered questions earn nothing but still count toward the maximum.
func Score(questions []Q, answers map[int]interface{}) Outcome {
	return ScoreWith(std, questions, answers)
}

func ScoreWith(g Grader, questions []Q, answers map[int]interface{}) Outcome {
	out := Outcome{Items: make([]Result, 0, len(questions))}
	for _, q := range questions {
		res := g.Grade(q, answers[q.ID])
		out.Max += res.MaxPoints
		out.Earned += res.Points
		out.Items = append(out.Items, res)
	}
	out.Score = Percent(out.Earned, out.Max)
	out.Passed = out.Score >= PassingScore
	return out
}

// Percent rounds earned/max to a whole percentage, halves up. A zero maximum
// yields 0.
func Percent(earned, max int) int {
	if max <= 0 {
		return 0
	}
	return int(math.Floor(float64(earned)/float64(max)*100 + 0.5))
}
