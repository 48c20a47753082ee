package catalog

import (
	"time"

	"github.com/mind-engage/chemlab/internal/grading"
	"github.com/mind-engage/chemlab/internal/lab"
)

type Step struct {
	ID             int      `json:"id" yaml:"id"`
	Title          string   `json:"title" yaml:"title"`
	Description    string   `json:"description" yaml:"description"`
	Equipment      []string `json:"equipment" yaml:"equipment"`
	Chemicals      []string `json:"chemicals" yaml:"chemicals"`
	ExpectedResult string   `json:"expectedResult" yaml:"expectedResult"`
}

type Experiment struct {
	ID               int        `json:"id" yaml:"id"`
	Title            string     `json:"title" yaml:"title"`
	Description      string     `json:"description" yaml:"description"`
	Difficulty       string     `json:"difficulty" yaml:"difficulty"`
	Duration         string     `json:"duration" yaml:"duration"`
	Category         string     `json:"category" yaml:"category"`
	Materials        []string   `json:"materials" yaml:"materials"`
	Steps            []Step     `json:"steps" yaml:"steps"`
	Theory           string     `json:"theory" yaml:"theory"`
	SafetyGuidelines []string   `json:"safetyGuidelines" yaml:"safetyGuidelines"`
	CreatedAt        *time.Time `json:"createdAt,omitempty" yaml:"-"`
}

type Question struct {
	ID          int          `json:"id" yaml:"id"`
	Type        grading.Kind `json:"type" yaml:"type"`
	Question    string       `json:"question" yaml:"question"`
	Options     []string     `json:"options,omitempty" yaml:"options"`
	Correct     interface{}  `json:"correctAnswer,omitempty" yaml:"correctAnswer"`
	Tolerance   float64      `json:"tolerance,omitempty" yaml:"tolerance"`
	Points      int          `json:"points" yaml:"points"`
	Explanation string       `json:"explanation,omitempty" yaml:"explanation"`
}

type Quiz struct {
	ExperimentID     int        `json:"experimentId" yaml:"experimentId"`
	Title            string     `json:"title" yaml:"title"`
	Description      string     `json:"description" yaml:"description"`
	TimeLimitMinutes int        `json:"timeLimit" yaml:"timeLimitMinutes"`
	PassingScore     int        `json:"passingScore" yaml:"-"`
	Questions        []Question `json:"questions" yaml:"questions"`
}

// Public strips answer keys and explanations for the quiz-taker.
func (q Quiz) Public() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, qq := range q.Questions {
		qq.Correct = nil
		qq.Tolerance = 0
		qq.Explanation = ""
		out.Questions[i] = qq
	}
	return out
}

// GradingQuestions is the view the scorer needs.
func (q Quiz) GradingQuestions() []grading.Q {
	out := make([]grading.Q, 0, len(q.Questions))
	for _, qq := range q.Questions {
		out = append(out, grading.Q{
			ID:        qq.ID,
			Kind:      qq.Type,
			Correct:   qq.Correct,
			Tolerance: qq.Tolerance,
			Points:    qq.Points,
		})
	}
	return out
}

// fixtures is the on-disk layout of a catalog file.
type fixtures struct {
	Experiments []Experiment `yaml:"experiments"`
	Benches     []lab.Bench  `yaml:"benches"`
	Quizzes     []Quiz       `yaml:"quizzes"`
}
