package records

import (
	"sort"
	"time"
)

type ExperimentSummary struct {
	ExperimentProgress
	Observations []Observation `json:"observations"`
}

type QuizSummary struct {
	ExperimentID int        `json:"experimentId"`
	Score        *int       `json:"score"`
	Passed       bool       `json:"passed"`
	CompletedAt  *time.Time `json:"completedAt"`
	Attempts     int        `json:"attempts"`
}

type Progress struct {
	UserID      string              `json:"userId"`
	Experiments []ExperimentSummary `json:"experiments"`
	Quizzes     []QuizSummary       `json:"quizzes"`
}

// BuildProgress folds stored progress, observations and quiz results into one
// view. Experiments with observations but no stored progress are reported in
// progress at the highest observed step; totalSteps may be nil.
func BuildProgress(userID string, stored []ExperimentProgress, obs []Observation, results []QuizResult, totalSteps func(experimentID int) int) Progress {
	p := Progress{UserID: userOr(userID), Experiments: []ExperimentSummary{}, Quizzes: []QuizSummary{}}

	byExp := map[int][]Observation{}
	for _, o := range obs {
		byExp[o.ExperimentID] = append(byExp[o.ExperimentID], o)
	}

	seen := map[int]bool{}
	for _, ep := range stored {
		seen[ep.ExperimentID] = true
		p.Experiments = append(p.Experiments, ExperimentSummary{ExperimentProgress: ep, Observations: nonNil(byExp[ep.ExperimentID])})
	}
	for expID, list := range byExp {
		if seen[expID] {
			continue
		}
		ep := ExperimentProgress{ExperimentID: expID, UserID: p.UserID, Status: StatusInProgress}
		for _, o := range list {
			if o.Step > ep.CurrentStep {
				ep.CurrentStep = o.Step
			}
			if o.Timestamp.After(ep.UpdatedAt) {
				ep.UpdatedAt = o.Timestamp
			}
		}
		if totalSteps != nil {
			ep.TotalSteps = totalSteps(expID)
		}
		p.Experiments = append(p.Experiments, ExperimentSummary{ExperimentProgress: ep, Observations: list})
	}
	sort.Slice(p.Experiments, func(i, j int) bool {
		return p.Experiments[i].ExperimentID < p.Experiments[j].ExperimentID
	})

	byQuiz := map[int]*QuizSummary{}
	for _, r := range results {
		qs, ok := byQuiz[r.ExperimentID]
		if !ok {
			qs = &QuizSummary{ExperimentID: r.ExperimentID}
			byQuiz[r.ExperimentID] = qs
		}
		qs.Attempts++
		if qs.CompletedAt == nil || r.CompletedAt.After(*qs.CompletedAt) {
			score, at := r.Score, r.CompletedAt
			qs.Score, qs.CompletedAt, qs.Passed = &score, &at, r.Passed
		}
	}
	for _, qs := range byQuiz {
		p.Quizzes = append(p.Quizzes, *qs)
	}
	sort.Slice(p.Quizzes, func(i, j int) bool { return p.Quizzes[i].ExperimentID < p.Quizzes[j].ExperimentID })
	return p
}

func sortProgress(ps []ExperimentProgress) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].ExperimentID < ps[j].ExperimentID })
}

func nonNil(o []Observation) []Observation {
	if o == nil {
		return []Observation{}
	}
	return o
}
