package records

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const AnonymousUser = "anonymous"

const (
	StatusNotStarted = "not-started"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

var ErrNotFound = errors.New("not found")

type Observation struct {
	ID           string    `json:"id"`
	ExperimentID int       `json:"experimentId"`
	Step         int       `json:"step"`
	Observation  string    `json:"observation"`
	Value        string    `json:"value,omitempty"`
	UserID       string    `json:"userId"`
	Timestamp    time.Time `json:"timestamp"`
}

type QuizResult struct {
	ID           string                 `json:"id"`
	ExperimentID int                    `json:"experimentId"`
	UserID       string                 `json:"userId"`
	Score        int                    `json:"score"`
	Passed       bool                   `json:"passed"`
	Earned       int                    `json:"earned"`
	Max          int                    `json:"max"`
	Reason       string                 `json:"reason"` // submitted|timeout
	Answers      map[string]interface{} `json:"answers"`
	CompletedAt  time.Time              `json:"completedAt"`
}

type ExperimentProgress struct {
	ExperimentID int        `json:"experimentId"`
	UserID       string     `json:"userId"`
	Status       string     `json:"status"`
	CurrentStep  int        `json:"currentStep"`
	TotalSteps   int        `json:"totalSteps"`
	CompletedAt  *time.Time `json:"completedAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type ObservationFilter struct {
	ExperimentID int // 0 = any
	UserID       string
}

// Store keeps what learners record while working through experiments.
type Store interface {
	SaveObservation(ctx context.Context, o Observation) (Observation, error)
	ListObservations(ctx context.Context, f ObservationFilter) ([]Observation, error)

	SaveQuizResult(ctx context.Context, r QuizResult) (QuizResult, error)
	ListQuizResults(ctx context.Context, userID string) ([]QuizResult, error)

	UpsertProgress(ctx context.Context, p ExperimentProgress) (ExperimentProgress, error)
	ListProgress(ctx context.Context, userID string) ([]ExperimentProgress, error)
}

func userOr(id string) string {
	if id == "" {
		return AnonymousUser
	}
	return id
}

func prepareObservation(o Observation, now time.Time) Observation {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Timestamp.IsZero() {
		o.Timestamp = now
	}
	o.Timestamp = stamp(o.Timestamp)
	o.UserID = userOr(o.UserID)
	return o
}

func prepareResult(r QuizResult, now time.Time) QuizResult {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CompletedAt.IsZero() {
		r.CompletedAt = now
	}
	r.CompletedAt = stamp(r.CompletedAt)
	if r.Answers == nil {
		r.Answers = map[string]interface{}{}
	}
	r.UserID = userOr(r.UserID)
	return r
}

func prepareProgress(p ExperimentProgress, now time.Time) ExperimentProgress {
	p.UserID = userOr(p.UserID)
	if p.Status == "" {
		p.Status = StatusInProgress
	}
	if p.Status == StatusCompleted && p.CompletedAt == nil {
		p.CompletedAt = &now
	}
	if p.CompletedAt != nil {
		t := stamp(*p.CompletedAt)
		p.CompletedAt = &t
	}
	p.UpdatedAt = stamp(now)
	return p
}

// stamp normalizes a record time to UTC milliseconds, the precision every
// store keeps.
func stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
