package records

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu           sync.RWMutex
	observations []Observation
	results      []QuizResult
	progress     map[progressKey]ExperimentProgress
	now          func() time.Time
}

type progressKey struct {
	user       string
	experiment int
}

func NewInMemoryStore() Store {
	return &memoryStore{
		progress: map[progressKey]ExperimentProgress{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *memoryStore) SaveObservation(_ context.Context, o Observation) (Observation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o = prepareObservation(o, m.now())
	m.observations = append(m.observations, o)
	return o, nil
}

func (m *memoryStore) ListObservations(_ context.Context, f ObservationFilter) ([]Observation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user := userOr(f.UserID)
	out := []Observation{}
	for _, o := range m.observations {
		if o.UserID != user {
			continue
		}
		if f.ExperimentID != 0 && o.ExperimentID != f.ExperimentID {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *memoryStore) SaveQuizResult(_ context.Context, r QuizResult) (QuizResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r = prepareResult(r, m.now())
	m.results = append(m.results, r)
	return r, nil
}

func (m *memoryStore) ListQuizResults(_ context.Context, userID string) ([]QuizResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user := userOr(userID)
	out := []QuizResult{}
	for _, r := range m.results {
		if r.UserID == user {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryStore) UpsertProgress(_ context.Context, p ExperimentProgress) (ExperimentProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = prepareProgress(p, m.now())
	m.progress[progressKey{p.UserID, p.ExperimentID}] = p
	return p, nil
}

func (m *memoryStore) ListProgress(_ context.Context, userID string) ([]ExperimentProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user := userOr(userID)
	out := []ExperimentProgress{}
	for k, p := range m.progress {
		if k.user == user {
			out = append(out, p)
		}
	}
	sortProgress(out)
	return out, nil
}
