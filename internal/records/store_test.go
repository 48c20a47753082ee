package records

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/chemlab/internal/db"
)

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	dbh, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	dbh.SetMaxOpenConns(1)
	t.Cleanup(func() { dbh.Close() })
	require.NoError(t, db.EnsureSchema(context.Background(), dbh, db.DriverSQLite))

	s := NewSQLStore(dbh)
	s.now = func() time.Time { return fixedNow }
	return s
}

func newMemory() Store {
	m := NewInMemoryStore().(*memoryStore)
	m.now = func() time.Time { return fixedNow }
	return m
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": newMemory(),
		"sqlite": newSQLiteStore(t),
	}
}

func TestObservations(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			o, err := s.SaveObservation(ctx, Observation{ExperimentID: 1, Step: 1, Observation: "Clear colorless solution prepared"})
			require.NoError(t, err)
			assert.NotEmpty(t, o.ID)
			assert.Equal(t, AnonymousUser, o.UserID)
			assert.Equal(t, fixedNow, o.Timestamp)

			_, err = s.SaveObservation(ctx, Observation{ExperimentID: 1, Step: 2, Observation: "Test solution prepared", Value: "Volume: 5.0ml"})
			require.NoError(t, err)
			_, err = s.SaveObservation(ctx, Observation{ExperimentID: 2, Step: 1, Observation: "pH 7.0", UserID: "ada"})
			require.NoError(t, err)

			list, err := s.ListObservations(ctx, ObservationFilter{ExperimentID: 1})
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, o, list[0])
			assert.Equal(t, "Volume: 5.0ml", list[1].Value)

			list, err = s.ListObservations(ctx, ObservationFilter{UserID: "ada"})
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, 2, list[0].ExperimentID)

			list, err = s.ListObservations(ctx, ObservationFilter{ExperimentID: 9})
			require.NoError(t, err)
			assert.Empty(t, list)
			assert.NotNil(t, list)
		})
	}
}

func TestQuizResults(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			r, err := s.SaveQuizResult(ctx, QuizResult{
				ExperimentID: 1, UserID: "ada", Score: 80, Passed: true, Earned: 80, Max: 100,
				Reason: "submitted", Answers: map[string]interface{}{"1": float64(0), "2": true},
			})
			require.NoError(t, err)
			assert.NotEmpty(t, r.ID)

			list, err := s.ListQuizResults(ctx, "ada")
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, r, list[0])

			list, err = s.ListQuizResults(ctx, "")
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestProgressUpsert(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p, err := s.UpsertProgress(ctx, ExperimentProgress{ExperimentID: 1, CurrentStep: 3, TotalSteps: 5})
			require.NoError(t, err)
			assert.Equal(t, StatusInProgress, p.Status)
			assert.Nil(t, p.CompletedAt)

			p, err = s.UpsertProgress(ctx, ExperimentProgress{ExperimentID: 1, Status: StatusCompleted, CurrentStep: 5, TotalSteps: 5})
			require.NoError(t, err)
			require.NotNil(t, p.CompletedAt)

			list, err := s.ListProgress(ctx, AnonymousUser)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, p, list[0])
		})
	}
}

func TestBuildProgress(t *testing.T) {
	later := fixedNow.Add(time.Minute)
	stored := []ExperimentProgress{{ExperimentID: 2, UserID: "ada", Status: StatusCompleted, CurrentStep: 1, TotalSteps: 1}}
	obs := []Observation{
		{ExperimentID: 1, Step: 1, Timestamp: fixedNow},
		{ExperimentID: 1, Step: 2, Timestamp: later},
	}
	results := []QuizResult{
		{ExperimentID: 1, Score: 40, Passed: false, CompletedAt: fixedNow},
		{ExperimentID: 1, Score: 80, Passed: true, CompletedAt: later},
	}

	p := BuildProgress("ada", stored, obs, results, func(int) int { return 5 })
	assert.Equal(t, "ada", p.UserID)
	require.Len(t, p.Experiments, 2)

	first := p.Experiments[0]
	assert.Equal(t, 1, first.ExperimentID)
	assert.Equal(t, StatusInProgress, first.Status)
	assert.Equal(t, 2, first.CurrentStep)
	assert.Equal(t, 5, first.TotalSteps)
	assert.Equal(t, later, first.UpdatedAt)
	assert.Len(t, first.Observations, 2)

	assert.Equal(t, StatusCompleted, p.Experiments[1].Status)
	assert.Empty(t, p.Experiments[1].Observations)

	require.Len(t, p.Quizzes, 1)
	q := p.Quizzes[0]
	assert.Equal(t, 2, q.Attempts)
	require.NotNil(t, q.Score)
	assert.Equal(t, 80, *q.Score)
	assert.True(t, q.Passed)

	empty := BuildProgress("", nil, nil, nil, nil)
	assert.Equal(t, AnonymousUser, empty.UserID)
	assert.Empty(t, empty.Experiments)
	assert.Empty(t, empty.Quizzes)
}

func TestStoresKeepMillisecondTimes(t *testing.T) {
	zone := time.FixedZone("IST", 5*3600+1800)
	at := time.Date(2026, 3, 14, 14, 56, 53, 123456789, zone)
	want := time.Date(2026, 3, 14, 9, 26, 53, 123000000, time.UTC)

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			o, err := s.SaveObservation(ctx, Observation{ExperimentID: 1, Step: 1, Timestamp: at})
			require.NoError(t, err)
			assert.Equal(t, want, o.Timestamp)

			r, err := s.SaveQuizResult(ctx, QuizResult{ExperimentID: 1, UserID: "ada", CompletedAt: at})
			require.NoError(t, err)
			assert.Equal(t, want, r.CompletedAt)

			p, err := s.UpsertProgress(ctx, ExperimentProgress{ExperimentID: 1, UserID: "ada", Status: StatusCompleted, CompletedAt: &at})
			require.NoError(t, err)
			assert.Equal(t, want, *p.CompletedAt)

			obs, err := s.ListObservations(ctx, ObservationFilter{ExperimentID: 1})
			require.NoError(t, err)
			require.Len(t, obs, 1)
			assert.Equal(t, o, obs[0])

			results, err := s.ListQuizResults(ctx, "ada")
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, r, results[0])

			progress, err := s.ListProgress(ctx, "ada")
			require.NoError(t, err)
			require.Len(t, progress, 1)
			assert.Equal(t, p, progress[0])
		})
	}
}
