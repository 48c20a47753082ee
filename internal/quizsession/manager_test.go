package quizsession

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/chemlab/internal/catalog"
	"github.com/mind-engage/chemlab/internal/records"
)

func newManager(t *testing.T, opts ...Option) (*Manager, records.Store) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	store := records.NewInMemoryStore()
	m := NewManager("test-secret", cat, store, opts...)
	t.Cleanup(m.Close)
	return m, store
}

func TestSubmitScoresBufferedAnswers(t *testing.T) {
	m, store := newManager(t)

	tok, view, err := m.Start(1, "ada")
	require.NoError(t, err)
	assert.Equal(t, 1, view.ExperimentID)
	assert.Equal(t, 15*time.Minute, view.ExpiresAt.Sub(view.StartedAt))

	_, err = m.Answer(tok, 1, 0)
	require.NoError(t, err)
	_, err = m.Answer(tok, 2, true)
	require.NoError(t, err)
	_, err = m.Answer(tok, 4, 3) // overwritten below
	require.NoError(t, err)
	v, err := m.Answer(tok, 4, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Answered)

	r, err := m.Submit(tok)
	require.NoError(t, err)
	assert.Equal(t, 60, r.Score)
	assert.False(t, r.Passed)
	assert.Equal(t, ReasonSubmitted, r.Reason)
	assert.Equal(t, "ada", r.UserID)

	again, err := m.Submit(tok)
	require.NoError(t, err)
	assert.Equal(t, r, again)

	list, err := store.ListQuizResults(context.Background(), "ada")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, r.ID, list[0].ID)

	_, err = m.Answer(tok, 5, "200")
	assert.ErrorIs(t, err, ErrClosed)

	st, err := m.Status(tok)
	require.NoError(t, err)
	assert.True(t, st.Closed)
}

func TestTimeoutAutoSubmits(t *testing.T) {
	m, store := newManager(t, WithTimeLimit(30*time.Millisecond))

	tok, _, err := m.Start(1, "")
	require.NoError(t, err)
	_, err = m.Answer(tok, 5, "190 ppm")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		list, _ := store.ListQuizResults(context.Background(), records.AnonymousUser)
		return len(list) == 1
	}, time.Second, 5*time.Millisecond)

	list, err := store.ListQuizResults(context.Background(), records.AnonymousUser)
	require.NoError(t, err)
	assert.Equal(t, ReasonTimeout, list[0].Reason)
	assert.Equal(t, 20, list[0].Score)

	_, err = m.Answer(tok, 1, 0)
	assert.ErrorIs(t, err, ErrClosed)

	r, err := m.Submit(tok)
	require.NoError(t, err)
	assert.Equal(t, ReasonTimeout, r.Reason)
}

func TestLateAnswerClosesSession(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	m, _ := newManager(t, WithClock(clock))

	tok, _, err := m.Start(1, "ada")
	require.NoError(t, err)
	now = now.Add(16 * time.Minute)

	_, err = m.Answer(tok, 1, 0)
	assert.ErrorIs(t, err, ErrClosed)

	r, err := m.Submit(tok)
	require.NoError(t, err)
	assert.Equal(t, ReasonTimeout, r.Reason)
	assert.Equal(t, 0, r.Score)
}

func TestAnswerRejectsUnknownQuestion(t *testing.T) {
	m, _ := newManager(t)
	tok, _, err := m.Start(1, "ada")
	require.NoError(t, err)

	_, err = m.Answer(tok, 42, "x")
	assert.ErrorIs(t, err, ErrUnknownQuestion)
}

func TestStartUnknownQuiz(t *testing.T) {
	m, _ := newManager(t)
	_, _, err := m.Start(99, "ada")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestTokens(t *testing.T) {
	m, _ := newManager(t)
	tok, view, err := m.Start(1, "ada")
	require.NoError(t, err)

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(tok, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, view.ID, claims.ID)
	assert.Equal(t, "ada", claims.Subject)
	assert.Equal(t, 1, claims.ExperimentID)

	other := NewManager("other-secret", nil, nil)
	_, err = other.Status(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Status("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{RegisteredClaims: jwt.RegisteredClaims{ID: "missing"}})
	s, err := forged.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = m.Status(s)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCloseRefusesNewSessions(t *testing.T) {
	m, _ := newManager(t)
	m.Close()
	_, _, err := m.Start(1, "ada")
	assert.ErrorIs(t, err, ErrClosed)
}

// flakySink fails the first `failures` writes.
type flakySink struct {
	records.Store
	failures int32
	attempts atomic.Int32
}

func (f *flakySink) SaveQuizResult(ctx context.Context, r records.QuizResult) (records.QuizResult, error) {
	if f.attempts.Add(1) <= f.failures {
		return records.QuizResult{}, errors.New("db unavailable")
	}
	return f.Store.SaveQuizResult(ctx, r)
}

func newFlakyManager(t *testing.T, opts ...Option) (*Manager, *flakySink) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	sink := &flakySink{Store: records.NewInMemoryStore(), failures: 1}
	m := NewManager("test-secret", cat, sink, opts...)
	t.Cleanup(m.Close)
	return m, sink
}

func TestSubmitRetriesFailedSave(t *testing.T) {
	m, sink := newFlakyManager(t)
	tok, _, err := m.Start(1, "ada")
	require.NoError(t, err)
	_, err = m.Answer(tok, 1, 0)
	require.NoError(t, err)

	first, err := m.Submit(tok)
	require.Error(t, err)

	_, err = m.Answer(tok, 2, true)
	assert.ErrorIs(t, err, ErrClosed)

	second, err := m.Submit(tok)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 2, sink.attempts.Load())

	third, err := m.Submit(tok)
	require.NoError(t, err)
	assert.Equal(t, first, third)
	assert.EqualValues(t, 2, sink.attempts.Load())

	list, err := sink.ListQuizResults(context.Background(), "ada")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, 20, list[0].Score)
}

func TestSubmitRecordsFailedTimeoutSave(t *testing.T) {
	m, sink := newFlakyManager(t, WithTimeLimit(20*time.Millisecond))
	tok, _, err := m.Start(1, "ada")
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return sink.attempts.Load() == 1 }, time.Second, 5*time.Millisecond)
	list, err := sink.ListQuizResults(context.Background(), "ada")
	require.NoError(t, err)
	assert.Empty(t, list)

	r, err := m.Submit(tok)
	require.NoError(t, err)
	assert.Equal(t, ReasonTimeout, r.Reason)

	list, err = sink.ListQuizResults(context.Background(), "ada")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ReasonTimeout, list[0].Reason)
}
