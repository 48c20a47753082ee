// Package quizsession runs timed quiz attempts. A session buffers answers
// until the taker submits or the time limit passes; either way the buffered
// answers are scored once and the result is recorded.
package quizsession

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mind-engage/chemlab/internal/catalog"
	"github.com/mind-engage/chemlab/internal/grading"
	"github.com/mind-engage/chemlab/internal/records"
)

var (
	ErrInvalidToken    = errors.New("invalid session token")
	ErrClosed          = errors.New("quiz session closed")
	ErrUnknownQuestion = errors.New("unknown question")
)

const (
	ReasonSubmitted = "submitted"
	ReasonTimeout   = "timeout"
)

type Quizzes interface {
	Quiz(experimentID int) (catalog.Quiz, error)
}

type ResultSink interface {
	SaveQuizResult(ctx context.Context, r records.QuizResult) (records.QuizResult, error)
}

type session struct {
	id        string
	quiz      catalog.Quiz
	userID    string
	startedAt time.Time
	deadline  time.Time
	answers   map[int]interface{}
	result    *records.QuizResult
	saved     bool
	timer     *time.Timer

	// saveMu serializes writes of result to the sink.
	saveMu sync.Mutex
}

// View is what a caller may see of a session.
type View struct {
	ID           string    `json:"id"`
	ExperimentID int       `json:"experimentId"`
	UserID       string    `json:"userId"`
	StartedAt    time.Time `json:"startedAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
	Answered     int       `json:"answered"`
	Closed       bool      `json:"closed"`
}

type Claims struct {
	ExperimentID int `json:"eid"`
	jwt.RegisteredClaims
}

type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session
	closed   bool

	secret    []byte
	limit     time.Duration // 0: use the quiz's own limit
	retention time.Duration
	quizzes   Quizzes
	sink      ResultSink
	now       func() time.Time
}

type Option func(*Manager)

func WithTimeLimit(d time.Duration) Option  { return func(m *Manager) { m.limit = d } }
func WithRetention(d time.Duration) Option  { return func(m *Manager) { m.retention = d } }
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

func NewManager(secret string, quizzes Quizzes, sink ResultSink, opts ...Option) *Manager {
	m := &Manager{
		sessions:  map[string]*session{},
		secret:    []byte(secret),
		retention: time.Hour,
		quizzes:   quizzes,
		sink:      sink,
		now:       time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Start opens a session for the quiz of experimentID and returns its token.
func (m *Manager) Start(experimentID int, userID string) (string, View, error) {
	q, err := m.quizzes.Quiz(experimentID)
	if err != nil {
		return "", View{}, err
	}
	limit := m.limit
	if limit <= 0 {
		limit = time.Duration(q.TimeLimitMinutes) * time.Minute
	}
	if userID == "" {
		userID = records.AnonymousUser
	}
	now := m.now()
	s := &session{
		id:        uuid.NewString(),
		quiz:      q,
		userID:    userID,
		startedAt: now,
		deadline:  now.Add(limit),
		answers:   map[int]interface{}{},
	}
	tok, err := m.issue(s)
	if err != nil {
		return "", View{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", View{}, ErrClosed
	}
	m.sessions[s.id] = s
	s.timer = time.AfterFunc(limit, func() { m.expire(s.id) })
	return tok, s.view(), nil
}

// Answer buffers one answer, replacing any earlier answer to the question.
func (m *Manager) Answer(token string, questionID int, value interface{}) (View, error) {
	s, err := m.lookup(token)
	if err != nil {
		return View{}, err
	}
	m.mu.Lock()
	if s.result == nil && !m.now().Before(s.deadline) {
		// the timer has not fired yet but time is up
		m.mu.Unlock()
		m.finish(s, ReasonTimeout)
		return View{}, ErrClosed
	}
	defer m.mu.Unlock()
	if s.result != nil {
		return View{}, ErrClosed
	}
	if !hasQuestion(s.quiz, questionID) {
		return View{}, fmt.Errorf("%w: %d", ErrUnknownQuestion, questionID)
	}
	s.answers[questionID] = value
	return s.view(), nil
}

// Submit scores the session. Later calls return the same result, recording
// it if an earlier write failed.
func (m *Manager) Submit(token string) (records.QuizResult, error) {
	s, err := m.lookup(token)
	if err != nil {
		return records.QuizResult{}, err
	}
	return m.finish(s, ReasonSubmitted)
}

// Status reports the session behind token.
func (m *Manager) Status(token string) (View, error) {
	s, err := m.lookup(token)
	if err != nil {
		return View{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return s.view(), nil
}

// Close stops every pending timer. Open sessions are left unscored.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for _, s := range m.sessions {
		if s.timer != nil {
			s.timer.Stop()
		}
	}
}

func (m *Manager) expire(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return
	}
	if _, err := m.finish(s, ReasonTimeout); err != nil {
		log.Printf("quiz session %s: timeout submit: %v", id, err)
	}
}

// finish scores s once and records the result. A failed write leaves the
// result unsaved; the next Submit retries it with the same result.
func (m *Manager) finish(s *session, reason string) (records.QuizResult, error) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	m.mu.Lock()
	if s.result == nil {
		s.result = m.score(s, reason)
		if s.timer != nil {
			s.timer.Stop()
		}
	}
	r, saved := *s.result, s.saved
	m.mu.Unlock()
	if saved {
		return r, nil
	}

	if _, err := m.sink.SaveQuizResult(context.Background(), r); err != nil {
		return r, fmt.Errorf("record quiz result: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s.saved = true
	if !m.closed && m.retention > 0 {
		id := s.id
		time.AfterFunc(m.retention, func() {
			m.mu.Lock()
			delete(m.sessions, id)
			m.mu.Unlock()
		})
	}
	return r, nil
}

// score grades the buffered answers. Caller holds m.mu.
func (m *Manager) score(s *session, reason string) *records.QuizResult {
	if reason == ReasonSubmitted && !m.now().Before(s.deadline) {
		reason = ReasonTimeout
	}
	out := grading.Score(s.quiz.GradingQuestions(), s.answers)
	answers := make(map[string]interface{}, len(s.answers))
	for k, v := range s.answers {
		answers[strconv.Itoa(k)] = v
	}
	return &records.QuizResult{
		ID:           uuid.NewString(),
		ExperimentID: s.quiz.ExperimentID,
		UserID:       s.userID,
		Score:        out.Score,
		Passed:       out.Passed,
		Earned:       out.Earned,
		Max:          out.Max,
		Reason:       reason,
		Answers:      answers,
		CompletedAt:  m.now().UTC().Truncate(time.Millisecond),
	}
}

func (m *Manager) issue(s *session) (string, error) {
	claims := &Claims{
		ExperimentID: s.quiz.ExperimentID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.id,
			Subject:   s.userID,
			Issuer:    "chemlab",
			IssuedAt:  jwt.NewNumericDate(s.startedAt),
			ExpiresAt: jwt.NewNumericDate(s.deadline),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

// lookup verifies the token signature only; the session's own deadline
// decides whether it still accepts answers, so finished sessions can still
// report their result.
func (m *Manager) lookup(tokenStr string) (*session, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[claims.ID]
	if !ok {
		return nil, ErrInvalidToken
	}
	return s, nil
}

func (s *session) view() View {
	return View{
		ID:           s.id,
		ExperimentID: s.quiz.ExperimentID,
		UserID:       s.userID,
		StartedAt:    s.startedAt,
		ExpiresAt:    s.deadline,
		Answered:     len(s.answers),
		Closed:       s.result != nil,
	}
}

func hasQuestion(q catalog.Quiz, id int) bool {
	for _, qq := range q.Questions {
		if qq.ID == id {
			return true
		}
	}
	return false
}
