package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/chemlab/internal/catalog"
	"github.com/mind-engage/chemlab/internal/grading"
	"github.com/mind-engage/chemlab/internal/quizsession"
	"github.com/mind-engage/chemlab/internal/records"
)

type submitQuizReq struct {
	Answers map[string]interface{} `json:"answers"`
	UserID  string                 `json:"userId"`
}

type quizResultResp struct {
	records.QuizResult
	Items []grading.Result `json:"items,omitempty"`
}

func quizFromURL(cat *catalog.Catalog, r *http.Request) (catalog.Quiz, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return catalog.Quiz{}, catalog.ErrNotFound
	}
	return cat.Quiz(id)
}

// GET /api/quiz/{id} returns the quiz without answer keys.
func GetQuizHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := quizFromURL(cat, r)
		if err != nil {
			fail(w, r, err, "Quiz not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"quiz": q.Public()})
	}
}

// POST /api/quiz/{id} scores a whole answer sheet in one go and records it.
func SubmitQuizHandler(cat *catalog.Catalog, store records.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := quizFromURL(cat, r)
		if err != nil {
			fail(w, r, err, "Quiz not found")
			return
		}
		var req submitQuizReq
		if !decode(w, r, &req) {
			return
		}
		answers, err := grading.ParseAnswers(req.Answers)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		out := grading.Score(q.GradingQuestions(), answers)
		res, err := store.SaveQuizResult(r.Context(), records.QuizResult{
			ExperimentID: q.ExperimentID,
			UserID:       req.UserID,
			Score:        out.Score,
			Passed:       out.Passed,
			Earned:       out.Earned,
			Max:          out.Max,
			Reason:       quizsession.ReasonSubmitted,
			Answers:      req.Answers,
		})
		if err != nil {
			fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"result": quizResultResp{QuizResult: res, Items: out.Items}})
	}
}

// POST /api/quiz/{id}/sessions
func StartQuizSessionHandler(cat *catalog.Catalog, mgr *quizsession.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := quizFromURL(cat, r)
		if err != nil {
			fail(w, r, err, "Quiz not found")
			return
		}
		var req struct {
			UserID string `json:"userId"`
		}
		// the body is optional
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		tok, view, err := mgr.Start(q.ExperimentID, req.UserID)
		if err != nil {
			fail(w, r, err, "Quiz not found")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"token":     tok,
			"expiresAt": view.ExpiresAt.UTC().Format(time.RFC3339),
			"session":   view,
			"quiz":      q.Public(),
		})
	}
}

// GET /api/quiz/sessions/current
func QuizSessionStatusHandler(mgr *quizsession.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := mgr.Status(bearerToken(r))
		if err != nil {
			fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"session": view})
	}
}

// PUT /api/quiz/sessions/answers
func SaveQuizAnswerHandler(mgr *quizsession.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := bearerToken(r)
		if tok == "" {
			writeError(w, http.StatusUnauthorized, "missing session token")
			return
		}
		var req struct {
			QuestionID int         `json:"questionId"`
			Answer     interface{} `json:"answer"`
		}
		if !decode(w, r, &req) {
			return
		}
		view, err := mgr.Answer(tok, req.QuestionID, req.Answer)
		if err != nil {
			fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"session": view})
	}
}

// POST /api/quiz/sessions/submit
func SubmitQuizSessionHandler(mgr *quizsession.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := bearerToken(r)
		if tok == "" {
			writeError(w, http.StatusUnauthorized, "missing session token")
			return
		}
		res, err := mgr.Submit(tok)
		if err != nil {
			fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"result": res})
	}
}
