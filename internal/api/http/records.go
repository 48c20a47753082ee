package http

import (
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mind-engage/chemlab/internal/catalog"
	"github.com/mind-engage/chemlab/internal/records"
)

// GET /api/observations?experimentId=&userId=
func ListObservationsHandler(store records.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListObservations(r.Context(), records.ObservationFilter{
			ExperimentID: parseIntDefault(r.URL.Query().Get("experimentId"), 0),
			UserID:       strings.TrimSpace(r.URL.Query().Get("userId")),
		})
		if err != nil {
			fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"observations": list})
	}
}

// POST /api/observations
func CreateObservationHandler(store records.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var o records.Observation
		if !decode(w, r, &o) {
			return
		}
		if o.ExperimentID <= 0 || strings.TrimSpace(o.Observation) == "" {
			writeError(w, http.StatusBadRequest, "experimentId and observation required")
			return
		}
		// server-assigned
		o.ID = ""
		o.Timestamp = o.Timestamp.UTC()
		saved, err := store.SaveObservation(r.Context(), o)
		if err != nil {
			fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"observation": saved})
	}
}

// GET /api/progress?userId= folds stored progress, observations and quiz
// results into one report. The three reads run concurrently.
func GetProgressHandler(cat *catalog.Catalog, store records.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.URL.Query().Get("userId"))

		var (
			stored  []records.ExperimentProgress
			obs     []records.Observation
			results []records.QuizResult
		)
		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() (err error) {
			stored, err = store.ListProgress(ctx, userID)
			return err
		})
		g.Go(func() (err error) {
			obs, err = store.ListObservations(ctx, records.ObservationFilter{UserID: userID})
			return err
		})
		g.Go(func() (err error) {
			results, err = store.ListQuizResults(ctx, userID)
			return err
		})
		if err := g.Wait(); err != nil {
			fail(w, r, err, "")
			return
		}

		p := records.BuildProgress(userID, stored, obs, results, func(id int) int {
			e, err := cat.Experiment(id)
			if err != nil {
				return 0
			}
			return len(e.Steps)
		})
		writeJSON(w, http.StatusOK, map[string]any{"progress": p})
	}
}

// POST /api/progress
func UpsertProgressHandler(store records.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p records.ExperimentProgress
		if !decode(w, r, &p) {
			return
		}
		if p.ExperimentID <= 0 {
			writeError(w, http.StatusBadRequest, "experimentId required")
			return
		}
		switch p.Status {
		case "", records.StatusNotStarted, records.StatusInProgress, records.StatusCompleted:
		default:
			writeError(w, http.StatusBadRequest, "unknown status")
			return
		}
		saved, err := store.UpsertProgress(r.Context(), p)
		if err != nil {
			fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"progress": saved})
	}
}
