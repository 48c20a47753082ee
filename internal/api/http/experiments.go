package http

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/chemlab/internal/catalog"
)

// GET /api/experiments
func ListExperimentsHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"experiments": cat.Experiments()})
	}
}

// GET /api/experiments/{id}
func GetExperimentHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "Experiment not found")
			return
		}
		e, err := cat.Experiment(id)
		if err != nil {
			fail(w, r, err, "Experiment not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"experiment": e})
	}
}

// POST /api/experiments
func CreateExperimentHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad body")
			return
		}
		e, err := cat.CreateExperiment(raw)
		if err != nil {
			fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"experiment": e})
	}
}
