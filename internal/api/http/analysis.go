package http

import (
	"net/http"
	"strings"

	"github.com/mind-engage/chemlab/internal/turbidity"
)

// POST /api/analysis/turbidity
func AnalyzeTurbidityHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Color string `json:"color"`
		}
		if !decode(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Color) == "" {
			writeError(w, http.StatusBadRequest, "color required")
			return
		}
		writeJSON(w, http.StatusOK, turbidity.Analyze(req.Color))
	}
}

// POST /api/analysis/compare
func CompareTurbidityHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TestColor     string `json:"testColor"`
			StandardColor string `json:"standardColor"`
		}
		if !decode(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.TestColor) == "" || strings.TrimSpace(req.StandardColor) == "" {
			writeError(w, http.StatusBadRequest, "testColor and standardColor required")
			return
		}
		writeJSON(w, http.StatusOK, turbidity.CompareColors(req.TestColor, req.StandardColor))
	}
}
