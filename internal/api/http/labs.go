package http

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/chemlab/internal/catalog"
	"github.com/mind-engage/chemlab/internal/lab"
	"github.com/mind-engage/chemlab/internal/records"
)

const (
	ActionStart        = "start"
	ActionComplete     = "complete"
	ActionNext         = "next"
	ActionPrev         = "prev"
	ActionAddChemical  = "add-chemical"
	ActionUseEquipment = "use-equipment"
	ActionReset        = "reset"
)

type labActionReq struct {
	State     lab.State `json:"state"`
	Action    string    `json:"action"`
	StepID    int       `json:"stepId,omitempty"`
	Chemical  string    `json:"chemical,omitempty"`
	Equipment string    `json:"equipment,omitempty"`
	UserID    string    `json:"userId,omitempty"`
}

type labActionResp struct {
	State       lab.State            `json:"state"`
	Validation  lab.StepValidation   `json:"validation"`
	Progress    float64              `json:"progress"`
	Observation *records.Observation `json:"observation,omitempty"`
}

// GET /api/labs/{id}
func GetLabHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := cat.Bench(chi.URLParam(r, "id"))
		if err != nil {
			fail(w, r, err, "Lab not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"lab": b})
	}
}

// POST /api/labs/{id}/validate
func ValidateStepHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := cat.Bench(chi.URLParam(r, "id"))
		if err != nil {
			fail(w, r, err, "Lab not found")
			return
		}
		var s lab.State
		if !decode(w, r, &s) {
			return
		}
		writeJSON(w, http.StatusOK, b.Validate(s))
	}
}

// POST /api/labs/{id}/actions applies one bench action to the posted state.
// Completing a step on a bench tied to an experiment records the step's
// observation and the learner's progress.
func LabActionHandler(cat *catalog.Catalog, store records.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := cat.Bench(chi.URLParam(r, "id"))
		if err != nil {
			fail(w, r, err, "Lab not found")
			return
		}
		var req labActionReq
		if !decode(w, r, &req) {
			return
		}

		s := b.Sanitize(req.State)
		var obs *records.Observation
		switch req.Action {
		case ActionStart:
			s, err = b.Start(s)
		case ActionComplete:
			stepID := req.StepID
			if stepID == 0 && s.Current >= 0 && s.Current < len(b.Steps) {
				stepID = b.Steps[s.Current].ID
			}
			done := slices.Contains(s.Completed, stepID)
			s, err = b.Complete(s, stepID)
			if err == nil && !done {
				s = addReagent(b, s, stepID)
				obs, err = recordStep(r.Context(), store, b, s, stepID, req.UserID)
			}
		case ActionNext:
			s, err = b.Next(s)
		case ActionPrev:
			s, err = b.Prev(s)
		case ActionAddChemical:
			if req.Chemical == "" {
				writeError(w, http.StatusBadRequest, "chemical required")
				return
			}
			s = s.AddChemical(req.Chemical)
		case ActionUseEquipment:
			err = b.UseEquipment(s, req.Equipment)
		case ActionReset:
			s = lab.Reset()
		default:
			writeError(w, http.StatusBadRequest, "unknown action")
			return
		}
		if err != nil {
			if isLabError(err) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			fail(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusOK, labActionResp{
			State:       s,
			Validation:  b.Validate(s),
			Progress:    b.Progress(s),
			Observation: obs,
		})
	}
}

// addReagent marks the reagent as added once the dispensing step is done.
func addReagent(b lab.Bench, s lab.State, stepID int) lab.State {
	for _, st := range b.Steps {
		if st.ID == stepID && st.Action == lab.ActionAdd && st.Equipment == lab.ReagentDispenser {
			return s.AddChemical(lab.Reagent)
		}
	}
	return s
}

func recordStep(ctx context.Context, store records.Store, b lab.Bench, s lab.State, stepID int, userID string) (*records.Observation, error) {
	if b.ExperimentID == 0 || store == nil {
		return nil, nil
	}
	var step lab.Step
	for _, st := range b.Steps {
		if st.ID == stepID {
			step = st
		}
	}
	o, err := store.SaveObservation(ctx, records.Observation{
		ExperimentID: b.ExperimentID,
		Step:         stepID,
		Observation:  step.ObservationText(),
		Value:        step.Value,
		UserID:       userID,
	})
	if err != nil {
		return nil, err
	}
	status := records.StatusInProgress
	done := b.Done(s)
	if done >= len(b.Steps) {
		status = records.StatusCompleted
	}
	if _, err := store.UpsertProgress(ctx, records.ExperimentProgress{
		ExperimentID: b.ExperimentID,
		UserID:       userID,
		Status:       status,
		CurrentStep:  done,
		TotalSteps:   len(b.Steps),
	}); err != nil {
		return nil, err
	}
	return &o, nil
}

func isLabError(err error) bool {
	for _, target := range []error{lab.ErrCannotStart, lab.ErrStepInProgress, lab.ErrWrongEquipment, lab.ErrStepNotStarted, lab.ErrUnknownStep} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
