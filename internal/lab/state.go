package lab

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrCannotStart    = errors.New("cannot start step")
	ErrStepInProgress = errors.New("complete current step first")
	ErrWrongEquipment = errors.New("wrong equipment")
	ErrStepNotStarted = errors.New("step not started")
	ErrUnknownStep    = errors.New("unknown step")
)

// Bench is a lab exercise: the equipment on the bench and the ordered steps.
type Bench struct {
	ID           string   `json:"id" yaml:"id"`
	ExperimentID int      `json:"experimentId,omitempty" yaml:"experimentId"` // 0: not tied to an experiment
	Title        string   `json:"title" yaml:"title"`
	Description  string   `json:"description" yaml:"description"`
	Equipment    []string `json:"equipment" yaml:"equipment"`
	Steps        []Step   `json:"steps" yaml:"steps"`
}

// State is everything the bench remembers between user actions. Transitions
// return a new State and never modify the receiver's slices.
type State struct {
	Current        int      `json:"currentStep"`
	Completed      []int    `json:"completedSteps"`
	ChemicalsAdded []string `json:"chemicalsAdded"`
	InProgress     bool     `json:"inProgress"`
}

func (s State) clone() State {
	s.Completed = slices.Clone(s.Completed)
	s.ChemicalsAdded = slices.Clone(s.ChemicalsAdded)
	return s
}

// Validate runs the step validator for the current step of s.
func (b Bench) Validate(s State) StepValidation {
	return Validate(b.Steps, s.Current, s.Completed, b.Equipment, s.ChemicalsAdded)
}

// Start marks the current step in progress if it validates.
func (b Bench) Start(s State) (State, error) {
	v := b.Validate(s)
	if !v.IsValid {
		return s, fmt.Errorf("%w: %s", ErrCannotStart, strings.Join(v.Errors, ", "))
	}
	next := s.clone()
	next.InProgress = true
	return next, nil
}

// Complete records stepID as done. Completing a step twice changes nothing.
func (b Bench) Complete(s State, stepID int) (State, error) {
	if !slices.ContainsFunc(b.Steps, func(st Step) bool { return st.ID == stepID }) {
		return s, fmt.Errorf("%w: %d", ErrUnknownStep, stepID)
	}
	if slices.Contains(s.Completed, stepID) {
		return s, nil
	}
	next := s.clone()
	next.Completed = append(next.Completed, stepID)
	next.InProgress = false
	return next, nil
}

// Next moves forward one step; it stays put on the last step.
func (b Bench) Next(s State) (State, error) {
	if s.Current >= len(b.Steps)-1 {
		return s, nil
	}
	if s.InProgress {
		return s, ErrStepInProgress
	}
	next := s.clone()
	next.Current++
	return next, nil
}

// Prev moves back one step; it stays put on the first step.
func (b Bench) Prev(s State) (State, error) {
	if s.Current <= 0 {
		return s, nil
	}
	if s.InProgress {
		return s, ErrStepInProgress
	}
	next := s.clone()
	next.Current--
	return next, nil
}

func (s State) AddChemical(name string) State {
	if slices.Contains(s.ChemicalsAdded, name) {
		return s
	}
	next := s.clone()
	next.ChemicalsAdded = append(next.ChemicalsAdded, name)
	return next
}

// UseEquipment checks an equipment interaction against the current step.
func (b Bench) UseEquipment(s State, equipment string) error {
	if s.Current < 0 || s.Current >= len(b.Steps) {
		return fmt.Errorf("%w: %d", ErrUnknownStep, s.Current)
	}
	want := b.Steps[s.Current].Equipment
	if want != equipment {
		return fmt.Errorf("%w: use %s for this step", ErrWrongEquipment, want)
	}
	if !s.InProgress {
		return ErrStepNotStarted
	}
	return nil
}

// Progress is the completed share of the bench's steps, 0..100. Only distinct
// ids of this bench's steps count.
func (b Bench) Progress(s State) float64 {
	if len(b.Steps) == 0 {
		return 0
	}
	return float64(b.Done(s)) / float64(len(b.Steps)) * 100
}

// Done counts the bench steps marked complete in s.
func (b Bench) Done(s State) int {
	n := 0
	for _, st := range b.Steps {
		if slices.Contains(s.Completed, st.ID) {
			n++
		}
	}
	return n
}

// Sanitize drops completed ids that are not steps of this bench, removes
// duplicates and clamps Current into the step range.
func (b Bench) Sanitize(s State) State {
	next := s.clone()
	next.Completed = make([]int, 0, len(s.Completed))
	for _, id := range s.Completed {
		if slices.Contains(next.Completed, id) {
			continue
		}
		if slices.ContainsFunc(b.Steps, func(st Step) bool { return st.ID == id }) {
			next.Completed = append(next.Completed, id)
		}
	}
	switch {
	case len(b.Steps) == 0 || next.Current < 0:
		next.Current = 0
	case next.Current >= len(b.Steps):
		next.Current = len(b.Steps) - 1
	}
	return next
}

func Reset() State {
	return State{Completed: []int{}, ChemicalsAdded: []string{}}
}
