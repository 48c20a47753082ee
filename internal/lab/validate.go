// Package lab decides whether a bench step may start and tracks the bench
// state as plain values.
package lab

import (
	"fmt"
	"slices"
)

const (
	// ReagentDispenser is the equipment that dispenses Reagent.
	ReagentDispenser = "agno3-beaker"
	Reagent          = "AgNO3"
	ActionAdd        = "add"
)

const (
	ErrPreviousIncomplete = "Complete previous step first"
	ErrEarlierIncomplete  = "Complete earlier steps first"
	ErrOutOfRange         = "Step out of range"
	WarnReagentReady      = "AgNO3 solution ready to be added"
)

type Step struct {
	ID          int    `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Instruction string `json:"instruction,omitempty" yaml:"instruction"`
	Equipment   string `json:"equipment" yaml:"equipment"`
	Action      string `json:"action" yaml:"action"`
	Observation string `json:"observation,omitempty" yaml:"observation"`
	Value       string `json:"value,omitempty" yaml:"value"`
}

// ObservationText is what the bench records when the step completes.
func (s Step) ObservationText() string {
	if s.Observation == "" {
		return "Step completed successfully"
	}
	return s.Observation
}

type StepValidation struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validate checks steps[current] against the completed step ids, the bench
// equipment and the chemicals already added. Warnings never block a step.
func Validate(steps []Step, current int, completed []int, equipment []string, chemicalsAdded []string) StepValidation {
	v := StepValidation{Errors: []string{}, Warnings: []string{}}
	if current < 0 || current >= len(steps) {
		v.Errors = append(v.Errors, ErrOutOfRange)
		return v
	}
	step := steps[current]

	if current > 0 && !slices.Contains(completed, steps[current-1].ID) {
		v.Errors = append(v.Errors, ErrPreviousIncomplete)
	} else if gap := firstIncomplete(steps[:current], completed); gap >= 0 {
		v.Errors = append(v.Errors, ErrEarlierIncomplete)
	}
	if !slices.Contains(equipment, step.Equipment) {
		v.Errors = append(v.Errors, fmt.Sprintf("Required equipment not available: %s", step.Equipment))
	}
	if step.Action == ActionAdd && step.Equipment == ReagentDispenser && !slices.Contains(chemicalsAdded, Reagent) {
		v.Warnings = append(v.Warnings, WarnReagentReady)
	}

	v.IsValid = len(v.Errors) == 0
	return v
}

// firstIncomplete returns the index of the first step not in completed, or -1.
func firstIncomplete(steps []Step, completed []int) int {
	for i, s := range steps {
		if !slices.Contains(completed, s.ID) {
			return i
		}
	}
	return -1
}
