package grading

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	mc := Q{ID: 1, Kind: KindMultipleChoice, Correct: 0, Points: 20}
	tf := Q{ID: 2, Kind: KindTrueFalse, Correct: true, Points: 20}
	sa := Q{ID: 3, Kind: KindShortAnswer, Correct: "Wear gloves and avoid skin contact as it can cause staining", Points: 20}
	calc := Q{ID: 5, Kind: KindCalculation, Correct: "200", Tolerance: 50, Points: 20}

	tests := []struct {
		name     string
		q        Q
		response interface{}
		want     bool
	}{
		{"mc index from json", mc, float64(0), true},
		{"mc int index", mc, 0, true},
		{"mc json.Number", mc, json.Number("0"), true},
		{"mc wrong index", mc, float64(2), false},
		{"mc string is not an index", mc, "0", false},
		{"mc unanswered", mc, nil, false},
		{"tf match", tf, true, true},
		{"tf mismatch", tf, false, false},
		{"tf string", tf, "true", false},
		{"short answer keywords", sa, "Wear gloves and avoid skin contact", true},
		{"short answer upper case", sa, "GLOVES FOR SAFETY", true},
		{"short answer too short", sa, "ok", false},
		{"short answer one keyword", sa, "just wear some gloves", false},
		{"short answer two keywords but 10 chars", sa, "skinavoid!", false},
		{"short answer 11 chars", sa, "skin avoid!", true},
		{"short answer not text", sa, 42.0, false},
		{"calc inside tolerance", calc, "160", true},
		{"calc edge of tolerance", calc, "250", true},
		{"calc outside tolerance", calc, "100", false},
		{"calc number", calc, 210.0, true},
		{"calc with unit", calc, "190 ppm", true},
		{"calc unparseable", calc, "about two hundred", false},
		{"calc unanswered", calc, nil, false},
		{"unknown kind", Q{ID: 9, Kind: "essay", Correct: "x", Points: 5}, "x", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.q, tt.response))
		})
	}
}

func TestEvaluateDefaultTolerance(t *testing.T) {
	q := Q{Kind: KindCalculation, Correct: 3.14, Points: 1}
	assert.True(t, Evaluate(q, "3.145"))
	assert.False(t, Evaluate(q, "3.16"))
}

func TestParseFloatLoose(t *testing.T) {
	tests := []struct {
		in   interface{}
		want float64
		ok   bool
	}{
		{"  42", 42, true},
		{"-1.5e2x", -150, true},
		{".5", 0.5, true},
		{"1e", 1, true},
		{"abc", 0, false},
		{"", 0, false},
		{true, 0, false},
		{7, 7, true},
	}
	for _, tt := range tests {
		got, ok := parseFloatLoose(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-9, "%v", tt.in)
		}
	}
}
