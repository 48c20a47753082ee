package grading

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultTolerance applies to calculation questions that carry no tolerance.
const DefaultTolerance = 0.01

// numericStrategy accepts any response within an absolute tolerance of the
// key. Examples:
//
//	Correct: "200", Tolerance: 50   // 150..250 pass
//	Correct: 3.14159                // ±0.01
type numericStrategy struct{}

func (numericStrategy) Correct(q Q, response interface{}) bool {
	rv, rOK := parseFloatLoose(response)
	tv, tOK := parseFloatLoose(q.Correct)
	if !rOK || !tOK {
		return false
	}
	tol := q.Tolerance
	if tol == 0 {
		tol = DefaultTolerance
	}
	return math.Abs(rv-tv) <= tol
}

var leadingFloat = regexp.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)

// parseFloatLoose reads the longest numeric prefix of a string ("160 ppm" is
// 160). Numbers pass through; anything else fails.
func parseFloatLoose(v interface{}) (float64, bool) {
	if n, ok := toNumber(v); ok {
		return n, !math.IsNaN(n)
	}
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	m := leadingFloat.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
