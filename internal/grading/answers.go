package grading

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseAnswers converts a JSON answer object keyed by question id ("1": 0)
// into the map Score expects. Keys that are not integers are rejected.
func ParseAnswers(raw map[string]interface{}) (map[int]interface{}, error) {
	out := make(map[int]interface{}, len(raw))
	for k, v := range raw {
		id, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("answer key %q is not a question id", k)
		}
		out[id] = v
	}
	return out, nil
}
