package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestAnalyzeCommand(t *testing.T) {
	out, err := run(t, "analyze", "#000000")
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "heavy", got["classification"])
}

func TestCompareCommand(t *testing.T) {
	out, err := run(t, "compare", "#000000", "#ffffff")
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "FAIL", got["result"])
}

func TestGradeCommand(t *testing.T) {
	t.Setenv("FIXTURES_FILE", "")
	path := filepath.Join(t.TempDir(), "answers.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"1": 0, "2": true, "4": 1, "5": "180"}`), 0o600))

	out, err := run(t, "grade", "1", path)
	require.NoError(t, err)
	assert.Contains(t, out, "score 80% (80/100) PASS")

	_, err = run(t, "grade", "9", path)
	assert.Error(t, err)

	_, err = run(t, "grade", "one", path)
	assert.Error(t, err)
}
