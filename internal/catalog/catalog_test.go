package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/chemlab/internal/grading"
	"github.com/mind-engage/chemlab/internal/lab"
)

func TestDefaultFixtures(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	exps := c.Experiments()
	require.Len(t, exps, 2)
	assert.Equal(t, "Limit Test for Chloride", exps[0].Title)
	assert.Len(t, exps[0].Steps, 5)
	assert.Equal(t, []string{}, exps[0].Steps[4].Chemicals)

	e, err := c.Experiment(2)
	require.NoError(t, err)
	assert.Equal(t, "pH Determination", e.Title)

	_, err = c.Experiment(42)
	assert.ErrorIs(t, err, ErrNotFound)

	b, err := c.Bench("3")
	require.NoError(t, err)
	assert.Contains(t, b.Equipment, lab.ReagentDispenser)
	assert.Equal(t, "Add Silver Nitrate", b.Steps[2].Title)
	assert.Equal(t, lab.ActionAdd, b.Steps[2].Action)
	assert.Equal(t, 1, b.ExperimentID)
	assert.Len(t, c.Benches(), 3)

	_, err = c.Bench("9")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuizFixtureScoresLikeTheGrader(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	q, err := c.Quiz(1)
	require.NoError(t, err)
	assert.Equal(t, 15, q.TimeLimitMinutes)
	assert.Equal(t, grading.PassingScore, q.PassingScore)
	require.Len(t, q.Questions, 5)

	out := grading.Score(q.GradingQuestions(), map[int]interface{}{
		1: float64(0),
		2: true,
		3: "Wear gloves and avoid skin contact",
		4: float64(1),
		5: "160",
	})
	assert.Equal(t, 100, out.Score)
	assert.True(t, out.Passed)

	_, err = c.Quiz(2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuizPublicHidesAnswers(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	q, err := c.Quiz(1)
	require.NoError(t, err)

	pub := q.Public()
	for _, qq := range pub.Questions {
		assert.Nil(t, qq.Correct)
		assert.Zero(t, qq.Tolerance)
		assert.Empty(t, qq.Explanation)
	}
	// the catalog copy keeps its keys
	assert.Equal(t, 0, q.Questions[0].Correct)
	assert.Equal(t, 50.0, q.Questions[4].Tolerance)
}

func TestCreateExperiment(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	e, err := c.CreateExperiment([]byte(`{
		"title": "Limit Test for Sulphate",
		"difficulty": "Intermediate",
		"steps": [{"id": 1, "title": "Prepare barium chloride"}]
	}`))
	require.NoError(t, err)
	assert.Equal(t, 3, e.ID)
	require.NotNil(t, e.CreatedAt)
	assert.Equal(t, fixed, *e.CreatedAt)

	got, err := c.Experiment(3)
	require.NoError(t, err)
	assert.Equal(t, "Limit Test for Sulphate", got.Title)
}

func TestCreateExperimentRejectsInvalid(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	for name, body := range map[string]string{
		"not json":        `{`,
		"missing title":   `{"description": "x"}`,
		"bad difficulty":  `{"title": "x", "difficulty": "Impossible"}`,
		"step without id": `{"title": "x", "steps": [{"title": "y"}]}`,
		"materials type":  `{"title": "x", "materials": "beaker"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := c.CreateExperiment([]byte(body))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
	assert.Len(t, c.Experiments(), 2)
}

func TestLoadRejectsBadFixtures(t *testing.T) {
	_, err := Load([]byte(`
quizzes:
  - experimentId: 1
    questions:
      - {id: 1, type: essay, points: 5}
`))
	assert.ErrorContains(t, err, "unknown type")

	_, err = Load([]byte(`experiments: [{id: 1, title: a}, {id: 1, title: b}]`))
	assert.ErrorContains(t, err, "duplicate id")

	_, err = Load([]byte(`experiments: [{id: 1, colour: red}]`))
	assert.Error(t, err)
}
