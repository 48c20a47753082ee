// Package catalog serves the experiment, lab bench and quiz fixtures.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/mind-engage/chemlab/internal/grading"
	"github.com/mind-engage/chemlab/internal/lab"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

//go:embed experiment.schema.json
var experimentSchema []byte

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid experiment")
)

const defaultTimeLimitMinutes = 15

type Catalog struct {
	mu          sync.RWMutex
	experiments []Experiment
	benches     []lab.Bench
	quizzes     []Quiz

	schema *jsonschema.Schema
	now    func() time.Time
}

// Default loads the embedded fixtures.
func Default() (*Catalog, error) {
	return Load(defaultFixtures)
}

// LoadFile loads fixtures from path, or the embedded ones when path is empty.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return Load(data)
}

// Load parses, normalizes and validates a YAML fixture document.
func Load(data []byte) (*Catalog, error) {
	var fx fixtures
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	normalize(&fx)
	if err := validate(fx); err != nil {
		return nil, err
	}
	sch, err := compileSchema()
	if err != nil {
		return nil, err
	}
	return &Catalog{
		experiments: fx.Experiments,
		benches:     fx.Benches,
		quizzes:     fx.Quizzes,
		schema:      sch,
		now:         time.Now,
	}, nil
}

func normalize(fx *fixtures) {
	for i := range fx.Quizzes {
		q := &fx.Quizzes[i]
		if q.TimeLimitMinutes <= 0 {
			q.TimeLimitMinutes = defaultTimeLimitMinutes
		}
		q.PassingScore = grading.PassingScore
	}
	for i := range fx.Experiments {
		e := &fx.Experiments[i]
		for j := range e.Steps {
			if e.Steps[j].Chemicals == nil {
				e.Steps[j].Chemicals = []string{}
			}
		}
	}
}

var knownKinds = []grading.Kind{
	grading.KindMultipleChoice, grading.KindTrueFalse, grading.KindShortAnswer, grading.KindCalculation,
}

func validate(fx fixtures) error {
	var errs []error
	seen := map[int]bool{}
	for _, e := range fx.Experiments {
		if seen[e.ID] {
			errs = append(errs, fmt.Errorf("experiment %d: duplicate id", e.ID))
		}
		seen[e.ID] = true
	}
	for _, b := range fx.Benches {
		ids := map[int]bool{}
		for _, s := range b.Steps {
			if ids[s.ID] {
				errs = append(errs, fmt.Errorf("bench %s: duplicate step %d", b.ID, s.ID))
			}
			ids[s.ID] = true
		}
	}
	for _, q := range fx.Quizzes {
		for _, qq := range q.Questions {
			if !slices.Contains(knownKinds, qq.Type) {
				errs = append(errs, fmt.Errorf("quiz %d question %d: unknown type %q", q.ExperimentID, qq.ID, qq.Type))
			}
			if qq.Points < 0 {
				errs = append(errs, fmt.Errorf("quiz %d question %d: negative points", q.ExperimentID, qq.ID))
			}
		}
	}
	return errors.Join(errs...)
}

func compileSchema() (*jsonschema.Schema, error) {
	var doc any
	if err := json.Unmarshal(experimentSchema, &doc); err != nil {
		return nil, fmt.Errorf("parse experiment schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	const url = "schema://experiment.json"
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile experiment schema: %w", err)
	}
	return sch, nil
}

func (c *Catalog) Experiments() []Experiment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.experiments)
}

func (c *Catalog) Experiment(id int) (Experiment, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.experiments {
		if e.ID == id {
			return e, nil
		}
	}
	return Experiment{}, fmt.Errorf("experiment %d: %w", id, ErrNotFound)
}

func (c *Catalog) Benches() []lab.Bench {
	return slices.Clone(c.benches)
}

func (c *Catalog) Bench(id string) (lab.Bench, error) {
	for _, b := range c.benches {
		if b.ID == id {
			return b, nil
		}
	}
	return lab.Bench{}, fmt.Errorf("lab %s: %w", id, ErrNotFound)
}

// Quiz returns the full quiz, answer keys included.
func (c *Catalog) Quiz(experimentID int) (Quiz, error) {
	for _, q := range c.quizzes {
		if q.ExperimentID == experimentID {
			return q, nil
		}
	}
	return Quiz{}, fmt.Errorf("quiz for experiment %d: %w", experimentID, ErrNotFound)
}

// CreateExperiment validates raw JSON against the experiment schema and adds
// it to the catalog with a fresh id. Created experiments live in memory only.
func (c *Catalog) CreateExperiment(raw []byte) (Experiment, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Experiment{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := c.schema.Validate(doc); err != nil {
		return Experiment{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	var e Experiment
	if err := json.Unmarshal(raw, &e); err != nil {
		return Experiment{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	e.ID = 1
	for _, x := range c.experiments {
		if x.ID >= e.ID {
			e.ID = x.ID + 1
		}
	}
	now := c.now().UTC()
	e.CreatedAt = &now
	if e.Steps == nil {
		e.Steps = []Step{}
	}
	c.experiments = append(c.experiments, e)
	return e, nil
}
