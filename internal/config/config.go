package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const DevSessionSecret = "chemlab-dev-secret"

type Config struct {
	Mode     Mode   `yaml:"mode"`
	HTTPAddr string `yaml:"httpAddr"`

	DBDriver string `yaml:"dbDriver"` // memory|sqlite|postgres
	DBDSN    string `yaml:"dbDSN"`

	CORSOriginsOnline  []string `yaml:"corsOriginsOnline"`
	CORSOriginsOffline []string `yaml:"corsOriginsOffline"`

	SessionSecret string        `yaml:"sessionSecret"`
	QuizTimeLimit time.Duration `yaml:"quizTimeLimit"` // 0: per-quiz limit
	FixturesFile  string        `yaml:"fixturesFile"`  // empty: embedded catalog

	EnableAuthoring bool `yaml:"enableAuthoring"` // POST /api/experiments

	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

func defaults() Config {
	return Config{
		Mode:               ModeOffline,
		HTTPAddr:           ":8080",
		DBDriver:           "memory",
		CORSOriginsOnline:  []string{"https://lab.mindengage.ai"},
		CORSOriginsOffline: []string{"http://localhost:3000", "http://localhost:5173"},
		SessionSecret:      DevSessionSecret,
		EnableAuthoring:    true,
		RequestTimeout:     60 * time.Second,
		ShutdownTimeout:    10 * time.Second,
	}
}

// FromEnv builds the configuration from defaults and the environment. It
// fails on variables that are set but do not parse.
func FromEnv() (Config, error) {
	return overlayEnv(defaults())
}

// Load reads an optional YAML file (path, or CONFIG_FILE when path is empty)
// over the defaults, then applies the environment on top.
func Load(path string) (Config, error) {
	c := defaults()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	c, err := overlayEnv(c)
	return c, errors.Join(err, c.Validate())
}

func overlayEnv(c Config) (Config, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	c.Mode = Mode(envOr("MODE", string(c.Mode)))
	c.HTTPAddr = envOr("HTTP_ADDR", c.HTTPAddr)
	c.DBDriver = envOr("DB_DRIVER", c.DBDriver)
	c.DBDSN = envOr("DB_DSN", c.DBDSN)
	c.CORSOriginsOnline = csvOr("CORS_ORIGINS_ONLINE", c.CORSOriginsOnline)
	c.CORSOriginsOffline = csvOr("CORS_ORIGINS_OFFLINE", c.CORSOriginsOffline)
	c.SessionSecret = envOr("SESSION_SECRET", c.SessionSecret)
	c.FixturesFile = envOr("FIXTURES_FILE", c.FixturesFile)

	var err error
	c.QuizTimeLimit, err = envDuration("QUIZ_TIME_LIMIT", c.QuizTimeLimit)
	collect(err)
	c.EnableAuthoring, err = envBool("ENABLE_AUTHORING", c.EnableAuthoring)
	collect(err)
	c.RequestTimeout, err = envDuration("REQUEST_TIMEOUT", c.RequestTimeout)
	collect(err)
	c.ShutdownTimeout, err = envDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	collect(err)
	return c, errors.Join(errs...)
}

func (c Config) Validate() error {
	var errs []error
	switch c.Mode {
	case ModeOffline, ModeOnline:
	default:
		errs = append(errs, fmt.Errorf("mode %q: want offline or online", c.Mode))
	}
	switch c.DBDriver {
	case "memory", "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("db driver %q: want memory, sqlite or postgres", c.DBDriver))
	}
	if c.Mode == ModeOnline && (c.SessionSecret == "" || c.SessionSecret == DevSessionSecret) {
		errs = append(errs, errors.New("online mode needs SESSION_SECRET"))
	}
	if c.QuizTimeLimit < 0 {
		errs = append(errs, fmt.Errorf("quiz time limit %s is negative", c.QuizTimeLimit))
	}
	return errors.Join(errs...)
}

// CORSOrigins picks the origin list for the running mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) (bool, error) {
	switch v := os.Getenv(k); v {
	case "":
		return def, nil
	case "1", "true", "TRUE", "yes", "YES":
		return true, nil
	case "0", "false", "FALSE", "no", "NO":
		return false, nil
	default:
		return def, fmt.Errorf("%s: %q is not a boolean", k, v)
	}
}
func envDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}
func csvOr(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
