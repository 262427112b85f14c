// Package config loads scaffold settings.
//
// Sources are layered, later ones winning:
//
//  1. built-in defaults (Default)
//  2. a YAML file (scaffold.yaml by default; absent is fine)
//  3. a .env file (absent is fine)
//  4. SCAFFOLD_* process environment variables
//
// Command-line flags are applied on top by the CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/scaffold/internal/compliance"
	"github.com/roach88/scaffold/internal/graph"
	"github.com/roach88/scaffold/internal/lifecycle"
)

// Default file locations, relative to the working directory.
const (
	DefaultFile    = "scaffold.yaml"
	DefaultEnvFile = ".env"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SCAFFOLD_"

// Config holds every setting the CLI and server need.
type Config struct {
	// Database is the SQLite file path.
	Database string `yaml:"database"`

	// DefaultBayLengthM is used when dimensions omit bay_length_m.
	DefaultBayLengthM float64 `yaml:"default_bay_length_m"`

	// MaxAttempts bounds revision assignment retries.
	MaxAttempts int `yaml:"max_attempts"`

	Compliance Compliance `yaml:"compliance"`
	Server     Server     `yaml:"server"`
}

// Compliance selects the publication gate.
type Compliance struct {
	// Rules is the path of a CUE rule set. Empty means no rule set.
	Rules string `yaml:"rules"`

	// Structural enables the graph invariant checker.
	Structural bool `yaml:"structural"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database:          "scaffold.db",
		DefaultBayLengthM: graph.DefaultBayLengthM,
		MaxAttempts:       lifecycle.DefaultMaxAttempts,
		Server:            Server{Addr: ":8080"},
	}
}

// Load reads path and envFile on top of the defaults, applies SCAFFOLD_*
// environment overrides and validates the result. Either file may be
// missing; an empty path skips that source.
func Load(path, envFile string) (Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return Config{}, err
	}

	dotenv, err := readEnvFile(envFile)
	if err != nil {
		return Config{}, err
	}

	// Process environment wins over .env.
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads a YAML config over the defaults. A missing file (or an
// empty path) yields the defaults. Unknown keys are rejected.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return cfg, nil
}

func readEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	env, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return env, nil
}

// ApplyEnv overrides fields from SCAFFOLD_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPrefix + "DATABASE"); ok && v != "" {
		c.Database = v
	}
	if v, ok := lookup(EnvPrefix + "DEFAULT_BAY_LENGTH_M"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sDEFAULT_BAY_LENGTH_M: %w", EnvPrefix, err)
		}
		c.DefaultBayLengthM = f
	}
	if v, ok := lookup(EnvPrefix + "MAX_ATTEMPTS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_ATTEMPTS: %w", EnvPrefix, err)
		}
		c.MaxAttempts = n
	}
	if v, ok := lookup(EnvPrefix + "COMPLIANCE_RULES"); ok {
		c.Compliance.Rules = v
	}
	if v, ok := lookup(EnvPrefix + "COMPLIANCE_STRUCTURAL"); ok && v != "" {
		c.Compliance.Structural = parseBool(v)
	}
	if v, ok := lookup(EnvPrefix + "SERVER_ADDR"); ok && v != "" {
		c.Server.Addr = v
	}
	return nil
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// Validate checks that every setting is usable.
func (c Config) Validate() error {
	var errs []error
	if c.Database == "" {
		errs = append(errs, errors.New("database must not be empty"))
	}
	if !(c.DefaultBayLengthM > 0) {
		errs = append(errs, fmt.Errorf("default_bay_length_m must be positive, got %v", c.DefaultBayLengthM))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Checker builds the compliance gate the configuration selects: the
// structural checker and the CUE rule set, chained in that order when both
// are enabled, or compliance.AlwaysPass when neither is.
func (c Config) Checker() (compliance.Checker, error) {
	var checkers []compliance.Checker
	if c.Compliance.Structural {
		checkers = append(checkers, compliance.Structural{})
	}
	if c.Compliance.Rules != "" {
		rs, err := compliance.LoadRuleSet(c.Compliance.Rules)
		if err != nil {
			return nil, fmt.Errorf("compliance rules: %w", err)
		}
		checkers = append(checkers, rs)
	}

	switch len(checkers) {
	case 0:
		return compliance.AlwaysPass{}, nil
	case 1:
		return checkers[0], nil
	}
	return compliance.Chain(checkers...), nil
}

// ApplyDefaults fills in the configured bay length when d omits it.
func (c Config) ApplyDefaults(d graph.Dimensions) graph.Dimensions {
	if d.BayLengthM == 0 {
		d.BayLengthM = c.DefaultBayLengthM
	}
	return d
}
