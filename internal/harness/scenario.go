package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/scaffold/internal/graph"
	"github.com/roach88/scaffold/internal/revision"
)

// DefaultJobID is used when a scenario names no job.
const DefaultJobID = "job-1"

// Scenario defines a lifecycle scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Job is the job id the steps run against. Defaults to DefaultJobID.
	Job string `yaml:"job,omitempty"`

	// Dimensions are recorded against the job before the first step.
	Dimensions *graph.Dimensions `yaml:"dimensions,omitempty"`

	// Rules is CUE rule-set source for the compliance gate.
	Rules string `yaml:"rules,omitempty"`

	// Structural adds the structural graph checks to the compliance gate.
	Structural bool `yaml:"structural,omitempty"`

	// MaxAttempts overrides the lifecycle retry bound when positive.
	MaxAttempts int `yaml:"max_attempts,omitempty"`

	// Steps are the lifecycle operations, run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final models.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step operations.
const (
	OpDraft     = "draft"
	OpSupersede = "supersede"
	OpPublish   = "publish"
	OpRetakeoff = "retakeoff"
)

// Step is one lifecycle operation.
type Step struct {
	// Op is draft, supersede, publish or retakeoff.
	Op string `yaml:"op"`

	// Dimensions override the job's recorded dimensions (draft, supersede).
	Dimensions *graph.Dimensions `yaml:"dimensions,omitempty"`

	// Revision selects the target model (publish, retakeoff). Empty means
	// the latest model.
	Revision string `yaml:"revision,omitempty"`

	// Expect, when set, is checked against the step's outcome.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies a step's expected outcome. Empty fields are not checked.
type Expect struct {
	Version   string `yaml:"version,omitempty"`
	LoadClass string `yaml:"load_class,omitempty"`
	Published *bool  `yaml:"published,omitempty"`

	// Error is the expected error code, e.g. COMPLIANCE_FAILED. A step
	// without it must succeed.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the final models.
type Assertion struct {
	// Type is model_count, versions, published or takeoff.
	Type string `yaml:"type"`

	// Count is the expected number of models (model_count).
	Count int `yaml:"count,omitempty"`

	// Versions is the expected revision list, newest first (versions).
	Versions []string `yaml:"versions,omitempty"`

	// Revision selects the model (published, takeoff).
	Revision string `yaml:"revision,omitempty"`

	// Published is the expected flag (published). Defaults to true.
	Published *bool `yaml:"published,omitempty"`

	// Item and Qty give the expected stored takeoff line (takeoff).
	Item string `yaml:"item,omitempty"`
	Qty  int    `yaml:"qty,omitempty"`
}

// Assertion type constants.
const (
	AssertModelCount = "model_count"
	AssertVersions   = "versions"
	AssertPublished  = "published"
	AssertTakeoff    = "takeoff"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// JobID returns the job the scenario runs against.
func (s *Scenario) JobID() string {
	if s.Job == "" {
		return DefaultJobID
	}
	return s.Job
}

// Validate checks that required fields are present and well formed.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must be non-negative")
	}

	for i, step := range s.Steps {
		switch step.Op {
		case OpDraft, OpSupersede:
			if step.Dimensions == nil && s.Dimensions == nil {
				return fmt.Errorf("steps[%d]: %s needs dimensions on the step or the scenario", i, step.Op)
			}
			if step.Revision != "" {
				return fmt.Errorf("steps[%d]: revision is not allowed for %s", i, step.Op)
			}
		case OpPublish, OpRetakeoff:
			if step.Dimensions != nil {
				return fmt.Errorf("steps[%d]: dimensions are not allowed for %s", i, step.Op)
			}
			if step.Revision != "" && !revision.Valid(step.Revision) {
				return fmt.Errorf("steps[%d]: invalid revision %q", i, step.Revision)
			}
		case "":
			return fmt.Errorf("steps[%d]: op is required", i)
		default:
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertModelCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for model_count", index)
		}
	case AssertVersions:
		if a.Versions == nil {
			return fmt.Errorf("assertions[%d]: versions list is required for versions", index)
		}
	case AssertPublished:
		if a.Revision == "" {
			return fmt.Errorf("assertions[%d]: revision is required for published", index)
		}
	case AssertTakeoff:
		if a.Revision == "" || a.Item == "" {
			return fmt.Errorf("assertions[%d]: revision and item are required for takeoff", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
