package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/scaffold/internal/graph"
)

// Snapshot is the golden-file view of a scenario run.
type Snapshot struct {
	ScenarioName string          `json:"scenario_name"`
	Pass         bool            `json:"pass"`
	Trace        []TraceEvent    `json:"trace"`
	Models       []ModelSnapshot `json:"models"`
}

// MarshalSnapshot renders the snapshot of result as canonical JSON with a
// trailing newline.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	data, err := graph.MarshalCanonical(Snapshot{
		ScenarioName: name,
		Pass:         result.Pass,
		Trace:        result.Trace,
		Models:       result.Models,
	})
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/<scenario.Name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
