package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/wiregraph/internal/ir"
)

// Snapshot is the golden view of a scenario run: the step trace and the
// geometry-free summary of the final graph.
type Snapshot struct {
	ScenarioName string      `json:"scenario_name"`
	Trace        []StepEvent `json:"trace"`
	Summary      Summary     `json:"summary"`
}

// MarshalSnapshot renders the canonical JSON compared against golden files.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	return ir.MarshalCanonical(Snapshot{
		ScenarioName: name,
		Trace:        result.Trace,
		Summary:      result.Summary,
	})
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
