package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// ResultSnapshot captures every case outcome of a scenario execution.
// Rows are sorted, so the snapshot is deterministic.
type ResultSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	QueryID      string       `json:"query_id,omitempty"`
	Cases        []CaseResult `json:"cases"`
}

// Snapshot renders the golden file contents for a scenario result: indented
// JSON terminated by a newline.
func Snapshot(scenario *Scenario, result *Result) ([]byte, error) {
	snapshot := ResultSnapshot{
		ScenarioName: scenario.Name,
		QueryID:      scenario.QueryID,
		Cases:        result.Cases,
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares the case outcomes against
// a golden file. The golden file is stored in
// testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the outcomes don't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario, result)
}

// AssertGolden compares an existing result against the scenario's golden
// file without re-running it.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenario, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return nil
}
