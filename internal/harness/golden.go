package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/georeplay/internal/canon"
)

// GoldenSnapshot is the content of a scenario's golden file.
type GoldenSnapshot struct {
	Scenario string          `json:"scenario"`
	Frames   []FrameSnapshot `json:"frames"`
}

// SnapshotJSON returns the canonical JSON golden content for a result.
func SnapshotJSON(name string, result *Result) ([]byte, error) {
	return canon.Marshal(GoldenSnapshot{Scenario: name, Frames: result.Frames})
}

// RunWithGolden executes a scenario and compares its frame snapshots
// against testdata/golden/{scenario.Name}.golden.
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

	data, err := SnapshotJSON(scenario.Name, result)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return result, nil
}
