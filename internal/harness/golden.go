package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/relive/internal/ir"
)

// TrajectorySnapshot captures the observable outcome of a scenario run.
// It serializes as canonical JSON for deterministic comparison.
type TrajectorySnapshot struct {
	Scenario     string          `json:"scenario"`
	Ticks        []ir.TickRecord `json:"ticks"`
	MaxAge       int             `json:"max_age"`
	Overall      int             `json:"overall"`
	Achievements []int           `json:"achievements"` // granted by the end-of-run scan
}

// Snapshot builds the golden snapshot of a finished result.
func Snapshot(name string, result *Result) (*TrajectorySnapshot, error) {
	rec := result.Record
	if rec == nil || rec.Summary == nil {
		return nil, fmt.Errorf("scenario %s: run has no summary", name)
	}
	return &TrajectorySnapshot{
		Scenario:     name,
		Ticks:        rec.Ticks,
		MaxAge:       rec.Summary.MaxAge,
		Overall:      rec.Summary.Overall,
		Achievements: rec.Summary.Achievements,
	}, nil
}

// RunWithGolden executes a scenario and compares its trajectory against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the trajectory doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an already computed result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snap, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}
	data, err := ir.MarshalCanonical(snap)
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
