package harness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/relive/internal/compiler"
	"github.com/roach88/relive/internal/config"
	"github.com/roach88/relive/internal/engine"
	"github.com/roach88/relive/internal/ir"
	"github.com/roach88/relive/internal/testutil"
)

// Run compiles the scenario's tables and plays its run.
//
// Execution flow:
// 1. Load and validate the table directory
// 2. Load the config overlay, if any
// 3. Play the run to its end with the scenario's seed and run id
// 4. Evaluate assertions against the trace and end state
func Run(scenario *Scenario) (*Result, error) {
	tables, errs := compiler.LoadDir(scenario.Tables, compiler.LoadModeCollectAll)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load tables: %w", errors.Join(errs...))
	}
	if findings := compiler.Validate(tables); compiler.HasErrors(findings) {
		return nil, fmt.Errorf("invalid tables: %s", describe(findings))
	}

	cfg := config.Default()
	if scenario.Config != "" {
		loaded, err := config.LoadFromFile(scenario.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	return RunTables(tables, cfg, scenario)
}

// RunTables plays the scenario's run against already compiled tables.
func RunTables(tables *ir.Tables, cfg *config.Config, scenario *Scenario) (*Result, error) {
	selected := make([]*ir.Talent, 0, len(scenario.Talents))
	for _, id := range scenario.Talents {
		t, ok := tables.Talent(id)
		if !ok {
			return nil, fmt.Errorf("scenario selects unknown talent %d", id)
		}
		selected = append(selected, t)
	}

	eng := engine.New(tables, cfg, scenario.Statistics.statistics(),
		engine.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(scenario.RunID)))
	seed := scenario.Seed
	eng.Seed(&seed)
	eng.SetTalents(selected)
	st := scenario.Stats
	eng.SetStats(st.Charm, st.Intelligence, st.Strength, st.Money)

	result := NewResult()
	for tick, err := range eng.Progress() {
		if err != nil {
			return nil, fmt.Errorf("run failed: %w", err)
		}
		result.AddTick(tick.Record())
	}

	summary, err := eng.End()
	if err != nil {
		return nil, fmt.Errorf("failed to end run: %w", err)
	}
	rec, err := eng.Record()
	if err != nil {
		return nil, err
	}
	final, _ := rec.Final()
	for _, a := range summary.Achievements {
		result.Trace = append(result.Trace, TraceEvent{Age: final.Age, Kind: KindAchievement, ID: a.ID})
	}

	result.Record = rec
	result.Statistics = eng.Statistics()
	result.Env = eng.Env()

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func describe(findings []compiler.ValidationError) string {
	var msgs []string
	for _, f := range findings {
		if !f.Warning {
			msgs = append(msgs, f.Error())
		}
	}
	return strings.Join(msgs, "; ")
}
