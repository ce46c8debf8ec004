package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/relive/internal/ir"
)

// Scenario is one fully determined run and the expectations on it.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Tables is the CUE table directory, relative to the scenario file.
	Tables string `yaml:"tables"`

	// Config is an optional YAML config overlay, relative to the scenario file.
	Config string `yaml:"config,omitempty"`

	// Seed drives every random choice of the run.
	Seed int64 `yaml:"seed"`

	// RunID fixes the run id. Defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// Talents are the selected talent ids, in selection order.
	Talents []int `yaml:"talents"`

	// Stats is the starting allocation. Spirit comes from the config.
	Stats StatAllocation `yaml:"stats"`

	// Statistics is the player's progress before the run.
	Statistics *StartingStatistics `yaml:"statistics,omitempty"`

	// Assertions validate the trajectory and the end state.
	Assertions []Assertion `yaml:"assertions"`
}

// StatAllocation is the four allocated starting stats.
type StatAllocation struct {
	Charm        int `yaml:"charm"`
	Intelligence int `yaml:"intelligence"`
	Strength     int `yaml:"strength"`
	Money        int `yaml:"money"`
}

// StartingStatistics seeds lifetime progress.
type StartingStatistics struct {
	InheritedTalent *int  `yaml:"inherited_talent,omitempty"`
	FinishedGames   int   `yaml:"finished_games,omitempty"`
	Talents         []int `yaml:"talents,omitempty"`
	Events          []int `yaml:"events,omitempty"`
	Achievements    []int `yaml:"achievements,omitempty"`
}

// statistics converts the YAML form; nil yields a fresh player.
func (s *StartingStatistics) statistics() *ir.Statistics {
	out := ir.NewStatistics()
	if s == nil {
		return out
	}
	if s.InheritedTalent != nil {
		out.InheritedTalent = *s.InheritedTalent
	}
	out.FinishedGames = s.FinishedGames
	out.Talents = ir.NewIDSet(s.Talents...)
	out.Events = ir.NewIDSet(s.Events...)
	out.Achievements = ir.NewIDSet(s.Achievements...)
	return out
}

// Assertion validates the trace or the end state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Kind selects talent, event or achievement entries. Defaults to event.
	Kind string `yaml:"kind,omitempty"`

	// ID is the entry id (trace_contains, trace_count).
	ID int `yaml:"id,omitempty"`

	// Age restricts trace_contains to one tick.
	Age *int `yaml:"age,omitempty"`

	// IDs is the expected order (trace_order).
	IDs []int `yaml:"ids,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// Expect maps final_state keys to values. Subset match.
	Expect map[string]int `yaml:"expect,omitempty"`

	// Condition is evaluated by final_condition against the end variables.
	Condition string `yaml:"condition,omitempty"`
}

// kind returns the entry kind, defaulting to events.
func (a Assertion) kind() string {
	if a.Kind == "" {
		return KindEvent
	}
	return a.Kind
}

// Assertion type constants.
const (
	AssertTraceContains  = "trace_contains"
	AssertTraceOrder     = "trace_order"
	AssertTraceCount     = "trace_count"
	AssertFinalState     = "final_state"
	AssertFinalCondition = "final_condition"
)

// finalStateKeys are the quantities final_state can check.
var finalStateKeys = map[string]bool{
	"max_age":          true,
	"overall":          true,
	"ticks":            true,
	"finished_games":   true,
	"achievements":     true,
	"charm":            true,
	"intelligence":     true,
	"strength":         true,
	"money":            true,
	"spirit":           true,
	"max_charm":        true,
	"max_intelligence": true,
	"max_strength":     true,
	"max_money":        true,
	"max_spirit":       true,
}

// LoadScenario reads and parses a scenario YAML file. Tables and config
// paths resolve against the scenario file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving relative paths against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	scenario.Tables = resolve(basePath, scenario.Tables)
	scenario.Config = resolve(basePath, scenario.Config)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) || base == "" {
		return p
	}
	return filepath.Join(base, p)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Tables == "" {
		return fmt.Errorf("tables directory is required")
	}
	if _, err := os.Stat(s.Tables); os.IsNotExist(err) {
		return fmt.Errorf("tables directory not found: %s", s.Tables)
	}
	if s.Config != "" {
		if _, err := os.Stat(s.Config); os.IsNotExist(err) {
			return fmt.Errorf("config file not found: %s", s.Config)
		}
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
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
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	switch a.kind() {
	case KindTalent, KindEvent, KindAchievement:
	default:
		return fmt.Errorf("assertions[%d]: unknown kind %q", index, a.Kind)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.ID == 0 {
			return fmt.Errorf("assertions[%d]: id is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.IDs) == 0 {
			return fmt.Errorf("assertions[%d]: ids list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.ID == 0 {
			return fmt.Errorf("assertions[%d]: id is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
		for key := range a.Expect {
			if !finalStateKeys[key] {
				return fmt.Errorf("assertions[%d]: unknown final_state key %q", index, key)
			}
		}
	case AssertFinalCondition:
		if a.Condition == "" {
			return fmt.Errorf("assertions[%d]: condition is required for final_condition", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
