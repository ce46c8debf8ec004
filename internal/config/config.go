// Package config provides the game configuration: stat budgets, grade
// tables, talent draw weights and character generation weights.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/roach88/relive/internal/ir"
	"gopkg.in/yaml.v3"
)

// Config holds all tunable game settings.
type Config struct {
	// Stat controls attribute allocation and end-of-run judging.
	Stat StatConfig `json:"stat" yaml:"stat"`

	// Talent controls the talent draw and selection.
	Talent TalentConfig `json:"talent" yaml:"talent"`

	// Character controls unique character generation.
	Character CharacterConfig `json:"character" yaml:"character"`

	// Engine bounds run execution.
	Engine EngineConfig `json:"engine" yaml:"engine"`

	// Logging controls log verbosity.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// StatConfig holds attribute settings.
type StatConfig struct {
	// Total is the base number of points a player allocates. Talent points
	// are added on top.
	Total int `json:"total" yaml:"total"`

	// Min and Max bound each allocated attribute.
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`

	// Spirit is the fixed starting spirit.
	Spirit int `json:"spirit" yaml:"spirit"`

	// Grades are the judging tables.
	Grades GradeTables `json:"grades" yaml:"grades"`
}

// Grade is one threshold of a judging table. A value is judged at the
// highest grade whose Min it strictly exceeds.
type Grade struct {
	Min    int       `json:"min" yaml:"min"`
	Rarity ir.Rarity `json:"rarity" yaml:"rarity"`
	Label  string    `json:"label" yaml:"label"`
}

// GradeTables holds one ascending table per judged quantity.
type GradeTables struct {
	Age              []Grade `json:"age" yaml:"age"`
	Charm            []Grade `json:"charm" yaml:"charm"`
	Intelligence     []Grade `json:"intelligence" yaml:"intelligence"`
	Strength         []Grade `json:"strength" yaml:"strength"`
	Money            []Grade `json:"money" yaml:"money"`
	Spirit           []Grade `json:"spirit" yaml:"spirit"`
	Overall          []Grade `json:"overall" yaml:"overall"`
	FinishedGames    []Grade `json:"finished_games" yaml:"finished_games"`
	Achievements     []Grade `json:"achievements" yaml:"achievements"`
	EventPercentage  []Grade `json:"event_percentage" yaml:"event_percentage"`
	TalentPercentage []Grade `json:"talent_percentage" yaml:"talent_percentage"`
}

// named returns every table with its name, in a fixed order.
func (g GradeTables) named() []namedGrades {
	return []namedGrades{
		{"age", g.Age},
		{"charm", g.Charm},
		{"intelligence", g.Intelligence},
		{"strength", g.Strength},
		{"money", g.Money},
		{"spirit", g.Spirit},
		{"overall", g.Overall},
		{"finished_games", g.FinishedGames},
		{"achievements", g.Achievements},
		{"event_percentage", g.EventPercentage},
		{"talent_percentage", g.TalentPercentage},
	}
}

type namedGrades struct {
	name   string
	grades []Grade
}

// TalentConfig holds talent draw settings.
type TalentConfig struct {
	// Limit is how many talents a player selects.
	Limit int `json:"limit" yaml:"limit"`

	// Choices is the size of one drawn batch, pinned talents included.
	Choices int `json:"choices" yaml:"choices"`

	// Pinned talent ids open every batch.
	Pinned []int `json:"pinned" yaml:"pinned"`

	Weight TalentWeight `json:"weight" yaml:"weight"`
	Boost  TalentBoost  `json:"boost" yaml:"boost"`
}

// TalentWeight is the per-rarity draw weight. Common gets what the other
// tiers leave of Total.
type TalentWeight struct {
	Total     int `json:"total" yaml:"total"`
	Uncommon  int `json:"uncommon" yaml:"uncommon"`
	Rare      int `json:"rare" yaml:"rare"`
	Legendary int `json:"legendary" yaml:"legendary"`
}

// Common returns the common-tier weight.
func (w TalentWeight) Common() int {
	return w.Total - w.Uncommon - w.Rare - w.Legendary
}

// Of returns the weight of rarity r.
func (w TalentWeight) Of(r ir.Rarity) int {
	switch r {
	case ir.Uncommon:
		return w.Uncommon
	case ir.Rare:
		return w.Rare
	case ir.Legendary:
		return w.Legendary
	}
	return w.Common()
}

// Mul scales the non-common tiers by b. Total is unchanged, so the common
// tier absorbs the difference.
func (w TalentWeight) Mul(b Boost) TalentWeight {
	return TalentWeight{
		Total:     w.Total,
		Uncommon:  w.Uncommon * b.Uncommon,
		Rare:      w.Rare * b.Rare,
		Legendary: w.Legendary * b.Legendary,
	}
}

// Boost is a per-tier multiplier term.
type Boost struct {
	Uncommon  int `json:"uncommon" yaml:"uncommon"`
	Rare      int `json:"rare" yaml:"rare"`
	Legendary int `json:"legendary" yaml:"legendary"`
}

// Add returns the field-wise sum.
func (b Boost) Add(o Boost) Boost {
	return Boost{Uncommon: b.Uncommon + o.Uncommon, Rare: b.Rare + o.Rare, Legendary: b.Legendary + o.Legendary}
}

// BoostOne is the neutral multiplier.
var BoostOne = Boost{Uncommon: 1, Rare: 1, Legendary: 1}

// BoostStep grants Boost once a counter reaches Min.
type BoostStep struct {
	Min   int   `json:"min" yaml:"min"`
	Boost Boost `json:"boost" yaml:"boost"`
}

// TalentBoost raises rare tiers for experienced players.
type TalentBoost struct {
	FinishedGames []BoostStep `json:"finished_games" yaml:"finished_games"`
	Achievements  []BoostStep `json:"achievements" yaml:"achievements"`
}

// BoostFor returns the boost of the highest step whose Min is at most
// value, or the zero Boost.
func BoostFor(steps []BoostStep, value int) Boost {
	for i := len(steps) - 1; i >= 0; i-- {
		if value >= steps[i].Min {
			return steps[i].Boost
		}
	}
	return Boost{}
}

// CharacterConfig holds unique character generation weights.
type CharacterConfig struct {
	StatWeights        []ValueWeight `json:"stat_weights" yaml:"stat_weights"`
	TalentCountWeights []ValueWeight `json:"talent_count_weights" yaml:"talent_count_weights"`

	// Choices is how many celebrities are offered at once.
	Choices int `json:"choices" yaml:"choices"`

	// DefaultName names a unique character created without one.
	DefaultName string `json:"default_name" yaml:"default_name"`
}

// ValueWeight is one entry of a weighted integer distribution.
type ValueWeight struct {
	Value  int     `json:"value" yaml:"value"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// EngineConfig bounds run execution.
type EngineConfig struct {
	// MaxChain caps the events of a single tick's branch chain.
	MaxChain int `json:"max_chain" yaml:"max_chain"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the log level: "info" (default) or "debug".
	Level string `json:"level" yaml:"level"`
}

// LoadFromFile reads configuration from a YAML file layered over Default.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Load returns the configuration from path (Default when path is empty)
// with RELIVE_* environment overrides applied, validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		cfg = fileCfg
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	s := c.Stat
	if s.Min < 0 || s.Max < s.Min {
		return fmt.Errorf("stat bounds invalid: min=%d max=%d", s.Min, s.Max)
	}
	if s.Total < 4*s.Min {
		return fmt.Errorf("stat total %d cannot cover four stats at min %d", s.Total, s.Min)
	}

	for _, t := range s.Grades.named() {
		if len(t.grades) == 0 {
			return fmt.Errorf("grade table %s is empty", t.name)
		}
		for i, g := range t.grades {
			if !g.Rarity.Valid() {
				return fmt.Errorf("grade table %s[%d]: invalid rarity %d", t.name, i, int(g.Rarity))
			}
			if i > 0 && g.Min <= t.grades[i-1].Min {
				return fmt.Errorf("grade table %s[%d]: min %d not ascending", t.name, i, g.Min)
			}
		}
	}

	tc := c.Talent
	if tc.Limit <= 0 {
		return fmt.Errorf("talent limit must be positive, got %d", tc.Limit)
	}
	if tc.Choices < tc.Limit || tc.Choices <= len(tc.Pinned) {
		return fmt.Errorf("talent choices %d must cover limit %d and exceed pinned %d",
			tc.Choices, tc.Limit, len(tc.Pinned))
	}
	w := tc.Weight
	if w.Uncommon < 0 || w.Rare < 0 || w.Legendary < 0 || w.Common() < 0 {
		return fmt.Errorf("talent weights invalid: total=%d uncommon=%d rare=%d legendary=%d",
			w.Total, w.Uncommon, w.Rare, w.Legendary)
	}

	for name, ws := range map[string][]ValueWeight{
		"stat_weights":         c.Character.StatWeights,
		"talent_count_weights": c.Character.TalentCountWeights,
	} {
		if len(ws) == 0 {
			return fmt.Errorf("character %s is empty", name)
		}
		for _, vw := range ws {
			if vw.Weight <= 0 {
				return fmt.Errorf("character %s: weight for %d must be positive", name, vw.Value)
			}
		}
	}

	if c.Engine.MaxChain <= 0 {
		return fmt.Errorf("engine max_chain must be positive, got %d", c.Engine.MaxChain)
	}

	validLevels := map[string]bool{"": true, "info": true, "debug": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, or empty for default)", c.Logging.Level)
	}
	return nil
}

// applyEnvOverrides applies RELIVE_* environment variables.
func applyEnvOverrides(cfg *Config) {
	intVar := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	intVar("RELIVE_STAT_TOTAL", &cfg.Stat.Total)
	intVar("RELIVE_STAT_SPIRIT", &cfg.Stat.Spirit)
	intVar("RELIVE_TALENT_LIMIT", &cfg.Talent.Limit)
	intVar("RELIVE_TALENT_CHOICES", &cfg.Talent.Choices)
	intVar("RELIVE_MAX_CHAIN", &cfg.Engine.MaxChain)

	if v := os.Getenv("RELIVE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
