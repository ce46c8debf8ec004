package ir

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/relive/internal/condition"
)

// Rarity is the ordinal tier shared by talents, events, achievements and
// stat judgments.
type Rarity int

const (
	Common Rarity = iota
	Uncommon
	Rare
	Legendary
)

var rarityNames = [...]string{"common", "uncommon", "rare", "legendary"}

// Rarities returns every tier from lowest to highest.
func Rarities() []Rarity {
	return []Rarity{Common, Uncommon, Rare, Legendary}
}

func (r Rarity) String() string {
	if r.Valid() {
		return rarityNames[r]
	}
	return fmt.Sprintf("rarity(%d)", int(r))
}

// Valid reports whether r is one of the four tiers.
func (r Rarity) Valid() bool {
	return r >= Common && r <= Legendary
}

// ParseRarity accepts a tier name ("rare") or its ordinal ("2").
func ParseRarity(s string) (Rarity, error) {
	for i, name := range rarityNames {
		if s == name || s == fmt.Sprint(i) {
			return Rarity(i), nil
		}
	}
	return 0, fmt.Errorf("unknown rarity %q", s)
}

// Opportunity is the phase at which an achievement is checked.
type Opportunity string

const (
	OpportunityStart      Opportunity = "START"
	OpportunityTrajectory Opportunity = "TRAJECTORY"
	OpportunityEnd        Opportunity = "END"
)

// ValidOpportunities defines allowed achievement phases.
var ValidOpportunities = map[Opportunity]bool{
	OpportunityStart:      true,
	OpportunityTrajectory: true,
	OpportunityEnd:        true,
}

// Stats holds the five tracked attributes.
type Stats struct {
	Charm        int `json:"charm"`
	Intelligence int `json:"intelligence"`
	Strength     int `json:"strength"`
	Money        int `json:"money"`
	Spirit       int `json:"spirit"`
}

// Add returns the field-wise sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Charm:        s.Charm + o.Charm,
		Intelligence: s.Intelligence + o.Intelligence,
		Strength:     s.Strength + o.Strength,
		Money:        s.Money + o.Money,
		Spirit:       s.Spirit + o.Spirit,
	}
}

// Sum returns the total of all five attributes.
func (s Stats) Sum() int {
	return s.Charm + s.Intelligence + s.Strength + s.Money + s.Spirit
}

// Slice returns the attributes in canonical order: charm, intelligence,
// strength, money, spirit.
func (s Stats) Slice() [5]int {
	return [5]int{s.Charm, s.Intelligence, s.Strength, s.Money, s.Spirit}
}

// StatsOf is the inverse of Stats.Slice.
func StatsOf(v [5]int) Stats {
	return Stats{Charm: v[0], Intelligence: v[1], Strength: v[2], Money: v[3], Spirit: v[4]}
}

// Talent is a pre-run modifier that may fire on later ticks.
type Talent struct {
	ID          int
	Name        string
	Description string
	Rarity      Rarity
	Points      int
	Effect      Stats
	Random      int // pool split across all five stats when non-zero
	MaxExecute  int
	Condition   condition.Expr
	Exclude     []int // incompatible talent ids, sorted
	Exclusive   bool  // never drawn, never a by-rarity replacement
	Replace     *Replacement
}

// IncompatibleWith reports whether t and o may not be active together. The
// relation is symmetric: either side may declare it.
func (t *Talent) IncompatibleWith(o *Talent) bool {
	_, a := slices.BinarySearch(t.Exclude, o.ID)
	_, b := slices.BinarySearch(o.Exclude, t.ID)
	return a || b
}

// ReplaceKind selects how a talent is substituted at selection time.
type ReplaceKind string

const (
	ReplaceByRarity ReplaceKind = "rarity"
	ReplaceByTalent ReplaceKind = "talent"
)

// Replacement is a talent's substitution rule. Exactly one of Rarities and
// Talents is used, according to Kind. Order is significant for seeded draws.
type Replacement struct {
	Kind     ReplaceKind
	Rarities []RarityWeight
	Talents  []IDWeight
}

// RarityWeight is one entry of a weighted rarity list.
type RarityWeight struct {
	Rarity Rarity
	Weight float64
}

// IDWeight is one entry of a weighted id list.
type IDWeight struct {
	ID     int
	Weight float64
}

// Life is an event's effect on the alive flag.
type Life int

const (
	LifeDie    Life = -1
	LifeKeep   Life = 0
	LifeRevive Life = 1
)

// Apply returns the alive flag after the effect.
func (l Life) Apply(alive bool) bool {
	switch l {
	case LifeDie:
		return false
	case LifeRevive:
		return true
	}
	return alive
}

// Event is an age-triggered step of a life.
type Event struct {
	ID       int
	Text     string
	Post     string // shown after the last event of a chain
	Rarity   Rarity
	Effect   Stats
	Life     Life
	Age      int // added to the current age when the event applies
	Include  condition.Expr
	Exclude  condition.Expr
	NoRandom bool
	Branches []Branch
}

// Branch is one follow-up rule of an event. The first branch whose condition
// holds names the next event of the chain.
type Branch struct {
	Condition condition.Expr
	EventID   int
}

// Achievement is a permanent unlock checked at one phase of a run.
type Achievement struct {
	ID          int
	Name        string
	Description string
	Rarity      Rarity
	Opportunity Opportunity
	Condition   condition.Expr
	Hidden      bool
}

// AgeEntry is one weighted event candidate of an age.
type AgeEntry struct {
	EventID int
	Weight  float64
}

// Character is a predefined or generated starting setup.
type Character struct {
	ID           int    `json:"id,omitempty"`
	Seed         int64  `json:"seed,omitempty"`
	Name         string `json:"name"`
	Talents      []int  `json:"talents"`
	Charm        int    `json:"charm"`
	Intelligence int    `json:"intelligence"`
	Strength     int    `json:"strength"`
	Money        int    `json:"money"`
}

// Tables is the complete, compiled data set of a game.
type Tables struct {
	Talents      map[int]*Talent
	Events       map[int]*Event
	Achievements []*Achievement // declared order
	Ages         map[int][]AgeEntry
	Characters   []*Character // celebrity roster, declared order

	// Digest identifies the source the tables were compiled from.
	Digest string
}

// NewTables returns empty tables ready to be filled.
func NewTables() *Tables {
	return &Tables{
		Talents: make(map[int]*Talent),
		Events:  make(map[int]*Event),
		Ages:    make(map[int][]AgeEntry),
	}
}

// Talent returns the talent with the given id.
func (t *Tables) Talent(id int) (*Talent, bool) {
	v, ok := t.Talents[id]
	return v, ok
}

// Event returns the event with the given id.
func (t *Tables) Event(id int) (*Event, bool) {
	v, ok := t.Events[id]
	return v, ok
}

// Achievement returns the achievement with the given id.
func (t *Tables) Achievement(id int) (*Achievement, bool) {
	for _, a := range t.Achievements {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// TalentIDs returns all talent ids in ascending order.
func (t *Tables) TalentIDs() []int {
	return slices.Sorted(maps.Keys(t.Talents))
}

// EventIDs returns all event ids in ascending order.
func (t *Tables) EventIDs() []int {
	return slices.Sorted(maps.Keys(t.Events))
}

// AgeKeys returns all declared ages in ascending order.
func (t *Tables) AgeKeys() []int {
	return slices.Sorted(maps.Keys(t.Ages))
}

// MarshalText encodes a rarity by name.
func (r Rarity) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid rarity %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText accepts the forms ParseRarity accepts.
func (r *Rarity) UnmarshalText(text []byte) error {
	v, err := ParseRarity(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
