package engine

import (
	"fmt"
	"iter"
	"log/slog"
	"slices"

	"github.com/roach88/relive/internal/condition"
	"github.com/roach88/relive/internal/config"
	"github.com/roach88/relive/internal/ir"
)

// Engine runs one life.
//
// An Engine is bound to a single run: configure it with Seed, SetTalents
// and SetStats, iterate Progress once, then optionally call End. It is not
// safe for concurrent use; independent engines share nothing but the
// read-only Tables and may run in parallel.
//
// INVARIANTS:
//   - active talent order NEVER changes after SetTalents
//   - the condition Env is rebuilt after every state change
//   - each talent fires at most MaxExecute times per run
type Engine struct {
	tables     *ir.Tables
	cfg        *config.Config
	statistics *ir.Statistics // caller's, mutated in memory
	before     *ir.Statistics // snapshot at construction, for replay

	rng    *Random
	seed   int64
	seeded bool

	runID    string
	idGen    RunIDGenerator
	maxChain int

	selected []*ir.Talent // as given to SetTalents
	active   []*ir.Talent // after replacement, in firing order
	executed map[int]int  // talent id -> times fired
	start    ir.Stats

	stats      *StatTracker
	alive      bool
	runEvents  ir.IDSet
	tickEvents ir.IDSet
	env        condition.Env

	phase   runPhase
	ending  bool // END variables are bound
	overall int
	ticks   []ir.TickRecord
	summary *Summary
}

type runPhase int

const (
	phaseReady runPhase = iota
	phaseRunning
	phaseConsumed
	phaseEnded
)

// Option configures an Engine.
type Option func(*Engine)

// WithMaxChain sets the maximum number of events in one tick's branch
// chain.
//
// Default: cfg.Engine.MaxChain, or DefaultMaxChain when that is zero.
func WithMaxChain(n int) Option {
	return func(e *Engine) {
		e.maxChain = n
	}
}

// WithRunIDGenerator sets the generator of run ids.
//
// Default: UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(e *Engine) {
		e.idGen = g
	}
}

// New creates an Engine for one run.
//
// stats is the player's cross-run progress; the engine adds to it in place.
// A nil stats starts from a fresh player. The snapshot taken here is the
// Before field of the run's record.
func New(tables *ir.Tables, cfg *config.Config, stats *ir.Statistics, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	if stats == nil {
		stats = ir.NewStatistics()
	}
	stats.Normalize()

	e := &Engine{
		tables:     tables,
		cfg:        cfg,
		statistics: stats,
		before:     stats.Clone(),
		idGen:      UUIDv7Generator{},
		maxChain:   cfg.Engine.MaxChain,
		executed:   make(map[int]int),
		stats:      newStatTracker(),
		alive:      true,
		runEvents:  ir.IDSet{},
		tickEvents: ir.IDSet{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.maxChain <= 0 {
		e.maxChain = DefaultMaxChain
	}
	e.runID = e.idGen.Generate()
	e.refresh()
	return e
}

// ID returns the run id.
func (e *Engine) ID() string { return e.runID }

// Statistics returns the player statistics the engine updates.
func (e *Engine) Statistics() *ir.Statistics { return e.statistics }

// Seed fixes the random stream. A nil seed derives a fresh one. The seed
// actually used is returned so the run can be reproduced.
//
// Seed must be called before SetTalents to govern replacement draws;
// otherwise a seed is derived on first use.
func (e *Engine) Seed(seed *int64) int64 {
	if seed != nil {
		e.seed = *seed
	} else {
		e.seed = DeriveSeed()
	}
	e.rng = NewRandom(e.seed)
	e.seeded = true
	slog.Debug("run seeded", "run_id", e.runID, "seed", e.seed)
	return e.seed
}

func (e *Engine) random() *Random {
	if !e.seeded {
		e.Seed(nil)
	}
	return e.rng
}

// SetTalents records the selection, applies replacement rules and fixes
// the active order. It returns the active talents.
//
// Every selected id and every replacement id joins the lifetime talent set.
func (e *Engine) SetTalents(selected []*ir.Talent) []*ir.Talent {
	e.selected = slices.Clone(selected)
	e.active = e.replaceTalents(e.selected)
	e.refresh()
	return slices.Clone(e.active)
}

// SetCharacter selects a character's talents and stats in one step. It
// returns the active talents. A character naming a missing talent, or two
// talents that exclude each other, is refused before any state changes.
func (e *Engine) SetCharacter(c *ir.Character) ([]*ir.Talent, error) {
	talents := make([]*ir.Talent, 0, len(c.Talents))
	for _, id := range c.Talents {
		t, ok := e.tables.Talent(id)
		if !ok {
			return nil, &RuntimeError{Code: ErrCodeUnknownTalent, Message: "character names unknown talent", Age: e.stats.Age(), EventID: id}
		}
		for _, prev := range talents {
			if prev.IncompatibleWith(t) {
				return nil, &RuntimeError{
					Code:    ErrCodeIncompatibleTalents,
					Message: fmt.Sprintf("character %q combines talents %d and %d", c.Name, prev.ID, t.ID),
					Age:     e.stats.Age(),
				}
			}
		}
		talents = append(talents, t)
	}
	active := e.SetTalents(talents)
	e.SetStats(c.Charm, c.Intelligence, c.Strength, c.Money)
	return active, nil
}

// SetStats sets the starting stats. Spirit comes from the configuration.
func (e *Engine) SetStats(charm, intelligence, strength, money int) {
	e.start = ir.Stats{
		Charm:        charm,
		Intelligence: intelligence,
		Strength:     strength,
		Money:        money,
		Spirit:       e.cfg.Stat.Spirit,
	}
	e.stats.Set(e.start)
	e.refresh()
}

// Points returns the number of points the player may allocate: the
// configured base plus the points of every active talent.
func (e *Engine) Points() int {
	n := e.cfg.Stat.Total
	for _, t := range e.active {
		n += t.Points
	}
	return n
}

// Selected returns the talents as given to SetTalents.
func (e *Engine) Selected() []*ir.Talent { return slices.Clone(e.selected) }

// Active returns the talents after replacement, in firing order.
func (e *Engine) Active() []*ir.Talent { return slices.Clone(e.active) }

// Alive reports whether the character is alive.
func (e *Engine) Alive() bool { return e.alive }

// Tick is one emitted snapshot of a run.
type Tick struct {
	// Age is the age the tick started at; -1 for birth.
	Age int

	// Talents fired this tick, in firing order.
	Talents []*ir.Talent

	// Events is the tick's chain; nil at birth.
	Events []ChainStep

	// Achievements granted this tick, in table order.
	Achievements []*ir.Achievement

	// Stats after the tick.
	Stats ir.Stats
}

// ChainStep is one event of a tick's chain. HasNext is false only for the
// last step.
type ChainStep struct {
	Event   *ir.Event
	HasNext bool
}

// Record returns the id-only form of the tick.
func (t Tick) Record() ir.TickRecord {
	rec := ir.TickRecord{
		Age:          t.Age,
		Talents:      make([]int, len(t.Talents)),
		Events:       make([]ir.EventStep, len(t.Events)),
		Achievements: make([]int, len(t.Achievements)),
		Stats:        t.Stats,
	}
	for i, tl := range t.Talents {
		rec.Talents[i] = tl.ID
	}
	for i, s := range t.Events {
		rec.Events[i] = ir.EventStep{ID: s.Event.ID, HasNext: s.HasNext}
	}
	for i, a := range t.Achievements {
		rec.Achievements[i] = a.ID
	}
	return rec
}

// Progress returns the run as a lazy sequence of ticks.
//
// The first tick is birth (age -1), then one tick per year until the
// character dies. An error is yielded at most once and ends the sequence;
// ticks yielded before it remain valid. Stopping early abandons the run
// without end-of-run scoring. The sequence can be ranged over once; later
// ranges yield ErrRunConsumed.
func (e *Engine) Progress() iter.Seq2[Tick, error] {
	return func(yield func(Tick, error) bool) {
		if e.phase != phaseReady {
			yield(Tick{}, ErrRunConsumed)
			return
		}
		e.phase = phaseRunning
		defer func() {
			if e.phase == phaseRunning {
				e.phase = phaseConsumed
			}
		}()
		e.random()

		slog.Debug("run starting", "run_id", e.runID, "talents", len(e.active))

		tick, err := e.birth()
		if err != nil {
			yield(Tick{}, err)
			return
		}
		if !yield(tick, nil) {
			return
		}
		for e.alive {
			tick, err := e.year()
			if err != nil {
				slog.Error("run failed", "run_id", e.runID, "age", e.stats.Age(), "error", err)
				yield(Tick{}, err)
				return
			}
			if !yield(tick, nil) {
				slog.Debug("run abandoned", "run_id", e.runID, "age", tick.Age)
				return
			}
		}
		slog.Debug("run finished", "run_id", e.runID, "age", e.stats.Age())
	}
}

// birth is the age -1 tick: talents and START achievements, no events.
func (e *Engine) birth() (Tick, error) {
	age := e.stats.Age()
	fired, err := e.executeTalents()
	if err != nil {
		return Tick{}, err
	}
	granted, err := e.checkAchievements(ir.OpportunityStart)
	if err != nil {
		return Tick{}, err
	}
	return e.emit(Tick{Age: age, Talents: fired, Achievements: granted}), nil
}

// year advances the age and runs one ALIVE tick.
func (e *Engine) year() (Tick, error) {
	e.stats.AddAge(1)
	e.tickEvents = ir.IDSet{}
	e.refresh()
	age := e.stats.Age()

	fired, err := e.executeTalents()
	if err != nil {
		return Tick{}, err
	}
	steps, err := e.executeEvents()
	if err != nil {
		return Tick{}, err
	}
	granted, err := e.checkAchievements(ir.OpportunityTrajectory)
	if err != nil {
		return Tick{}, err
	}
	return e.emit(Tick{Age: age, Talents: fired, Events: steps, Achievements: granted}), nil
}

func (e *Engine) emit(t Tick) Tick {
	t.Stats = e.stats.Current()
	e.ticks = append(e.ticks, t.Record())
	return t
}
