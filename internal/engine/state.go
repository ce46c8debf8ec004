package engine

import (
	"github.com/roach88/relive/internal/condition"
	"github.com/roach88/relive/internal/ir"
)

// StatTracker holds the current stats of a run with their extrema and the
// current and maximum age.
type StatTracker struct {
	cur, max, min ir.Stats
	age, maxAge   int
}

func newStatTracker() *StatTracker {
	return &StatTracker{age: -1, maxAge: -1}
}

// Set resets the stats to start. Extrema start at the same values.
func (s *StatTracker) Set(start ir.Stats) {
	s.cur, s.max, s.min = start, start, start
}

// Apply adds delta and updates the extrema.
func (s *StatTracker) Apply(delta ir.Stats) {
	s.cur = s.cur.Add(delta)
	s.track()
}

// AddAge moves the age by d and updates the maximum age.
func (s *StatTracker) AddAge(d int) {
	s.age += d
	s.track()
}

func (s *StatTracker) track() {
	cur, hi, lo := s.cur.Slice(), s.max.Slice(), s.min.Slice()
	for i := range cur {
		hi[i] = max(hi[i], cur[i])
		lo[i] = min(lo[i], cur[i])
	}
	s.max, s.min = ir.StatsOf(hi), ir.StatsOf(lo)
	s.maxAge = max(s.maxAge, s.age)
}

func (s *StatTracker) Current() ir.Stats { return s.cur }
func (s *StatTracker) Max() ir.Stats     { return s.max }
func (s *StatTracker) Min() ir.Stats     { return s.min }
func (s *StatTracker) Age() int          { return s.age }
func (s *StatTracker) MaxAge() int       { return s.maxAge }

// refresh rebuilds the condition environment from run state. It is called
// after every mutation; conditions never see a stale or partial snapshot.
func (e *Engine) refresh() {
	cur, hi, lo := e.stats.Current(), e.stats.Max(), e.stats.Min()
	active := make([]int, len(e.active))
	for i, t := range e.active {
		active[i] = t.ID
	}
	vars := map[string]condition.Value{
		ir.VarAge:    condition.Int(e.stats.Age()),
		ir.VarCharm:  condition.Int(cur.Charm),
		ir.VarIntel:  condition.Int(cur.Intelligence),
		ir.VarStr:    condition.Int(cur.Strength),
		ir.VarMoney:  condition.Int(cur.Money),
		ir.VarSpirit: condition.Int(cur.Spirit),

		ir.VarMaxAge:    condition.Int(e.stats.MaxAge()),
		ir.VarMaxCharm:  condition.Int(hi.Charm),
		ir.VarMaxIntel:  condition.Int(hi.Intelligence),
		ir.VarMaxStr:    condition.Int(hi.Strength),
		ir.VarMaxMoney:  condition.Int(hi.Money),
		ir.VarMaxSpirit: condition.Int(hi.Spirit),

		ir.VarMinCharm:  condition.Int(lo.Charm),
		ir.VarMinIntel:  condition.Int(lo.Intelligence),
		ir.VarMinStr:    condition.Int(lo.Strength),
		ir.VarMinMoney:  condition.Int(lo.Money),
		ir.VarMinSpirit: condition.Int(lo.Spirit),

		ir.VarAllTalents:      condition.SetOf(e.statistics.Talents),
		ir.VarAllEvents:       condition.SetOf(e.statistics.Events),
		ir.VarAllAchievements: condition.SetOf(e.statistics.Achievements),
		ir.VarAchieveCount:    condition.Int(len(e.statistics.Achievements)),

		ir.VarTalents:    condition.Set(active...),
		ir.VarRunEvents:  condition.SetOf(e.runEvents),
		ir.VarTickEvents: condition.SetOf(e.tickEvents),
	}
	if e.ending {
		vars[ir.VarOverall] = condition.Int(e.overall)
		vars[ir.VarFinished] = condition.Int(e.statistics.FinishedGames)
	}
	e.env = condition.NewEnv(vars)
}

// Env returns the current condition environment.
func (e *Engine) Env() condition.Env {
	return e.env
}
