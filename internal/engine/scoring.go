package engine

import (
	"log/slog"

	"github.com/roach88/relive/internal/config"
	"github.com/roach88/relive/internal/ir"
)

// Overall is the run score: twice the sum of the stat maxima plus half the
// maximum age, rounded down.
func Overall(max ir.Stats, maxAge int) int {
	half := maxAge / 2
	if maxAge < 0 && maxAge%2 != 0 {
		half--
	}
	return 2*max.Sum() + half
}

// Judge returns the highest grade of table whose Min value strictly
// exceeds. A value at or below every Min gets the first grade. An empty
// table yields the zero Grade.
func Judge(value int, table []config.Grade) config.Grade {
	for i := len(table) - 1; i >= 0; i-- {
		if value > table[i].Min {
			return table[i]
		}
	}
	if len(table) == 0 {
		return config.Grade{}
	}
	return table[0]
}

// Judgment is a judged quantity.
type Judgment struct {
	Quantity string
	Value    int
	Grade    config.Grade
}

// Record returns the serialisable form of the judgment.
func (j Judgment) Record() ir.Grade {
	return ir.Grade{Quantity: j.Quantity, Value: j.Value, Rarity: j.Grade.Rarity, Label: j.Grade.Label}
}

func judge(quantity string, value int, table []config.Grade) Judgment {
	return Judgment{Quantity: quantity, Value: value, Grade: Judge(value, table)}
}

// Summary is the end-of-run result.
type Summary struct {
	// Talents as selected, before replacement.
	Talents []*ir.Talent

	// Achievements granted at END, in table order.
	Achievements []*ir.Achievement

	MaxAge  int
	Max     ir.Stats
	Overall int

	// Judgments in the order age, charm, intelligence, strength, money,
	// spirit, overall.
	Judgments []Judgment
}

// Record returns the id-only form of the summary.
func (s *Summary) Record() *ir.SummaryRecord {
	rec := &ir.SummaryRecord{
		MaxAge:       s.MaxAge,
		Max:          s.Max,
		Overall:      s.Overall,
		Achievements: make([]int, len(s.Achievements)),
		Grades:       make([]ir.Grade, len(s.Judgments)),
	}
	for i, a := range s.Achievements {
		rec.Achievements[i] = a.ID
	}
	for i, j := range s.Judgments {
		rec.Grades[i] = j.Record()
	}
	return rec
}

// End scores the run.
//
// It counts the finished game, binds SUM and TMS, grants END achievements
// and judges the maxima. End may follow a completed or an abandoned
// Progress and may be called only once.
func (e *Engine) End() (*Summary, error) {
	if e.phase == phaseEnded {
		return nil, ErrRunEnded
	}
	e.phase = phaseEnded

	hi, maxAge := e.stats.Max(), e.stats.MaxAge()
	e.overall = Overall(hi, maxAge)
	e.statistics.FinishedGames++
	e.ending = true
	e.refresh()

	granted, err := e.checkAchievements(ir.OpportunityEnd)
	if err != nil {
		return nil, err
	}

	g := e.cfg.Stat.Grades
	e.summary = &Summary{
		Talents:      e.Selected(),
		Achievements: granted,
		MaxAge:       maxAge,
		Max:          hi,
		Overall:      e.overall,
		Judgments: []Judgment{
			judge("age", maxAge, g.Age),
			judge("charm", hi.Charm, g.Charm),
			judge("intelligence", hi.Intelligence, g.Intelligence),
			judge("strength", hi.Strength, g.Strength),
			judge("money", hi.Money, g.Money),
			judge("spirit", hi.Spirit, g.Spirit),
			judge("overall", e.overall, g.Overall),
		},
	}
	slog.Debug("run ended",
		"run_id", e.runID,
		"max_age", maxAge,
		"overall", e.overall,
		"finished_games", e.statistics.FinishedGames)
	return e.summary, nil
}

// Report is the cross-run judgment of a player's statistics.
type Report struct {
	FinishedGames    Judgment
	Achievements     Judgment
	EventPercentage  Judgment
	TalentPercentage Judgment
}

// Judgments returns the report's judgments in display order.
func (r Report) Judgments() []Judgment {
	return []Judgment{r.FinishedGames, r.Achievements, r.EventPercentage, r.TalentPercentage}
}

// JudgeStatistics judges a player's statistics against the grade tables.
// Percentages are of the events and talents present in tables, rounded
// down.
func JudgeStatistics(stats *ir.Statistics, tables *ir.Tables, cfg *config.Config) Report {
	g := cfg.Stat.Grades
	return Report{
		FinishedGames:    judge("finished_games", stats.FinishedGames, g.FinishedGames),
		Achievements:     judge("achievements", len(stats.Achievements), g.Achievements),
		EventPercentage:  judge("event_percentage", percent(len(stats.Events), len(tables.Events)), g.EventPercentage),
		TalentPercentage: judge("talent_percentage", percent(len(stats.Talents), len(tables.Talents)), g.TalentPercentage),
	}
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return n * 100 / total
}
