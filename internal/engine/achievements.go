package engine

import (
	"log/slog"

	"github.com/roach88/relive/internal/ir"
)

// checkAchievements grants every achievement of the phase that the player
// does not hold yet and whose condition holds, in table order.
//
// All conditions of one scan see the same Env; grants become visible to
// conditions once the scan is done.
func (e *Engine) checkAchievements(phase ir.Opportunity) ([]*ir.Achievement, error) {
	granted := []*ir.Achievement{}
	for _, a := range e.tables.Achievements {
		if a.Opportunity != phase || e.statistics.Achievements.Has(a.ID) {
			continue
		}
		ok, err := a.Condition.Eval(e.env)
		if err != nil {
			return nil, conditionError(e.stats.Age(), 0, "achievement "+a.Name, err)
		}
		if ok {
			granted = append(granted, a)
		}
	}
	for _, a := range granted {
		e.statistics.Achievements.Add(a.ID)
		slog.Debug("achievement granted", "run_id", e.runID, "achievement", a.ID, "phase", string(phase))
	}
	if len(granted) > 0 {
		e.refresh()
	}
	return granted, nil
}
