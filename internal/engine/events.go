package engine

import (
	"log/slog"

	"github.com/roach88/relive/internal/ir"
)

// executeEvents draws the tick's event and follows its branch chain.
func (e *Engine) executeEvents() ([]ChainStep, error) {
	age := e.stats.Age()
	event, err := e.drawEvent(age)
	if err != nil {
		return nil, err
	}

	quota := NewChainQuota(e.maxChain)
	var steps []ChainStep
	for event != nil {
		if err := quota.Check(age, event.ID); err != nil {
			slog.Error("branch chain exceeded quota",
				"run_id", e.runID,
				"age", age,
				"event", event.ID,
				"limit", e.maxChain)
			return nil, &RuntimeError{Code: ErrCodeChainExceeded, Message: "branch chain exceeded quota", Age: age, EventID: event.ID, Err: err}
		}
		e.applyEvent(event)

		next, err := e.nextEvent(event)
		if err != nil {
			return nil, err
		}
		steps = append(steps, ChainStep{Event: event, HasNext: next != nil})
		event = next
	}
	return steps, nil
}

// drawEvent picks one event among the age's candidates by weight.
// Candidates are the entries that are not branch-only, not excluded and
// included, in table order.
func (e *Engine) drawEvent(age int) (*ir.Event, error) {
	entries, ok := e.tables.Ages[age]
	if !ok {
		return nil, &RuntimeError{Code: ErrCodeNoEligibleEvent, Message: "age has no event table", Age: age}
	}

	type candidate struct {
		event  *ir.Event
		weight float64
	}
	var candidates []candidate
	for _, entry := range entries {
		ev, ok := e.tables.Event(entry.EventID)
		if !ok {
			return nil, &RuntimeError{Code: ErrCodeUnknownEvent, Message: "age table names unknown event", Age: age, EventID: entry.EventID}
		}
		if ev.NoRandom {
			continue
		}
		excluded, err := ev.Exclude.Eval(e.env)
		if err != nil {
			return nil, conditionError(age, ev.ID, "event exclude", err)
		}
		if excluded {
			continue
		}
		included, err := ev.Include.Eval(e.env)
		if err != nil {
			return nil, conditionError(age, ev.ID, "event include", err)
		}
		if included {
			candidates = append(candidates, candidate{ev, entry.Weight})
		}
	}

	c, ok := Weighted(e.random(), candidates, func(c candidate) float64 { return c.weight })
	if !ok {
		return nil, &RuntimeError{Code: ErrCodeNoEligibleEvent, Message: "no candidate event", Age: age}
	}
	return c.event, nil
}

// applyEvent applies one chain step: life effect, age delta, fixed stat
// delta, then records the id in the lifetime, run and tick event sets.
func (e *Engine) applyEvent(ev *ir.Event) {
	e.alive = ev.Life.Apply(e.alive)
	e.stats.AddAge(ev.Age)
	e.stats.Apply(ev.Effect)
	e.statistics.Events.Add(ev.ID)
	e.runEvents.Add(ev.ID)
	e.tickEvents.Add(ev.ID)
	e.refresh()
}

// nextEvent returns the target of the first branch whose condition holds
// after ev was applied, or nil to end the chain.
func (e *Engine) nextEvent(ev *ir.Event) (*ir.Event, error) {
	for _, b := range ev.Branches {
		ok, err := b.Condition.Eval(e.env)
		if err != nil {
			return nil, conditionError(e.stats.Age(), ev.ID, "event branch", err)
		}
		if !ok {
			continue
		}
		next, found := e.tables.Event(b.EventID)
		if !found {
			return nil, &RuntimeError{Code: ErrCodeUnknownEvent, Message: "branch names unknown event", Age: e.stats.Age(), EventID: b.EventID}
		}
		return next, nil
	}
	return nil, nil
}
