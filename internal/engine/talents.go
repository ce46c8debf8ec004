package engine

import (
	"log/slog"
	"slices"

	"github.com/roach88/relive/internal/ir"
)

// replaceTalents applies replacement rules to a selection in order.
//
// Each replacement is chosen against the working list as it stands, so a
// later talent sees earlier substitutions. Every selected and every
// substituted id joins the lifetime talent set.
func (e *Engine) replaceTalents(selected []*ir.Talent) []*ir.Talent {
	working := slices.Clone(selected)
	for i, t := range selected {
		e.statistics.Talents.Add(t.ID)
		r := e.replacementFor(t, working)
		if r == nil {
			continue
		}
		slog.Debug("talent replaced", "run_id", e.runID, "talent", t.ID, "replacement", r.ID)
		e.statistics.Talents.Add(r.ID)
		working[i] = r
	}
	return working
}

// replacementFor draws the substitute of t, or nil when t has no rule or no
// candidate qualifies. A candidate may not be any working talent nor be
// incompatible with one.
func (e *Engine) replacementFor(t *ir.Talent, working []*ir.Talent) *ir.Talent {
	if t.Replace == nil {
		return nil
	}
	fits := func(c *ir.Talent) bool {
		for _, w := range working {
			if c == w || c.ID == w.ID || c.IncompatibleWith(w) {
				return false
			}
		}
		return true
	}
	rng := e.random()

	switch t.Replace.Kind {
	case ir.ReplaceByRarity:
		pools := make(map[ir.Rarity][]*ir.Talent, len(t.Replace.Rarities))
		for _, id := range e.tables.TalentIDs() {
			c := e.tables.Talents[id]
			if c.Exclusive || !fits(c) {
				continue
			}
			for _, rw := range t.Replace.Rarities {
				if rw.Rarity == c.Rarity {
					pools[c.Rarity] = append(pools[c.Rarity], c)
					break
				}
			}
		}
		var tiers []ir.RarityWeight
		for _, rw := range t.Replace.Rarities {
			if len(pools[rw.Rarity]) > 0 {
				tiers = append(tiers, rw)
			}
		}
		tier, ok := Weighted(rng, tiers, func(rw ir.RarityWeight) float64 { return rw.Weight })
		if !ok {
			return nil
		}
		c, _ := Pick(rng, pools[tier.Rarity])
		return c

	case ir.ReplaceByTalent:
		var candidates []*ir.Talent
		var weights []float64
		for _, iw := range t.Replace.Talents {
			c, ok := e.tables.Talent(iw.ID)
			if !ok || !fits(c) {
				continue
			}
			candidates = append(candidates, c)
			weights = append(weights, iw.Weight)
		}
		idx := make([]int, len(candidates))
		for i := range idx {
			idx[i] = i
		}
		i, ok := Weighted(rng, idx, func(i int) float64 { return weights[i] })
		if !ok {
			return nil
		}
		return candidates[i]
	}
	return nil
}

// executeTalents fires every active talent whose counter is below its
// limit and whose condition holds, in active order. The Env is rebuilt
// after each firing, so a later talent sees the earlier one's effect.
func (e *Engine) executeTalents() ([]*ir.Talent, error) {
	fired := []*ir.Talent{}
	for _, t := range e.active {
		if e.executed[t.ID] >= t.MaxExecute {
			continue
		}
		ok, err := t.Condition.Eval(e.env)
		if err != nil {
			return nil, conditionError(e.stats.Age(), 0, "talent condition", err)
		}
		if !ok {
			continue
		}
		e.applyEffect(t.Effect, t.Random)
		e.executed[t.ID]++
		e.refresh()
		fired = append(fired, t)
	}
	return fired, nil
}

// applyEffect adds a fixed delta plus a random pool split across all five
// stats.
func (e *Engine) applyEffect(delta ir.Stats, pool int) {
	if pool != 0 {
		delta = delta.Add(ir.StatsOf(SplitPool(e.random(), pool)))
	}
	e.stats.Apply(delta)
}
