package engine

import (
	"fmt"
	"slices"

	"github.com/roach88/relive/internal/config"
	"github.com/roach88/relive/internal/ir"
)

// DrawPool deals batches of talents for selection.
//
// Each batch opens with the pinned talents, then draws distinct talents by
// weighted rarity until the configured batch size. Drawn talents leave their
// rarity pool until ReturnBatch puts them back, so consecutive batches
// without a return never repeat a talent.
//
// Exclusive talents are never drawn. Pinned talents are shown in every batch
// and never drawn.
type DrawPool struct {
	pinned  []*ir.Talent
	pools   map[ir.Rarity][]*ir.Talent
	out     map[int]*ir.Talent // drawn and not yet returned
	weight  config.TalentWeight
	choices int
	rng     *Random
}

// NewDrawPool builds the pool for a player.
//
// Rarity weights are the configured weights scaled by the boosts the
// player's finished games and achievement count have earned. Unknown pinned
// ids are an error.
func NewDrawPool(tables *ir.Tables, cfg *config.Config, stats *ir.Statistics, rng *Random) (*DrawPool, error) {
	boost := config.BoostOne.
		Add(config.BoostFor(cfg.Talent.Boost.FinishedGames, stats.FinishedGames)).
		Add(config.BoostFor(cfg.Talent.Boost.Achievements, len(stats.Achievements)))

	p := &DrawPool{
		pools:   make(map[ir.Rarity][]*ir.Talent),
		out:     make(map[int]*ir.Talent),
		weight:  cfg.Talent.Weight.Mul(boost),
		choices: cfg.Talent.Choices,
		rng:     rng,
	}

	pinned := make(map[int]bool, len(cfg.Talent.Pinned))
	for _, id := range cfg.Talent.Pinned {
		t, ok := tables.Talent(id)
		if !ok {
			return nil, fmt.Errorf("pinned talent %d not found", id)
		}
		p.pinned = append(p.pinned, t)
		pinned[id] = true
	}
	for _, id := range tables.TalentIDs() {
		t := tables.Talents[id]
		if t.Exclusive || pinned[id] {
			continue
		}
		p.pools[t.Rarity] = append(p.pools[t.Rarity], t)
	}
	return p, nil
}

// Weight returns the boosted rarity weights.
func (p *DrawPool) Weight() config.TalentWeight { return p.weight }

// Remaining returns the number of talents that can still be drawn.
func (p *DrawPool) Remaining() int {
	n := 0
	for _, pool := range p.pools {
		n += len(pool)
	}
	return n
}

// NextBatch deals one batch. A batch is shorter than the configured size
// only when the pools run dry or every remaining tier weighs zero.
func (p *DrawPool) NextBatch() []*ir.Talent {
	batch := slices.Clone(p.pinned)
	for len(batch) < p.choices {
		var tiers []ir.Rarity
		for _, r := range ir.Rarities() {
			if len(p.pools[r]) > 0 {
				tiers = append(tiers, r)
			}
		}
		tier, ok := Weighted(p.rng, tiers, func(r ir.Rarity) float64 { return float64(p.weight.Of(r)) })
		if !ok {
			break
		}
		pool := p.pools[tier]
		i := p.rng.IntN(len(pool))
		t := pool[i]
		p.pools[tier] = slices.Delete(pool, i, i+1)
		p.out[t.ID] = t
		batch = append(batch, t)
	}
	return batch
}

// ReturnBatch puts the drawn talents of batch back into their pools.
// Pinned talents and talents this pool did not deal are ignored.
func (p *DrawPool) ReturnBatch(batch []*ir.Talent) {
	for _, t := range batch {
		if _, ok := p.out[t.ID]; !ok {
			continue
		}
		delete(p.out, t.ID)
		p.pools[t.Rarity] = append(p.pools[t.Rarity], t)
	}
}
