// Package character prepares the starting setup of a run: unique character
// generation, celebrity offers, talent selection checks and stat
// allocation.
package character

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/relive/internal/config"
	"github.com/roach88/relive/internal/engine"
	"github.com/roach88/relive/internal/ir"
)

// ErrUniqueExists is returned when a player who already has a unique
// character tries to create another.
var ErrUniqueExists = errors.New("unique character already created")

// Generate derives a character from seed. The same seed and tables always
// give the same character.
//
// The talent count is drawn from cfg.TalentCountWeights, the talents are a
// uniform sample of non-exclusive talents that never pairs two incompatible
// ones, and each of the four stats is an independent draw from
// cfg.StatWeights.
func Generate(tables *ir.Tables, cfg config.CharacterConfig, seed int64, name string) (*ir.Character, error) {
	rng := engine.NewRandom(seed)
	if name == "" {
		name = cfg.DefaultName
	}

	count, ok := engine.Weighted(rng, cfg.TalentCountWeights, valueWeight)
	if !ok {
		return nil, fmt.Errorf("generate character: talent count weights are empty")
	}
	var pool []*ir.Talent
	for _, id := range tables.TalentIDs() {
		if t := tables.Talents[id]; !t.Exclusive {
			pool = append(pool, t)
		}
	}
	picked := sampleCompatible(rng, pool, count.Value)
	if len(picked) < count.Value {
		return nil, fmt.Errorf("generate character: %d talents requested, %d compatible available", count.Value, len(picked))
	}
	talents := make([]int, len(picked))
	for i, t := range picked {
		talents[i] = t.ID
	}

	var stats [4]int
	for i := range stats {
		v, ok := engine.Weighted(rng, cfg.StatWeights, valueWeight)
		if !ok {
			return nil, fmt.Errorf("generate character: stat weights are empty")
		}
		stats[i] = v.Value
	}

	return &ir.Character{
		Seed:         seed,
		Name:         name,
		Talents:      talents,
		Charm:        stats[0],
		Intelligence: stats[1],
		Strength:     stats[2],
		Money:        stats[3],
	}, nil
}

// CreateUnique generates the player's one-time unique character and stores
// it in stats. A nil seed derives one.
func CreateUnique(tables *ir.Tables, cfg config.CharacterConfig, stats *ir.Statistics, seed *int64, name string) (*ir.Character, error) {
	if stats.Unique != nil {
		return nil, ErrUniqueExists
	}
	s := engine.DeriveSeed()
	if seed != nil {
		s = *seed
	}
	c, err := Generate(tables, cfg, s, name)
	if err != nil {
		return nil, err
	}
	stats.Unique = c
	return c, nil
}

func valueWeight(v config.ValueWeight) float64 { return v.Weight }

// Sample returns k distinct elements of items in random order. items is not
// modified.
func Sample[T any](rng *engine.Random, items []T, k int) []T {
	pool := slices.Clone(items)
	k = min(k, len(pool))
	for i := range k {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k:k]
}

// sampleCompatible draws up to k talents uniformly without repetition,
// dropping any candidate incompatible with one already picked.
func sampleCompatible(rng *engine.Random, pool []*ir.Talent, k int) []*ir.Talent {
	rest := slices.Clone(pool)
	var picked []*ir.Talent
	for len(picked) < k && len(rest) > 0 {
		i := rng.IntN(len(rest))
		t := rest[i]
		rest = slices.Delete(rest, i, i+1)
		if !slices.ContainsFunc(picked, t.IncompatibleWith) {
			picked = append(picked, t)
		}
	}
	return picked
}

// Offer returns n celebrities drawn without repetition.
func Offer(rng *engine.Random, roster []*ir.Character, n int) []*ir.Character {
	return Sample(rng, roster, n)
}
