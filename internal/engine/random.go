package engine

import (
	"math/rand/v2"
)

// Random is the engine's single source of randomness.
//
// Every random decision of a run (replacement draws, pool splits, event
// draws) is taken from one Random, so a seed fixes the whole trajectory.
// Random is not safe for concurrent use.
type Random struct {
	r *rand.Rand
}

// NewRandom returns a deterministic stream for seed.
func NewRandom(seed int64) *Random {
	s := uint64(seed)
	return &Random{r: rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))}
}

// DeriveSeed returns a fresh 32-bit seed from the process-wide generator.
func DeriveSeed() int64 {
	return int64(rand.Uint32())
}

// IntRange returns a uniform integer in [lo, hi]. hi < lo yields lo.
func (r *Random) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.r.IntN(hi-lo+1)
}

// IntN returns a uniform integer in [0, n).
func (r *Random) IntN(n int) int {
	return r.r.IntN(n)
}

// Float64 returns a uniform float in [0, 1).
func (r *Random) Float64() float64 {
	return r.r.Float64()
}

// Pick returns a uniformly chosen element, or false for an empty slice.
func Pick[T any](r *Random, items []T) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	return items[r.IntN(len(items))], true
}

// Weighted returns an element chosen with probability proportional to its
// weight. Non-positive weights are never chosen. It returns false when no
// element has a positive weight.
func Weighted[T any](r *Random, items []T, weight func(T) float64) (T, bool) {
	var zero T
	total := 0.0
	for _, it := range items {
		if w := weight(it); w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return zero, false
	}
	x := r.Float64() * total
	last := -1
	for i, it := range items {
		w := weight(it)
		if w <= 0 {
			continue
		}
		last = i
		if x < w {
			return it, true
		}
		x -= w
	}
	// Rounding left x at the very end of the range.
	return items[last], true
}

// SplitPool divides a random pool across the five stats in order charm,
// intelligence, strength, money, spirit. Each share is drawn uniformly from
// what the earlier shares left; whatever the fifth draw leaves is dropped.
func SplitPool(r *Random, pool int) [5]int {
	var out [5]int
	if pool <= 0 {
		return out
	}
	remaining := pool
	for i := range out {
		v := r.IntRange(0, remaining)
		out[i] = v
		remaining -= v
	}
	return out
}
