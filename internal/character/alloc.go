package character

import (
	"github.com/roach88/relive/internal/engine"
)

// Allocate distributes points over the four allocatable stats (charm,
// intelligence, strength, money). Every stat starts at lo and each point
// goes to a random stat still below hi. Points that fit nowhere are left
// unallocated.
func Allocate(rng *engine.Random, points, lo, hi int) [4]int {
	stats := [4]int{lo, lo, lo, lo}
	open := make([]int, 0, len(stats))
	for range points {
		open = open[:0]
		for i, v := range stats {
			if v < hi {
				open = append(open, i)
			}
		}
		i, ok := engine.Pick(rng, open)
		if !ok {
			break
		}
		stats[i]++
	}
	return stats
}
