package engine

import (
	"fmt"
	"slices"

	"github.com/roach88/relive/internal/ir"
)

// Record returns the run's replayable record: seed, selection, starting
// stats, the statistics snapshot taken at construction, every tick emitted
// so far and, once End was called, the summary.
func (e *Engine) Record() (*ir.RunRecord, error) {
	ticks := slices.Clone(e.ticks)
	if ticks == nil {
		ticks = []ir.TickRecord{}
	}
	digest, err := ir.TrajectoryDigest(ticks)
	if err != nil {
		return nil, fmt.Errorf("record run %s: %w", e.runID, err)
	}
	rec := &ir.RunRecord{
		ID:            e.runID,
		Seed:          e.seed,
		Selected:      ids(e.selected),
		Active:        ids(e.active),
		Start:         e.start,
		Before:        e.before.Clone(),
		Ticks:         ticks,
		Digest:        digest,
		TablesDigest:  e.tables.Digest,
		EngineVersion: ir.EngineVersion,
	}
	if e.summary != nil {
		rec.Summary = e.summary.Record()
	}
	return rec, nil
}

func ids(talents []*ir.Talent) []int {
	out := make([]int, len(talents))
	for i, t := range talents {
		out[i] = t.ID
	}
	return out
}
