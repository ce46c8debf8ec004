package engine

// # Replay
//
// A run is a pure function of five inputs:
//
//	seed, selected talent ids, starting stats, statistics snapshot, tables
//
// The record stores the first four; the tables are supplied by the caller
// and identified by their digest. Replay rebuilds an engine from the record
// and runs it to completion, comparing tick by tick.
//
// Talent batches are dealt from a separate Random, so the engine stream
// starts at SetTalents and the record does not need the batches shown to
// the player.
//
// ## Divergence
//
// A divergence is the first tick whose id-only form differs from the
// recorded one. Divergence with equal TablesDigest means the engine changed;
// with differing TablesDigest the data changed.

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/roach88/relive/internal/config"
	"github.com/roach88/relive/internal/ir"
)

// ReplayResult reports how a replayed run compares to its record.
type ReplayResult struct {
	// Match is true when every tick and the summary, if recorded, agree.
	Match bool

	// Digest is the replayed trajectory digest; Expected the recorded one.
	Digest   string
	Expected string

	// DivergedAt is the index of the first differing tick, or -1.
	DivergedAt int

	// TablesChanged is true when the record was made from other tables.
	TablesChanged bool

	// Ticks is the number of replayed ticks.
	Ticks int

	// Err is the runtime error the replay stopped on, if any. A recorded run
	// that stopped on an error replays to the same error.
	Err error
}

// Replay re-runs rec against tables and cfg.
//
// The recorded statistics snapshot is cloned; the caller's statistics are
// never touched. An error is returned only when the record cannot be
// replayed at all.
func Replay(tables *ir.Tables, cfg *config.Config, rec *ir.RunRecord, opts ...Option) (*ReplayResult, error) {
	if rec.Before == nil {
		return nil, errors.New("replay: record has no statistics snapshot")
	}
	selected := make([]*ir.Talent, 0, len(rec.Selected))
	for _, id := range rec.Selected {
		t, ok := tables.Talent(id)
		if !ok {
			return nil, fmt.Errorf("replay: selected talent %d not found", id)
		}
		selected = append(selected, t)
	}

	opts = append([]Option{WithRunIDGenerator(NewFixedGenerator(rec.ID))}, opts...)
	e := New(tables, cfg, rec.Before.Clone(), opts...)
	seed := rec.Seed
	e.Seed(&seed)
	e.SetTalents(selected)
	e.SetStats(rec.Start.Charm, rec.Start.Intelligence, rec.Start.Strength, rec.Start.Money)
	e.start.Spirit = rec.Start.Spirit
	e.stats.Set(e.start)
	e.refresh()

	res := &ReplayResult{
		Expected:      rec.Digest,
		DivergedAt:    -1,
		TablesChanged: rec.TablesDigest != "" && rec.TablesDigest != tables.Digest,
	}
	for tick, err := range e.Progress() {
		if err != nil {
			res.Err = err
			break
		}
		i := res.Ticks
		res.Ticks++
		if res.DivergedAt >= 0 {
			continue
		}
		if i >= len(rec.Ticks) || !reflect.DeepEqual(tick.Record(), rec.Ticks[i]) {
			res.DivergedAt = i
		}
	}
	if res.DivergedAt < 0 && res.Ticks < len(rec.Ticks) {
		res.DivergedAt = res.Ticks
	}

	if res.Err == nil && rec.Summary != nil {
		sum, err := e.End()
		if err != nil {
			res.Err = err
		} else if !reflect.DeepEqual(sum.Record(), rec.Summary) && res.DivergedAt < 0 {
			res.DivergedAt = res.Ticks
		}
	}

	replayed, err := e.Record()
	if err != nil {
		return nil, err
	}
	res.Digest = replayed.Digest
	res.Match = res.DivergedAt < 0 && res.Digest == res.Expected
	return res, nil
}
