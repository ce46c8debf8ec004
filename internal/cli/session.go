package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/relive/internal/character"
	"github.com/roach88/relive/internal/config"
	"github.com/roach88/relive/internal/engine"
	"github.com/roach88/relive/internal/ir"
	"github.com/roach88/relive/internal/store"
)

// session is one interactive game: tables, persisted progress and the
// player's terminal.
type session struct {
	tables *ir.Tables
	cfg    *config.Config
	store  *store.Store
	stats  *ir.Statistics
	p      *Prompter
	r      *Renderer
	pause  bool
}

// openSession loads tables and the player's statistics.
func openSession(ctx context.Context, opts *RootOptions, dataDir, dbPath string, p *Prompter, r *Renderer) (*session, error) {
	tables, err := loadTables(dataDir)
	if err != nil {
		return nil, err
	}
	st, err := openStore(dbPath)
	if err != nil {
		return nil, err
	}
	stats, err := st.LoadStatistics(ctx)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load statistics", err)
	}
	return &session{tables: tables, cfg: opts.cfg(), store: st, stats: stats, p: p, r: r}, nil
}

func (s *session) Close() error { return s.store.Close() }

// seed asks for the run seed unless one was given and seeds eng.
func (s *session) seed(eng *engine.Engine, given *int64) (int64, error) {
	s.r.Header("New game")
	if given == nil {
		var err error
		given, err = s.p.Seed("Seed (blank for random): ")
		if err != nil {
			return 0, inputError(err)
		}
	}
	used := eng.Seed(given)
	s.p.Say("Seed: %d", used)
	return used, nil
}

// chooseTalents deals batches until the player picks a valid selection.
// The inherited talent, if any, is offered at index 0 of every batch.
func (s *session) chooseTalents(rng *engine.Random) ([]*ir.Talent, error) {
	pool, err := engine.NewDrawPool(s.tables, s.cfg, s.stats, rng)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to build talent pool", err)
	}
	var inherited *ir.Talent
	if id := s.stats.InheritedTalent; id != ir.NoInheritedTalent {
		inherited, _ = s.tables.Talent(id)
	}
	limit := s.cfg.Talent.Limit

	s.r.Header("Choose talents")
	for {
		batch := pool.NextBatch()
		choices, first := batch, 1
		if inherited != nil {
			choices, first = append([]*ir.Talent{inherited}, batch...), 0
		}
		last := len(choices) - 1 + first
		for i, t := range choices {
			s.r.TalentLine(fmt.Sprintf("%2d: ", i+first), t, 12)
		}

		prompt := fmt.Sprintf("Choose %d talents; blank for another batch: ", limit)
		if inherited != nil {
			prompt = fmt.Sprintf("Choose %d talents, 0 is inherited; blank for another batch: ", limit)
		}
		for {
			answer, err := s.p.Ask(prompt)
			if err != nil {
				return nil, inputError(err)
			}
			picks, err := parseInts(answer)
			if err != nil {
				s.p.Say("Numbers only: %v", err)
				continue
			}
			if len(picks) == 0 {
				break
			}
			talents, ok := make([]*ir.Talent, 0, len(picks)), true
			for _, n := range picks {
				if n < first || n > last {
					s.p.Say("Choose numbers between %d and %d", first, last)
					ok = false
					break
				}
				talents = append(talents, choices[n-first])
			}
			if !ok {
				continue
			}
			if err := character.CheckSelection(talents, limit); err != nil {
				s.problems(err)
				continue
			}
			return talents, nil
		}
		pool.ReturnBatch(batch)
	}
}

// allocate asks for the four allocated stats; blank allocates at random.
func (s *session) allocate(points int, rng *engine.Random) ([4]int, error) {
	lo, hi := s.cfg.Stat.Min, s.cfg.Stat.Max
	s.r.Header("Allocate attributes")
	s.p.Say("%d points to allocate", points)
	for {
		answer, err := s.p.Ask("Charm, intelligence, strength and money; blank for random: ")
		if err != nil {
			return [4]int{}, inputError(err)
		}
		vals, err := parseInts(answer)
		if err != nil {
			s.p.Say("Numbers only: %v", err)
			continue
		}
		if len(vals) == 0 {
			a := character.Allocate(rng, points, lo, hi)
			s.p.Say("CHR %d INT %d STR %d MNY %d", a[0], a[1], a[2], a[3])
			return a, nil
		}
		if len(vals) != 4 {
			s.p.Say("Enter exactly 4 numbers")
			continue
		}
		a := [4]int(vals)
		if err := character.CheckAllocation(a, points, lo, hi); err != nil {
			s.problems(err)
			continue
		}
		return a, nil
	}
}

func (s *session) problems(err error) {
	var sel *character.SelectionError
	if errors.As(err, &sel) {
		for _, msg := range sel.Problems {
			s.p.Say("%s", msg)
		}
		return
	}
	s.p.Say("%v", err)
}

// live plays the run to its end, then scores and saves it. With pause set
// the player presses Enter after every year; the end of input stops
// pausing without abandoning the run.
func (s *session) live(ctx context.Context, eng *engine.Engine) (*ir.RunRecord, error) {
	for tick, err := range eng.Progress() {
		if err != nil {
			return nil, WrapExitError(ExitFailure, "run failed", err)
		}
		s.r.Tick(tick)
		if s.pause {
			if _, err := s.p.Ask(""); err != nil {
				s.pause = false
			}
		}
	}
	return finish(ctx, eng, s.store, s.r)
}

// finish ends the run, renders its summary when r is set and commits the
// record with the updated statistics when st is set.
func finish(ctx context.Context, eng *engine.Engine, st *store.Store, r *Renderer) (*ir.RunRecord, error) {
	summary, err := eng.End()
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to end run", err)
	}
	if r != nil {
		r.Summary(summary)
	}
	rec, err := eng.Record()
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to record run", err)
	}
	if st != nil {
		if err := st.CommitRun(ctx, rec, eng.Statistics()); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to save run", err)
		}
		slog.Info("run saved", "run_id", rec.ID, "seq", rec.Seq, "overall", rec.Summary.Overall)
	}
	return rec, nil
}
