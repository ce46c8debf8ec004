package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/relive/internal/character"
	"github.com/roach88/relive/internal/config"
	"github.com/roach88/relive/internal/engine"
	"github.com/roach88/relive/internal/ir"
	"github.com/roach88/relive/internal/store"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	Database string
	Seed     int64
	Talents  []int
	Stats    []int
	Quiet    bool
}

// NewSimulateCommand creates the non-interactive run command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate <data-dir>",
		Short: "Run one game without prompts",
		Long: `Run one game from flags alone.

Talents not given are picked from the first drawn batch; stats not given
are allocated at random. With --db the run and the updated statistics are
saved, otherwise the game starts from a fresh player and nothing is kept.

Exit codes:
  0 - Run finished
  1 - Run stopped on a runtime error
  2 - Command error (bad flags, invalid tables, etc.)

Examples:
  relive simulate ./data --seed 42
  relive simulate ./data --seed 42 --talents 1001,1002,1003 --stats 5,5,5,5
  relive simulate ./data --db ./relive.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var seed *int64
			if cmd.Flags().Changed("seed") {
				seed = &opts.Seed
			}
			return runSimulate(cmd, opts, args[0], seed)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (optional)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "run seed (derived when omitted)")
	cmd.Flags().IntSliceVar(&opts.Talents, "talents", nil, "selected talent ids")
	cmd.Flags().IntSliceVar(&opts.Stats, "stats", nil, "charm,intelligence,strength,money")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "print the summary only")

	return cmd
}

func runSimulate(cmd *cobra.Command, opts *SimulateOptions, dataDir string, seed *int64) error {
	ctx := context.Background()
	cfg := opts.cfg()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if len(opts.Stats) != 0 && len(opts.Stats) != 4 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--stats takes 4 values, got %d", len(opts.Stats)))
	}

	tables, err := loadTables(dataDir)
	if err != nil {
		return err
	}

	var st *store.Store
	stats := ir.NewStatistics()
	if opts.Database != "" {
		if st, err = openStore(opts.Database); err != nil {
			return err
		}
		defer st.Close()
		if stats, err = st.LoadStatistics(ctx); err != nil {
			return WrapExitError(ExitCommandError, "failed to load statistics", err)
		}
	}

	eng := engine.New(tables, cfg, stats)
	used := eng.Seed(seed)
	formatter.VerboseLog("run %s seed %d", eng.ID(), used)

	selected, err := selectTalents(tables, cfg, stats, used, opts.Talents)
	if err != nil {
		return err
	}
	stats.InheritedTalent = selected[0].ID
	eng.SetTalents(selected)

	var alloc [4]int
	if len(opts.Stats) == 4 {
		alloc = [4]int(opts.Stats)
		if err := character.CheckAllocation(alloc, eng.Points(), cfg.Stat.Min, cfg.Stat.Max); err != nil {
			return WrapExitError(ExitCommandError, "invalid --stats", err)
		}
	} else {
		alloc = character.Allocate(engine.NewRandom(used), eng.Points(), cfg.Stat.Min, cfg.Stat.Max)
	}
	eng.SetStats(alloc[0], alloc[1], alloc[2], alloc[3])

	var text *Renderer
	if !formatter.JSON() {
		text = opts.renderer(cmd.OutOrStdout())
		text.Header(fmt.Sprintf("Run %s (seed %d)", eng.ID(), used))
		text.Talents(eng.Selected(), eng.Active())
	}

	var runErr error
	for tick, err := range eng.Progress() {
		if err != nil {
			runErr = err
			break
		}
		if text != nil && !opts.Quiet {
			text.Tick(tick)
		}
	}

	rec, err := finish(ctx, eng, st, text)
	if err != nil {
		return err
	}
	if err := formatter.Emit(rec, func(io.Writer) {}); err != nil {
		return err
	}
	if runErr != nil {
		return WrapExitError(ExitFailure, "run stopped", runErr)
	}
	return nil
}

// selectTalents resolves explicit talent ids, or picks the first compatible
// talents of one drawn batch.
func selectTalents(tables *ir.Tables, cfg *config.Config, stats *ir.Statistics, seed int64, ids []int) ([]*ir.Talent, error) {
	if len(ids) > 0 {
		talents := make([]*ir.Talent, 0, len(ids))
		for _, id := range ids {
			t, ok := tables.Talent(id)
			if !ok {
				return nil, NewExitError(ExitCommandError, fmt.Sprintf("unknown talent %d", id))
			}
			talents = append(talents, t)
		}
		if err := character.CheckSelection(talents, cfg.Talent.Limit); err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid --talents", err)
		}
		return talents, nil
	}

	pool, err := engine.NewDrawPool(tables, cfg, stats, engine.NewRandom(seed))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to build talent pool", err)
	}
	var picked []*ir.Talent
	for _, t := range pool.NextBatch() {
		if len(picked) == cfg.Talent.Limit {
			break
		}
		if compatible(t, picked) {
			picked = append(picked, t)
		}
	}
	if len(picked) == 0 {
		return nil, NewExitError(ExitCommandError, "no talents to draw")
	}
	return picked, nil
}

func compatible(t *ir.Talent, picked []*ir.Talent) bool {
	for _, p := range picked {
		if p.IncompatibleWith(t) {
			return false
		}
	}
	return true
}
