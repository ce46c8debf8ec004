package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/relive/internal/condition"
	"github.com/roach88/relive/internal/ir"
	"github.com/roach88/relive/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
	Where    string
}

// RunRow is one listed run.
type RunRow struct {
	Seq      int64  `json:"seq"`
	ID       string `json:"id"`
	Seed     int64  `json:"seed"`
	Selected []int  `json:"selected"`
	MaxAge   *int   `json:"max_age"`
	Overall  *int   `json:"overall"`
	Ticks    int    `json:"ticks"`
}

// NewRunsCommand creates the runs listing command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs",
		Long: `List stored runs in the order they were played.

--where filters runs with a condition evaluated against the end of each
run. Bound variables: AGE HAGE CHR INT STR MNY SPR and their H/L
variants, TLT (active talents), EVT (every event seen), AACH and ACHV
(lifetime achievements, as of the end of the run), SUM (overall score).

Examples:
  relive runs --db ./relive.db
  relive runs --db ./relive.db --where "HAGE>90&EVT?[10001]"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Where, "where", "", "condition runs must satisfy")

	return cmd
}

func runRuns(cmd *cobra.Command, opts *RunsOptions) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	var where condition.Expr
	if opts.Where != "" {
		var err error
		if where, err = condition.Parse(opts.Where); err != nil {
			return WrapExitError(ExitCommandError, "invalid --where", err)
		}
	}

	st, err := openStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	filter := store.CompileRunFilter(where)
	if where != nil {
		formatter.VerboseLog("where %s; prefilter %q", condition.Format(where), filter.Where)
	}
	infos, err := st.FindRuns(ctx, filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	rows := make([]RunRow, 0, len(infos))
	for _, info := range infos {
		if where != nil {
			ok, err := matchRun(ctx, st, info.ID, where)
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("cannot evaluate --where on run %s", info.ID), err)
			}
			if !ok {
				continue
			}
		}
		rows = append(rows, RunRow{
			Seq:      info.Seq,
			ID:       info.ID,
			Seed:     info.Seed,
			Selected: info.Selected,
			MaxAge:   info.MaxAge,
			Overall:  info.Overall,
			Ticks:    info.Ticks,
		})
	}

	return formatter.Emit(rows, func(w io.Writer) {
		if len(rows) == 0 {
			fmt.Fprintln(w, "No runs found.")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SEQ\tRUN\tSEED\tTALENTS\tAGE\tOVERALL")
		for _, r := range rows {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%v\t%s\t%s\n", r.Seq, r.ID, r.Seed, r.Selected, optInt(r.MaxAge), optInt(r.Overall))
		}
		tw.Flush()
	})
}

func matchRun(ctx context.Context, st *store.Store, id string, where condition.Expr) (bool, error) {
	rec, err := st.ReadRun(ctx, id)
	if err != nil {
		return false, err
	}
	env, err := RunEnv(rec)
	if err != nil {
		return false, err
	}
	return where.Eval(env)
}

// RunEnv binds the end state of a stored run. Extrema start from the
// starting stats; maxima come from the summary once the run has ended.
// Minima are rebuilt from tick snapshots, so a dip undone within one tick
// is not seen. AACH and ACHV count lifetime achievements as the engine does.
// Variables that need the full statistics of the time, such as ATLT, are not
// bound.
func RunEnv(rec *ir.RunRecord) (condition.Env, error) {
	final, ok := rec.Final()
	if !ok {
		return condition.Env{}, fmt.Errorf("run %s has no ticks", rec.ID)
	}
	h, l := rec.Start.Slice(), rec.Start.Slice()
	events, achievements := ir.IDSet{}, ir.IDSet{}
	if rec.Before != nil {
		for id := range rec.Before.Achievements {
			achievements.Add(id)
		}
	}
	for _, t := range rec.Ticks {
		v := t.Stats.Slice()
		for i := range v {
			h[i], l[i] = max(h[i], v[i]), min(l[i], v[i])
		}
		for _, e := range t.Events {
			events.Add(e.ID)
		}
		for _, a := range t.Achievements {
			achievements.Add(a)
		}
	}
	hi, lo := ir.StatsOf(h), ir.StatsOf(l)
	maxAge := final.Age
	if s := rec.Summary; s != nil {
		maxAge, hi = s.MaxAge, s.Max
		for _, a := range s.Achievements {
			achievements.Add(a)
		}
	}

	vars := map[string]condition.Value{
		ir.VarAge:    condition.Int(final.Age),
		ir.VarCharm:  condition.Int(final.Stats.Charm),
		ir.VarIntel:  condition.Int(final.Stats.Intelligence),
		ir.VarStr:    condition.Int(final.Stats.Strength),
		ir.VarMoney:  condition.Int(final.Stats.Money),
		ir.VarSpirit: condition.Int(final.Stats.Spirit),

		ir.VarMaxAge:    condition.Int(maxAge),
		ir.VarMaxCharm:  condition.Int(hi.Charm),
		ir.VarMaxIntel:  condition.Int(hi.Intelligence),
		ir.VarMaxStr:    condition.Int(hi.Strength),
		ir.VarMaxMoney:  condition.Int(hi.Money),
		ir.VarMaxSpirit: condition.Int(hi.Spirit),

		ir.VarMinCharm:  condition.Int(lo.Charm),
		ir.VarMinIntel:  condition.Int(lo.Intelligence),
		ir.VarMinStr:    condition.Int(lo.Strength),
		ir.VarMinMoney:  condition.Int(lo.Money),
		ir.VarMinSpirit: condition.Int(lo.Spirit),

		ir.VarAllAchievements: condition.SetOf(achievements),
		ir.VarAchieveCount:    condition.Int(len(achievements)),
		ir.VarTalents:         condition.Set(rec.Active...),
		ir.VarRunEvents:       condition.SetOf(events),
	}
	if s := rec.Summary; s != nil {
		vars[ir.VarOverall] = condition.Int(s.Overall)
	}
	return condition.NewEnv(vars), nil
}

func optInt(p *int) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprint(*p)
}
