package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/relive/internal/ir"
	"github.com/roach88/relive/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Data     string // optional - names instead of ids
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [run-id]",
		Short: "Show the year-by-year record of a run",
		Long: `Show a stored run tick by tick.

Without a run id the latest run is shown. With --data the talents,
events and achievements are shown by name; ids missing from the tables
are shown as ids.

Examples:
  relive trace --db ./relive.db
  relive trace 0191c6b2-... --db ./relive.db --data ./data
  relive trace --db ./relive.db --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return runTrace(cmd, opts, id)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Data, "data", "", "table directory for names")

	return cmd
}

func runTrace(cmd *cobra.Command, opts *TraceOptions, id string) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := openStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := readRun(ctx, st, id)
	if err != nil {
		return err
	}

	var tables *ir.Tables
	if opts.Data != "" {
		if tables, err = loadTables(opts.Data); err != nil {
			return err
		}
	}

	return formatter.Emit(rec, func(w io.Writer) {
		writeTrace(w, rec, namer{tables})
	})
}

// readRun reads the run with id, or the latest run when id is empty.
func readRun(ctx context.Context, st *store.Store, id string) (*ir.RunRecord, error) {
	var rec *ir.RunRecord
	var err error
	if id == "" {
		rec, err = st.LatestRun(ctx)
	} else {
		rec, err = st.ReadRun(ctx, id)
	}
	if errors.Is(err, store.ErrRunNotFound) {
		if id == "" {
			return nil, WrapExitError(ExitCommandError, "no runs stored", err)
		}
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("run %s not found", id), err)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read run", err)
	}
	return rec, nil
}

// namer resolves ids to names when tables are loaded.
type namer struct{ tables *ir.Tables }

func (n namer) talent(id int) string {
	if n.tables != nil {
		if t, ok := n.tables.Talent(id); ok {
			return name(t.Name)
		}
	}
	return fmt.Sprintf("#%d", id)
}

func (n namer) event(id int) string {
	if n.tables != nil {
		if e, ok := n.tables.Event(id); ok {
			return e.Text
		}
	}
	return fmt.Sprintf("#%d", id)
}

func (n namer) achievement(id int) string {
	if n.tables != nil {
		if a, ok := n.tables.Achievement(id); ok {
			return name(a.Name)
		}
	}
	return fmt.Sprintf("#%d", id)
}

func (n namer) talents(ids []int) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = n.talent(id)
	}
	return strings.Join(names, ", ")
}

func writeTrace(w io.Writer, rec *ir.RunRecord, n namer) {
	fmt.Fprintf(w, "Run:      %s (seq %d)\n", rec.ID, rec.Seq)
	fmt.Fprintf(w, "Seed:     %d\n", rec.Seed)
	fmt.Fprintf(w, "Selected: %s\n", n.talents(rec.Selected))
	fmt.Fprintf(w, "Active:   %s\n", n.talents(rec.Active))
	s := rec.Start
	fmt.Fprintf(w, "Start:    CHR %d INT %d STR %d MNY %d SPR %d\n", s.Charm, s.Intelligence, s.Strength, s.Money, s.Spirit)
	fmt.Fprintln(w)

	for _, t := range rec.Ticks {
		label := fmt.Sprintf("%3d", t.Age)
		if t.Age < 0 {
			label = "  -"
		}
		for _, id := range t.Talents {
			fmt.Fprintf(w, "%s  talent %s\n", label, n.talent(id))
		}
		for _, e := range t.Events {
			arrow := ""
			if e.HasNext {
				arrow = " ->"
			}
			fmt.Fprintf(w, "%s  %s%s\n", label, n.event(e.ID), arrow)
		}
		for _, id := range t.Achievements {
			fmt.Fprintf(w, "%s  achievement %s\n", label, n.achievement(id))
		}
	}

	fmt.Fprintln(w)
	if rec.Summary == nil {
		fmt.Fprintf(w, "Not ended (%d ticks)\n", len(rec.Ticks))
		return
	}
	sum := rec.Summary
	fmt.Fprintf(w, "Died at %d, overall %d\n", sum.MaxAge, sum.Overall)
	for _, g := range sum.Grades {
		fmt.Fprintf(w, "  %-13s %4d  %s\n", g.Quantity, g.Value, g.Label)
	}
	for _, id := range sum.Achievements {
		fmt.Fprintf(w, "  achievement %s\n", n.achievement(id))
	}
	fmt.Fprintf(w, "Digest:   %s\n", rec.Digest)
}
