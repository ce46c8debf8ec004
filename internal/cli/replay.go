package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/relive/internal/engine"
	"github.com/roach88/relive/internal/ir"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	All      bool
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID         string `json:"run_id"`
	Match         bool   `json:"match"`
	Ticks         int    `json:"ticks"`
	DivergedAt    int    `json:"diverged_at"`
	TablesChanged bool   `json:"tables_changed"`
	Digest        string `json:"digest"`
	Expected      string `json:"expected"`
	Error         string `json:"error,omitempty"`
}

// ReplayReport holds the overall replay result.
type ReplayReport struct {
	Runs     []ReplayRunResult `json:"runs"`
	Total    int               `json:"total"`
	AllMatch bool              `json:"all_match"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <data-dir> [run-id]",
		Short: "Re-run stored runs and verify determinism",
		Long: `Re-run stored runs against the tables and compare every tick.

A run replays from its seed, selected talents, starting stats and the
statistics snapshot taken when it started. Without a run id the latest
run is replayed; --all replays every stored run.

Exit codes:
  0 - Every replayed run matches its record
  1 - At least one run diverged
  2 - Command error (database not found, run not found, etc.)

Examples:
  relive replay ./data --db ./relive.db
  relive replay ./data --db ./relive.db --all --format json`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 2 {
				id = args[1]
			}
			return runReplay(cmd, opts, args[0], id)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().BoolVar(&opts.All, "all", false, "replay every stored run")

	return cmd
}

func runReplay(cmd *cobra.Command, opts *ReplayOptions, dataDir, id string) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.All && id != "" {
		return NewExitError(ExitCommandError, "--all cannot be combined with a run id")
	}

	tables, err := loadTables(dataDir)
	if err != nil {
		return err
	}
	st, err := openStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	var records []*ir.RunRecord
	if opts.All {
		infos, err := st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		for _, info := range infos {
			rec, err := readRun(ctx, st, info.ID)
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
	} else {
		rec, err := readRun(ctx, st, id)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}

	report := ReplayReport{Runs: make([]ReplayRunResult, 0, len(records)), Total: len(records), AllMatch: true}
	for _, rec := range records {
		formatter.VerboseLog("replaying %s (%d ticks)", rec.ID, len(rec.Ticks))
		res, err := engine.Replay(tables, opts.cfg(), rec)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", rec.ID), err)
		}
		r := ReplayRunResult{
			RunID:         rec.ID,
			Match:         res.Match,
			Ticks:         res.Ticks,
			DivergedAt:    res.DivergedAt,
			TablesChanged: res.TablesChanged,
			Digest:        res.Digest,
			Expected:      res.Expected,
		}
		if res.Err != nil {
			r.Error = res.Err.Error()
		}
		report.Runs = append(report.Runs, r)
		if !res.Match {
			report.AllMatch = false
		}
	}

	if err := formatter.Emit(report, func(w io.Writer) { writeReplay(w, report, opts.Verbose) }); err != nil {
		return err
	}
	if !report.AllMatch {
		return NewExitError(ExitFailure, "replay diverged from the stored record")
	}
	return nil
}

func writeReplay(w io.Writer, report ReplayReport, verbose bool) {
	if report.Total == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return
	}
	for _, r := range report.Runs {
		status := "✓"
		if !r.Match {
			status = "✗"
		}
		fmt.Fprintf(w, "%s %s  %d ticks\n", status, r.RunID, r.Ticks)
		if !r.Match {
			fmt.Fprintf(w, "    diverged at tick %d\n", r.DivergedAt)
			if r.TablesChanged {
				fmt.Fprintln(w, "    tables changed since the run was recorded")
			}
		}
		if r.Error != "" {
			fmt.Fprintf(w, "    stopped on: %s\n", r.Error)
		}
		if verbose {
			fmt.Fprintf(w, "    digest   %s\n    expected %s\n", r.Digest, r.Expected)
		}
	}
	matched := 0
	for _, r := range report.Runs {
		if r.Match {
			matched++
		}
	}
	fmt.Fprintf(w, "\n%d/%d runs match\n", matched, report.Total)
}
