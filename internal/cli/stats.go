package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/relive/internal/engine"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	Database string
}

// StatsResult is the JSON form of the statistics screen.
type StatsResult struct {
	FinishedGames   int           `json:"finished_games"`
	InheritedTalent int           `json:"inherited_talent"`
	Achievements    []int         `json:"achievements"`
	Judgments       []JudgmentRow `json:"judgments"`
}

// JudgmentRow is one judged quantity.
type JudgmentRow struct {
	Quantity string `json:"quantity"`
	Value    int    `json:"value"`
	Label    string `json:"label"`
}

// NewStatsCommand creates the achievements and statistics screen.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats <data-dir>",
		Short: "Show achievements and lifetime statistics",
		Long: `Show every achievement with its unlock state and judge the
player's lifetime statistics: finished games, achievements unlocked and
the share of events and talents discovered.

Examples:
  relive stats ./data --db ./relive.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runStats(cmd *cobra.Command, opts *StatsOptions, dataDir string) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	tables, err := loadTables(dataDir)
	if err != nil {
		return err
	}
	st, err := openStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.LoadStatistics(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load statistics", err)
	}
	report := engine.JudgeStatistics(stats, tables, opts.cfg())

	result := StatsResult{
		FinishedGames:   stats.FinishedGames,
		InheritedTalent: stats.InheritedTalent,
		Achievements:    stats.Achievements.Sorted(),
	}
	for _, j := range report.Judgments() {
		result.Judgments = append(result.Judgments, JudgmentRow{j.Quantity, j.Value, j.Grade.Label})
	}

	return formatter.Emit(result, func(w io.Writer) {
		opts.renderer(w).Statistics(stats, tables, report)
	})
}
