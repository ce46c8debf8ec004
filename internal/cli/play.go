package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/relive/internal/engine"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Database string
	Seed     int64
	NoPause  bool
}

// NewPlayCommand creates the classic interactive game.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play <data-dir>",
		Short: "Play a classic game",
		Long: `Play a classic game interactively.

Choose talents from drawn batches, allocate attribute points and live
year by year. The first chosen talent is offered again next game.
Progress and the finished run are saved to the database.

Examples:
  relive play ./data --db ./relive.db
  relive play ./data --db ./relive.db --seed 42 --no-pause`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var seed *int64
			if cmd.Flags().Changed("seed") {
				seed = &opts.Seed
			}
			return runPlay(cmd, opts, args[0], seed)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "run seed (prompted when omitted)")
	cmd.Flags().BoolVar(&opts.NoPause, "no-pause", false, "do not wait for Enter after each year")

	return cmd
}

func runPlay(cmd *cobra.Command, opts *PlayOptions, dataDir string, seed *int64) error {
	ctx := context.Background()
	out := cmd.OutOrStdout()
	s, err := openSession(ctx, opts.RootOptions, dataDir, opts.Database,
		NewPrompter(cmd.InOrStdin(), out), opts.renderer(out))
	if err != nil {
		return err
	}
	defer s.Close()
	s.pause = !opts.NoPause

	eng := engine.New(s.tables, s.cfg, s.stats)
	used, err := s.seed(eng, seed)
	if err != nil {
		return err
	}

	selected, err := s.chooseTalents(engine.NewRandom(used))
	if err != nil {
		return err
	}
	s.stats.InheritedTalent = selected[0].ID
	active := eng.SetTalents(selected)
	s.r.Talents(selected, active)

	a, err := s.allocate(eng.Points(), engine.NewRandom(used))
	if err != nil {
		return err
	}
	eng.SetStats(a[0], a[1], a[2], a[3])

	_, err = s.live(ctx, eng)
	return err
}
