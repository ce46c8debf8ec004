package cli

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/relive/internal/character"
	"github.com/roach88/relive/internal/engine"
	"github.com/roach88/relive/internal/ir"
)

// CharacterOptions holds flags for the character command.
type CharacterOptions struct {
	*RootOptions
	Database string
	Seed     int64
	NoPause  bool
}

// NewCharacterCommand creates the celebrity game.
func NewCharacterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CharacterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "character <data-dir>",
		Short: "Live the life of a prepared character",
		Long: `Play as a celebrity from the data set or as your unique character.

Option 0 is your unique character. The first time it is chosen the
character is generated from a seed you enter and kept for every later
game. A blank answer offers other celebrities.

Examples:
  relive character ./data --db ./relive.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var seed *int64
			if cmd.Flags().Changed("seed") {
				seed = &opts.Seed
			}
			return runCharacter(cmd, opts, args[0], seed)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "run seed (prompted when omitted)")
	cmd.Flags().BoolVar(&opts.NoPause, "no-pause", false, "do not wait for Enter after each year")

	return cmd
}

func runCharacter(cmd *cobra.Command, opts *CharacterOptions, dataDir string, seed *int64) error {
	ctx := context.Background()
	out := cmd.OutOrStdout()
	s, err := openSession(ctx, opts.RootOptions, dataDir, opts.Database,
		NewPrompter(cmd.InOrStdin(), out), opts.renderer(out))
	if err != nil {
		return err
	}
	defer s.Close()
	s.pause = !opts.NoPause

	c, err := s.chooseCharacter(engine.NewRandom(engine.DeriveSeed()))
	if err != nil {
		return err
	}

	eng := engine.New(s.tables, s.cfg, s.stats)
	if _, err := s.seed(eng, seed); err != nil {
		return err
	}
	active, err := eng.SetCharacter(c)
	if err != nil {
		return WrapExitError(ExitCommandError, "character cannot be played with these tables", err)
	}
	s.r.Talents(eng.Selected(), active)

	_, err = s.live(ctx, eng)
	return err
}

// chooseCharacter offers celebrities until the player picks one or the
// unique character.
func (s *session) chooseCharacter(rng *engine.Random) (*ir.Character, error) {
	n := s.cfg.Character.Choices
	for {
		s.r.Header("Choose a character")
		if u := s.stats.Unique; u != nil {
			s.r.Character(0, u, s.tables)
		} else {
			s.p.Say("0: Create your unique character")
		}
		offer := character.Offer(rng, s.tables.Characters, n)
		for i, c := range offer {
			s.r.Character(i+1, c, s.tables)
		}

		for {
			answer, err := s.p.Ask("Choose a character; blank for others: ")
			if err != nil {
				return nil, inputError(err)
			}
			if answer == "" {
				break
			}
			i, err := strconv.Atoi(answer)
			if err != nil || i < 0 || i > len(offer) {
				s.p.Say("Choose a number between 0 and %d", len(offer))
				continue
			}
			if i > 0 {
				return offer[i-1], nil
			}
			if s.stats.Unique != nil {
				return s.stats.Unique, nil
			}
			c, err := s.createUnique()
			if errors.Is(err, errCancelled) {
				break
			}
			return c, err
		}
	}
}

var errCancelled = errors.New("cancelled")

// createUnique generates the player's unique character. Answering "cancel"
// at the seed prompt returns errCancelled.
func (s *session) createUnique() (*ir.Character, error) {
	s.p.Say("Your unique character is generated from a seed and kept for every later game.")
	var seed *int64
	for {
		answer, err := s.p.Ask("Seed (blank for random, cancel to go back): ")
		if err != nil {
			return nil, inputError(err)
		}
		if strings.EqualFold(answer, "cancel") {
			return nil, errCancelled
		}
		if answer == "" {
			break
		}
		n, err := strconv.ParseInt(answer, 10, 64)
		if err != nil {
			s.p.Say("The seed must be an integer")
			continue
		}
		seed = &n
		break
	}
	name, err := s.p.Ask("Name (blank for " + s.cfg.Character.DefaultName + "): ")
	if err != nil {
		return nil, inputError(err)
	}
	c, err := character.CreateUnique(s.tables, s.cfg.Character, s.stats, seed, name)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create unique character", err)
	}
	s.r.Character(0, c, s.tables)
	return c, nil
}
