package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/relive/internal/archive"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Database string
	Output   string
	Plain    bool
}

// NewExportCommand creates the statistics export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export player statistics",
		Long: `Write the player's statistics to a file or stdout.

The archive is zstd compressed JSON unless --plain is given. Either form
can be read back by import.

Examples:
  relive export --db ./relive.db -o progress.relive
  relive export --db ./relive.db --plain`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "archive path (stdout when omitted)")
	cmd.Flags().BoolVar(&opts.Plain, "plain", false, "write uncompressed JSON")

	return cmd
}

func runExport(cmd *cobra.Command, opts *ExportOptions) error {
	ctx := context.Background()
	st, err := openStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.LoadStatistics(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load statistics", err)
	}

	w := cmd.OutOrStdout()
	var f *os.File
	if opts.Output != "" {
		if f, err = os.Create(opts.Output); err != nil {
			return WrapExitError(ExitCommandError, "failed to create archive", err)
		}
		defer f.Close()
		w = f
	}
	bw := bufio.NewWriter(w)

	if opts.Plain {
		err = archive.ExportJSON(bw, stats)
	} else {
		err = archive.Export(bw, stats)
	}
	if err == nil {
		err = bw.Flush()
	}
	if err == nil && f != nil {
		err = f.Close()
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to write archive", err)
	}
	if f != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d finished games to %s\n", stats.FinishedGames, opts.Output)
	}
	return nil
}

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Database string
}

// NewImportCommand creates the statistics import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <archive>",
		Short: "Replace player statistics from an archive",
		Long: `Read an archive written by export and replace the player's
statistics with it. Stored runs are kept. The archive is validated before
anything is written.

Exit codes:
  0 - Statistics replaced
  1 - Archive is invalid
  2 - Command error (file or database unreadable)

Examples:
  relive import --db ./relive.db progress.relive`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runImport(cmd *cobra.Command, opts *ImportOptions, path string) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open archive", err)
	}
	defer f.Close()

	stats, err := archive.Import(f)
	var invalid *archive.ValidationError
	if errors.As(err, &invalid) {
		return WrapExitError(ExitFailure, "archive is invalid", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read archive", err)
	}

	st, err := openStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.SaveStatistics(ctx, stats); err != nil {
		return WrapExitError(ExitCommandError, "failed to save statistics", err)
	}

	data := map[string]int{
		"finished_games": stats.FinishedGames,
		"achievements":   len(stats.Achievements),
		"events":         len(stats.Events),
		"talents":        len(stats.Talents),
	}
	return formatter.Emit(data, func(w io.Writer) {
		fmt.Fprintf(w, "Imported %d finished games, %d achievements, %d events and %d talents\n",
			stats.FinishedGames, len(stats.Achievements), len(stats.Events), len(stats.Talents))
	})
}
