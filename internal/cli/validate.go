package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/relive/internal/compiler"
	"github.com/roach88/relive/internal/ir"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Strict bool
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid        bool                       `json:"valid"`
	Talents      int                        `json:"talents"`
	Events       int                        `json:"events"`
	Achievements int                        `json:"achievements"`
	Characters   int                        `json:"characters"`
	Digest       string                     `json:"digest,omitempty"`
	Errors       []compiler.ValidationError `json:"errors,omitempty"`
	Warnings     []compiler.ValidationError `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <data-dir>",
		Short: "Check game tables without playing",
		Long: `Compile the CUE tables of a data directory and check them.

Reports every load error, dangling id, unparsable or unbound condition
and configuration mismatch at once. Warnings, such as event branches
that may loop, do not fail validation unless --strict is given.

Exit codes:
  0 - Tables are valid
  1 - Validation found errors
  2 - Command error (directory not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat warnings as errors")

	return cmd
}

func runValidate(cmd *cobra.Command, opts *ValidateOptions, dir string) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	tables, loadErrs := compiler.LoadDir(dir, compiler.LoadModeCollectAll)
	if tables == nil && len(loadErrs) > 0 {
		var le *compiler.LoadError
		if errors.As(loadErrs[0], &le) {
			_ = formatter.Error(le.Code, le.Message, nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", le.Code, le.Message))
		}
		_ = formatter.Error(ErrCodeGeneric, loadErrs[0].Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load tables", loadErrs[0])
	}

	var findings []compiler.ValidationError
	for _, err := range loadErrs {
		findings = append(findings, loadFinding(err))
	}
	if tables != nil {
		formatter.VerboseLog("Compiled %d talents, %d events, %d achievements from %s",
			len(tables.Talents), len(tables.Events), len(tables.Achievements), dir)
		findings = append(findings, compiler.Validate(tables)...)
		findings = append(findings, compiler.ValidateConfig(tables, opts.cfg())...)
	}

	result := summarize(tables, findings, opts.Strict)
	if err := formatter.Emit(result, func(w io.Writer) { writeValidation(w, result) }); err != nil {
		return err
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}
	return nil
}

// loadFinding converts a load or compile error into a finding.
func loadFinding(err error) compiler.ValidationError {
	var le *compiler.LoadError
	if errors.As(err, &le) {
		return compiler.ValidationError{Field: "load", Message: le.Error(), Code: le.Code}
	}
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		code := ce.Code
		if code == "" {
			code = compiler.ErrCodeEntry
		}
		return compiler.ValidationError{Field: ce.Field, Message: ce.Error(), Code: code}
	}
	return compiler.ValidationError{Field: "load", Message: err.Error(), Code: ErrCodeGeneric}
}

func summarize(tables *ir.Tables, findings []compiler.ValidationError, strict bool) ValidationResult {
	var r ValidationResult
	for _, f := range findings {
		if f.Warning && !strict {
			r.Warnings = append(r.Warnings, f)
		} else {
			r.Errors = append(r.Errors, f)
		}
	}
	if tables != nil {
		r.Talents = len(tables.Talents)
		r.Events = len(tables.Events)
		r.Achievements = len(tables.Achievements)
		r.Characters = len(tables.Characters)
		r.Digest = tables.Digest
	}
	r.Valid = len(r.Errors) == 0
	return r
}

func writeValidation(w io.Writer, r ValidationResult) {
	if r.Valid {
		fmt.Fprintf(w, "✓ Tables valid: %d talents, %d events, %d achievements, %d characters\n",
			r.Talents, r.Events, r.Achievements, r.Characters)
	} else {
		fmt.Fprintln(w, "✗ Validation failed")
		fmt.Fprintln(w)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  %s %s: %s\n", e.Code, e.Field, e.Message)
		}
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%d warning(s):\n", len(r.Warnings))
		for _, e := range r.Warnings {
			fmt.Fprintf(w, "  %s %s: %s\n", e.Code, e.Field, strings.TrimSpace(e.Message))
		}
	}
}
