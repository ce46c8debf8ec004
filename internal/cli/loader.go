package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/relive/internal/compiler"
	"github.com/roach88/relive/internal/ir"
	"github.com/roach88/relive/internal/store"
)

// Error code constants - unified across all CLI commands. Table load and
// validation codes (E0xx, E2xx) come from the compiler.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeStore       = "E020" // Database error
	ErrCodeRunNotFound = "E021" // No stored run matches
	ErrCodeBadInput    = "E030" // Malformed flag or answer
	ErrCodeRuntime     = "E040" // Engine runtime error
)

// loadTables loads a table directory fail-fast and rejects tables with
// validation errors. Warnings are logged.
func loadTables(dir string) (*ir.Tables, error) {
	tables, errs := compiler.LoadDir(dir, compiler.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, WrapExitError(ExitCommandError, "failed to load tables", errs[0])
	}
	findings := compiler.Validate(tables)
	for _, f := range findings {
		if f.Warning {
			slog.Debug("table warning", "code", f.Code, "field", f.Field, "message", f.Message)
		}
	}
	if compiler.HasErrors(findings) {
		var errs []error
		for _, f := range findings {
			if !f.Warning {
				errs = append(errs, f)
			}
		}
		return nil, WrapExitError(ExitCommandError,
			fmt.Sprintf("tables in %s are invalid (run validate for details)", dir), errors.Join(errs...))
	}
	slog.Debug("tables loaded",
		"dir", dir,
		"talents", len(tables.Talents),
		"events", len(tables.Events),
		"achievements", len(tables.Achievements),
		"digest", tables.Digest)
	return tables, nil
}

// openStore opens the database at path, creating it if needed.
func openStore(path string) (*store.Store, error) {
	if path == "" {
		return nil, NewExitError(ExitCommandError, "--db is required")
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}
