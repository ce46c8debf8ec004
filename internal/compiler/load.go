package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/relive/internal/ir"
)

// LoadMode controls how errors are handled while loading tables.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Load error codes (E0xx).
const (
	ErrCodeGeneric     = "E001" // generic/unknown error
	ErrCodeScanError   = "E002" // directory scan error
	ErrCodeNoFiles     = "E003" // no CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeEntry       = "E010" // malformed table entry
	ErrCodeDuplicate   = "E011" // duplicate id
)

// LoadError represents an error that occurred while loading tables.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadDir loads and compiles the CUE tables of one directory.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadDir(dir string, mode LoadMode) (*ir.Tables, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("data directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing data directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	sources := make([]ir.SourceFile, 0, len(cueFiles))
	for _, path := range cueFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("reading %s: %v", path, err)}}
		}
		rel, _ := filepath.Rel(dir, path)
		sources = append(sources, ir.SourceFile{Name: filepath.ToSlash(rel), Data: data})
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	tables, errs := CompileTables(value, mode)
	if tables != nil {
		tables.Digest = ir.TablesDigest(sources)
	}
	return tables, errs
}

// CompileString compiles tables from CUE source text. Tests and embedded
// data use it; the digest covers src.
func CompileString(src string, mode LoadMode) (*ir.Tables, []error) {
	value := cuecontext.New().CompileString(src, cue.Filename("tables.cue"))
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}
	tables, errs := CompileTables(value, mode)
	if tables != nil {
		tables.Digest = ir.TablesDigest([]ir.SourceFile{{Name: "tables.cue", Data: []byte(src)}})
	}
	return tables, errs
}

// CompileTables extracts the talent, event, achievement, age and character
// tables from a built CUE value. Every table is optional at this stage;
// Validate decides whether the result is playable.
func CompileTables(value cue.Value, mode LoadMode) (*ir.Tables, []error) {
	t := ir.NewTables()
	c := &collector{mode: mode}

	c.each(value, "talent", func(v cue.Value) error {
		talent, err := CompileTalent(v)
		if err != nil {
			return err
		}
		if _, dup := t.Talents[talent.ID]; dup {
			return duplicate("talent", talent.ID, v)
		}
		t.Talents[talent.ID] = talent
		return nil
	})
	c.each(value, "event", func(v cue.Value) error {
		event, err := CompileEvent(v)
		if err != nil {
			return err
		}
		if _, dup := t.Events[event.ID]; dup {
			return duplicate("event", event.ID, v)
		}
		t.Events[event.ID] = event
		return nil
	})
	c.each(value, "achievement", func(v cue.Value) error {
		a, err := CompileAchievement(v)
		if err != nil {
			return err
		}
		if _, dup := t.Achievement(a.ID); dup {
			return duplicate("achievement", a.ID, v)
		}
		t.Achievements = append(t.Achievements, a)
		return nil
	})
	c.each(value, "age", func(v cue.Value) error {
		age, entries, err := CompileAge(v)
		if err != nil {
			return err
		}
		if _, dup := t.Ages[age]; dup {
			return duplicate("age", age, v)
		}
		t.Ages[age] = entries
		return nil
	})
	c.each(value, "character", func(v cue.Value) error {
		ch, err := CompileCharacter(v)
		if err != nil {
			return err
		}
		t.Characters = append(t.Characters, ch)
		return nil
	})

	return t, c.errs
}

// collector walks top-level tables and accumulates errors per LoadMode.
type collector struct {
	mode LoadMode
	errs []error
}

func (c *collector) stopped() bool {
	return c.mode == LoadModeFailFast && len(c.errs) > 0
}

func (c *collector) each(value cue.Value, table string, fn func(cue.Value) error) {
	if c.stopped() {
		return
	}
	tv := value.LookupPath(cue.ParsePath(table))
	if !tv.Exists() {
		return
	}
	iter, err := tv.Fields()
	if err != nil {
		c.errs = append(c.errs, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating %s: %v", table, err)})
		return
	}
	for iter.Next() {
		if err := fn(iter.Value()); err != nil {
			c.errs = append(c.errs, convertCompileError(err, table+"."+iter.Label()))
			if c.stopped() {
				return
			}
		}
	}
}

func duplicate(table string, id int, v cue.Value) error {
	return &LoadError{Code: ErrCodeDuplicate, Message: fmt.Sprintf("duplicate %s id %d", table, id), Pos: v.Pos()}
}

// FindCUEFiles walks the directory and returns all .cue file paths, sorted.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	slices.Sort(files)
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) error {
	var le *LoadError
	if errors.As(err, &le) {
		return le
	}
	var ce *CompileError
	if errors.As(err, &ce) {
		code := ce.Code
		if code == "" {
			code = ErrCodeEntry
		}
		return &LoadError{Code: code, Message: ce.Field + ": " + ce.Message, Pos: ce.Pos}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("%s: %v", context, err)}
}
