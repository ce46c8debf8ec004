package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/relive/internal/condition"
	"github.com/roach88/relive/internal/ir"
)

// CompileTalent parses one entry of the talent table.
//
// The CUE value should be the entry itself, labelled by its id:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`talent: "1001": { name: "Lucky", rarity: "rare" }`)
//	t, err := CompileTalent(v.LookupPath(cue.ParsePath(`talent."1001"`)))
func CompileTalent(v cue.Value) (*ir.Talent, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	f := fields{v: v, prefix: "talent." + labelOf(v)}

	t := &ir.Talent{MaxExecute: 1, Condition: condition.True}
	t.ID = f.id()
	t.Name = f.str("name", "")
	t.Description = f.str("description", "")
	t.Rarity = f.rarity("rarity")
	t.Points = f.integer("points", 0)
	t.Effect = f.stats("effect")
	t.Random = f.integer("random", 0)
	t.MaxExecute = f.integer("max_execute", 1)
	t.Condition = f.cond("condition", condition.True)
	t.Exclude = f.sortedInts("exclude")
	t.Exclusive = f.boolean("exclusive")
	t.Replace = f.replacement("replacement")

	if f.err != nil {
		return nil, f.err
	}
	if t.Name == "" {
		return nil, &CompileError{Field: f.prefix + ".name", Message: "name is required", Pos: v.Pos()}
	}
	return t, nil
}

// CompileEvent parses one entry of the event table.
func CompileEvent(v cue.Value) (*ir.Event, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	f := fields{v: v, prefix: "event." + labelOf(v)}

	e := &ir.Event{}
	e.ID = f.id()
	e.Text = f.str("text", "")
	e.Post = f.str("post", "")
	e.Rarity = f.rarity("rarity")
	e.Effect = f.stats("effect")
	e.Life = ir.Life(f.integer("life", 0))
	e.Age = f.integer("age", 0)
	e.Include = f.cond("include", condition.True)
	e.Exclude = f.cond("exclude", condition.False)
	e.NoRandom = f.boolean("no_random")
	e.Branches = f.branches("branch")

	if f.err != nil {
		return nil, f.err
	}
	if e.Life < ir.LifeDie || e.Life > ir.LifeRevive {
		return nil, &CompileError{Field: f.prefix + ".life", Message: "life must be -1, 0 or 1", Pos: v.Pos()}
	}
	return e, nil
}

// CompileAchievement parses one entry of the achievement table.
func CompileAchievement(v cue.Value) (*ir.Achievement, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	f := fields{v: v, prefix: "achievement." + labelOf(v)}

	a := &ir.Achievement{}
	a.ID = f.id()
	a.Name = f.str("name", "")
	a.Description = f.str("description", "")
	a.Rarity = f.rarity("rarity")
	a.Opportunity = ir.Opportunity(strings.ToUpper(f.str("opportunity", "")))
	a.Condition = f.cond("condition", condition.True)
	a.Hidden = f.boolean("hidden")

	if f.err != nil {
		return nil, f.err
	}
	if !ir.ValidOpportunities[a.Opportunity] {
		return nil, &CompileError{
			Field:   f.prefix + ".opportunity",
			Message: fmt.Sprintf("opportunity must be START, TRAJECTORY or END, got %q", a.Opportunity),
			Pos:     v.Pos(),
		}
	}
	return a, nil
}

// CompileAge parses one entry of the age table: a struct of event id to
// weight, in declared order.
func CompileAge(v cue.Value) (int, []ir.AgeEntry, error) {
	if err := v.Err(); err != nil {
		return 0, nil, formatCUEError(err)
	}
	f := fields{v: v, prefix: "age." + labelOf(v)}
	age := f.id()
	if f.err != nil {
		return 0, nil, f.err
	}

	iter, err := v.Fields()
	if err != nil {
		return 0, nil, formatCUEError(err)
	}
	var entries []ir.AgeEntry
	for iter.Next() {
		id, err := parseID(iter.Label())
		if err != nil {
			return 0, nil, &CompileError{Field: f.prefix, Message: err.Error(), Pos: iter.Value().Pos()}
		}
		w, err := iter.Value().Float64()
		if err != nil {
			return 0, nil, formatCUEError(err)
		}
		entries = append(entries, ir.AgeEntry{EventID: id, Weight: w})
	}
	return age, entries, nil
}

// CompileCharacter parses one entry of the celebrity table.
func CompileCharacter(v cue.Value) (*ir.Character, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	f := fields{v: v, prefix: "character." + labelOf(v)}

	c := &ir.Character{}
	c.ID = f.id()
	c.Name = f.str("name", "")
	c.Talents = f.ints("talents")
	c.Charm = f.integer("charm", 0)
	c.Intelligence = f.integer("intelligence", 0)
	c.Strength = f.integer("strength", 0)
	c.Money = f.integer("money", 0)

	if f.err != nil {
		return nil, f.err
	}
	return c, nil
}

// fields reads optional fields of one table entry. The first failure is kept
// in err and later reads become no-ops.
type fields struct {
	v      cue.Value
	prefix string
	err    error
}

func (f *fields) lookup(name string) (cue.Value, bool) {
	if f.err != nil {
		return cue.Value{}, false
	}
	fv := f.v.LookupPath(cue.ParsePath(name))
	return fv, fv.Exists()
}

func (f *fields) fail(err error) {
	if f.err == nil {
		f.err = formatCUEError(err)
	}
}

func (f *fields) id() int {
	if f.err != nil {
		return 0
	}
	id, err := parseID(labelOf(f.v))
	if err != nil {
		f.err = &CompileError{Field: f.prefix, Message: err.Error(), Pos: f.v.Pos()}
	}
	return id
}

func (f *fields) str(name, def string) string {
	fv, ok := f.lookup(name)
	if !ok {
		return def
	}
	s, err := fv.String()
	if err != nil {
		f.fail(err)
	}
	return s
}

func (f *fields) integer(name string, def int) int {
	fv, ok := f.lookup(name)
	if !ok {
		return def
	}
	n, err := fv.Int64()
	if err != nil {
		f.fail(err)
	}
	return int(n)
}

func (f *fields) boolean(name string) bool {
	fv, ok := f.lookup(name)
	if !ok {
		return false
	}
	b, err := fv.Bool()
	if err != nil {
		f.fail(err)
	}
	return b
}

func (f *fields) ints(name string) []int {
	fv, ok := f.lookup(name)
	if !ok {
		return nil
	}
	iter, err := fv.List()
	if err != nil {
		f.fail(err)
		return nil
	}
	var out []int
	for iter.Next() {
		n, err := iter.Value().Int64()
		if err != nil {
			f.fail(err)
			return nil
		}
		out = append(out, int(n))
	}
	return out
}

func (f *fields) sortedInts(name string) []int {
	ids := f.ints(name)
	return ir.NewIDSet(ids...).Sorted()
}

// rarity accepts a tier name or its ordinal.
func (f *fields) rarity(name string) ir.Rarity {
	fv, ok := f.lookup(name)
	if !ok {
		return ir.Common
	}
	var text string
	if fv.IncompleteKind() == cue.IntKind {
		n, err := fv.Int64()
		if err != nil {
			f.fail(err)
			return ir.Common
		}
		text = strconv.FormatInt(n, 10)
	} else {
		s, err := fv.String()
		if err != nil {
			f.fail(err)
			return ir.Common
		}
		text = s
	}
	r, err := ir.ParseRarity(text)
	if err != nil {
		f.err = &CompileError{Field: f.prefix + "." + name, Message: err.Error(), Pos: fv.Pos()}
	}
	return r
}

func (f *fields) stats(name string) ir.Stats {
	if _, ok := f.lookup(name); !ok {
		return ir.Stats{}
	}
	return ir.Stats{
		Charm:        f.integer(name+".charm", 0),
		Intelligence: f.integer(name+".intelligence", 0),
		Strength:     f.integer(name+".strength", 0),
		Money:        f.integer(name+".money", 0),
		Spirit:       f.integer(name+".spirit", 0),
	}
}

// cond parses a condition string. An absent or blank field yields empty.
func (f *fields) cond(name string, empty condition.Expr) condition.Expr {
	fv, ok := f.lookup(name)
	if !ok {
		return empty
	}
	text, err := fv.String()
	if err != nil {
		f.fail(err)
		return empty
	}
	return f.parseCond(f.prefix+"."+name, text, fv.Pos(), empty)
}

func (f *fields) parseCond(field, text string, pos token.Pos, empty condition.Expr) condition.Expr {
	if strings.TrimSpace(text) == "" {
		return empty
	}
	e, err := condition.Parse(text)
	if err != nil {
		f.err = &CompileError{Field: field, Message: err.Error(), Pos: pos, Code: ErrCondition}
		return empty
	}
	return e
}

func (f *fields) branches(name string) []ir.Branch {
	fv, ok := f.lookup(name)
	if !ok {
		return nil
	}
	iter, err := fv.List()
	if err != nil {
		f.fail(err)
		return nil
	}
	var out []ir.Branch
	for i := 0; iter.Next(); i++ {
		bv := iter.Value()
		field := fmt.Sprintf("%s.%s[%d]", f.prefix, name, i)

		target := bv.LookupPath(cue.ParsePath("event"))
		id, err := target.Int64()
		if err != nil {
			f.err = &CompileError{Field: field + ".event", Message: "branch target event id is required", Pos: bv.Pos()}
			return nil
		}
		var text string
		if cv := bv.LookupPath(cue.ParsePath("condition")); cv.Exists() {
			if text, err = cv.String(); err != nil {
				f.fail(err)
				return nil
			}
		}
		cond := f.parseCond(field+".condition", text, bv.Pos(), condition.True)
		if f.err != nil {
			return nil
		}
		out = append(out, ir.Branch{Condition: cond, EventID: int(id)})
	}
	return out
}

// replacement reads {rarity: {name: weight}} or {talent: {"id": weight}}.
func (f *fields) replacement(name string) *ir.Replacement {
	fv, ok := f.lookup(name)
	if !ok {
		return nil
	}
	field := f.prefix + "." + name

	if rv := fv.LookupPath(cue.ParsePath("rarity")); rv.Exists() {
		r := &ir.Replacement{Kind: ir.ReplaceByRarity}
		f.weights(rv, field+".rarity", func(label string, w float64) error {
			rarity, err := ir.ParseRarity(label)
			if err != nil {
				return err
			}
			r.Rarities = append(r.Rarities, ir.RarityWeight{Rarity: rarity, Weight: w})
			return nil
		})
		return r
	}
	if tv := fv.LookupPath(cue.ParsePath("talent")); tv.Exists() {
		r := &ir.Replacement{Kind: ir.ReplaceByTalent}
		f.weights(tv, field+".talent", func(label string, w float64) error {
			id, err := parseID(label)
			if err != nil {
				return err
			}
			r.Talents = append(r.Talents, ir.IDWeight{ID: id, Weight: w})
			return nil
		})
		return r
	}
	f.err = &CompileError{Field: field, Message: "replacement needs a rarity or talent weight table", Pos: fv.Pos()}
	return nil
}

func (f *fields) weights(v cue.Value, field string, add func(string, float64) error) {
	iter, err := v.Fields()
	if err != nil {
		f.fail(err)
		return
	}
	for iter.Next() {
		w, err := iter.Value().Float64()
		if err != nil {
			f.fail(err)
			return
		}
		if err := add(iter.Label(), w); err != nil {
			f.err = &CompileError{Field: field, Message: err.Error(), Pos: iter.Value().Pos()}
			return
		}
	}
}

func labelOf(v cue.Value) string {
	sels := v.Path().Selectors()
	if len(sels) == 0 {
		return ""
	}
	return strings.Trim(sels[len(sels)-1].String(), `"`)
}

func parseID(label string) (int, error) {
	id, err := strconv.Atoi(strings.Trim(label, `"`))
	if err != nil {
		return 0, fmt.Errorf("label %q is not an integer id", label)
	}
	return id, nil
}

// CompileError reports a malformed table entry.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
	Code    string
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
