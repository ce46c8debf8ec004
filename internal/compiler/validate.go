package compiler

import (
	"fmt"
	"slices"

	"github.com/roach88/relive/internal/condition"
	"github.com/roach88/relive/internal/config"
	"github.com/roach88/relive/internal/ir"
)

// Validation codes. Errors make tables unplayable; warnings (W2xx) do not.
const (
	ErrCondition      = "E201" // condition does not parse
	ErrUndeclaredVar  = "E202" // condition references a variable the phase does not bind
	ErrDanglingRef    = "E203" // id reference to a missing entry
	ErrBadWeight      = "E204" // weight must be positive
	ErrEmptyAge       = "E205" // age has no entries
	ErrBadExecute     = "E206" // max_execute must not be negative
	ErrUnknownPinned  = "E207" // pinned talent missing or exclusive
	ErrNoAges         = "E208" // no age table
	ErrBadCharacter   = "E209" // celebrity references a missing talent
	WarnBranchCycle   = "W210" // event branches may loop
	WarnAgeGap        = "W211" // a reachable age has no entries
	WarnNoRandomStart = "W212" // every entry of an age is no_random
)

// ValidationError represents a table validation finding.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Warning bool   `json:"warning,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// HasErrors reports whether any finding is an error rather than a warning.
func HasErrors(findings []ValidationError) bool {
	for _, f := range findings {
		if !f.Warning {
			return true
		}
	}
	return false
}

// Validate checks compiled tables for problems the engine would otherwise
// hit mid-run. Returns all findings (does not fail-fast), errors first in
// table order, then warnings.
//
// Every variable a condition references must be bound in the phase that
// evaluates it; this is what lets the engine treat a missing variable as a
// contract violation rather than a data error.
func Validate(t *ir.Tables) []ValidationError {
	v := &validator{}

	for _, id := range t.TalentIDs() {
		talent := t.Talents[id]
		field := fmt.Sprintf("talent.%d", id)
		v.vars(field+".condition", talent.Condition, ir.OpportunityTrajectory)
		if talent.MaxExecute < 0 {
			v.add(field+".max_execute", ErrBadExecute, "max_execute must not be negative, got %d", talent.MaxExecute)
		}
		for _, ex := range talent.Exclude {
			if _, ok := t.Talent(ex); !ok {
				v.add(field+".exclude", ErrDanglingRef, "unknown talent %d", ex)
			}
		}
		if r := talent.Replace; r != nil {
			for _, rw := range r.Rarities {
				v.weight(field+".replacement.rarity", rw.Weight)
			}
			for _, iw := range r.Talents {
				v.weight(field+".replacement.talent", iw.Weight)
				if _, ok := t.Talent(iw.ID); !ok {
					v.add(field+".replacement.talent", ErrDanglingRef, "unknown talent %d", iw.ID)
				}
			}
		}
	}

	for _, id := range t.EventIDs() {
		event := t.Events[id]
		field := fmt.Sprintf("event.%d", id)
		v.vars(field+".include", event.Include, ir.OpportunityTrajectory)
		v.vars(field+".exclude", event.Exclude, ir.OpportunityTrajectory)
		for i, b := range event.Branches {
			bf := fmt.Sprintf("%s.branch[%d]", field, i)
			v.vars(bf+".condition", b.Condition, ir.OpportunityTrajectory)
			if _, ok := t.Event(b.EventID); !ok {
				v.add(bf+".event", ErrDanglingRef, "unknown event %d", b.EventID)
			}
		}
	}

	for _, a := range t.Achievements {
		v.vars(fmt.Sprintf("achievement.%d.condition", a.ID), a.Condition, a.Opportunity)
	}

	if len(t.Ages) == 0 {
		v.add("age", ErrNoAges, "no age table")
	}
	for _, age := range t.AgeKeys() {
		entries := t.Ages[age]
		field := fmt.Sprintf("age.%d", age)
		if len(entries) == 0 {
			v.add(field, ErrEmptyAge, "age has no events")
			continue
		}
		drawable := false
		for _, e := range entries {
			v.weight(field, e.Weight)
			event, ok := t.Event(e.EventID)
			if !ok {
				v.add(field, ErrDanglingRef, "unknown event %d", e.EventID)
				continue
			}
			drawable = drawable || !event.NoRandom
		}
		if !drawable {
			v.warn(field, WarnNoRandomStart, "every event of this age is no_random")
		}
	}
	if ages := t.AgeKeys(); len(ages) > 0 {
		for age := ages[0]; age <= ages[len(ages)-1]; age++ {
			if _, ok := t.Ages[age]; !ok {
				v.warn(fmt.Sprintf("age.%d", age), WarnAgeGap, "age has no entry; a run reaching it stops")
			}
		}
	}

	for _, c := range t.Characters {
		for _, id := range c.Talents {
			if _, ok := t.Talent(id); !ok {
				v.add(fmt.Sprintf("character.%d.talents", c.ID), ErrBadCharacter, "unknown talent %d", id)
			}
		}
	}

	for _, w := range AnalyzeCycles(t) {
		v.warn("event.branch", WarnBranchCycle, "%s", w.Message)
	}

	return v.sorted()
}

// ValidateConfig checks configuration against tables: pinned draw talents
// must exist and be drawable.
func ValidateConfig(t *ir.Tables, cfg *config.Config) []ValidationError {
	v := &validator{}
	for _, id := range cfg.Talent.Pinned {
		talent, ok := t.Talent(id)
		switch {
		case !ok:
			v.add("config.talent.pinned", ErrUnknownPinned, "unknown talent %d", id)
		case talent.Exclusive:
			v.add("config.talent.pinned", ErrUnknownPinned, "talent %d is exclusive", id)
		}
	}
	return v.sorted()
}

// validator accumulates findings during traversal.
type validator struct {
	findings []ValidationError
}

func (v *validator) add(field, code, format string, args ...any) {
	v.findings = append(v.findings, ValidationError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) warn(field, code, format string, args ...any) {
	v.findings = append(v.findings, ValidationError{Field: field, Code: code, Message: fmt.Sprintf(format, args...), Warning: true})
}

func (v *validator) weight(field string, w float64) {
	if !(w > 0) {
		v.add(field, ErrBadWeight, "weight must be positive, got %g", w)
	}
}

func (v *validator) vars(field string, e condition.Expr, phase ir.Opportunity) {
	for _, name := range condition.Vars(e) {
		if !ir.Declared(name, phase) {
			v.add(field, ErrUndeclaredVar, "variable %s is not bound during %s", name, phase)
		}
	}
}

// sorted returns errors before warnings, each group in insertion order.
func (v *validator) sorted() []ValidationError {
	out := slices.Clone(v.findings)
	slices.SortStableFunc(out, func(a, b ValidationError) int {
		switch {
		case a.Warning == b.Warning:
			return 0
		case a.Warning:
			return 1
		default:
			return -1
		}
	})
	return out
}
