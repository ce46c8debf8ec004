package condition

import (
	"maps"
	"slices"
)

// Value is a variable binding: either a scalar integer or a set of integers.
//
// Values are immutable once constructed. Set and SetOf copy their input.
type Value struct {
	n     int
	set   map[int]struct{}
	isSet bool
}

// Int returns a scalar value.
func Int(n int) Value {
	return Value{n: n}
}

// Set returns a set value holding ids. Duplicates collapse.
func Set(ids ...int) Value {
	m := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return Value{set: m, isSet: true}
}

// SetOf returns a set value holding the keys of m.
func SetOf(m map[int]struct{}) Value {
	return Value{set: maps.Clone(m), isSet: true}
}

// IsSet reports whether the value is a set.
func (v Value) IsSet() bool { return v.isSet }

// Int returns the scalar. It is zero for sets.
func (v Value) Int() int { return v.n }

// Has reports whether id is a member of a set value.
func (v Value) Has(id int) bool {
	_, ok := v.set[id]
	return ok
}

// Len returns the number of members of a set value.
func (v Value) Len() int { return len(v.set) }

// Members returns the sorted members of a set value.
func (v Value) Members() []int {
	return slices.Sorted(maps.Keys(v.set))
}

// matches is the shared equality test of = and ?: membership for sets,
// equality for scalars.
func (v Value) matches(n int) bool {
	if v.isSet {
		return v.Has(n)
	}
	return v.n == n
}

// intersects reports whether v shares at least one integer with lits.
func (v Value) intersects(lits []int) bool {
	for _, n := range lits {
		if v.matches(n) {
			return true
		}
	}
	return false
}

// Env is a read-only snapshot of variable bindings.
//
// The zero Env is empty. Env values are safe to share between goroutines.
type Env struct {
	vars map[string]Value
}

// NewEnv returns an Env holding a copy of vars.
func NewEnv(vars map[string]Value) Env {
	return Env{vars: maps.Clone(vars)}
}

// Lookup returns the binding for name.
func (e Env) Lookup(name string) (Value, bool) {
	v, ok := e.vars[name]
	return v, ok
}

// Len returns the number of bindings.
func (e Env) Len() int { return len(e.vars) }

// Names returns the bound variable names in sorted order.
func (e Env) Names() []string {
	return slices.Sorted(maps.Keys(e.vars))
}

// With returns a copy of e with name bound to v.
func (e Env) With(name string, v Value) Env {
	next := make(map[string]Value, len(e.vars)+1)
	maps.Copy(next, e.vars)
	next[name] = v
	return Env{vars: next}
}
