package condition

import (
	"maps"
	"slices"
)

// Vars returns the sorted, distinct variable names referenced by e.
//
// Data-load validation uses it to check that every referenced name is bound
// in the environment the engine will build.
func Vars(e Expr) []string {
	seen := make(map[string]struct{})
	walk(e, func(name string) { seen[name] = struct{}{} })
	return slices.Sorted(maps.Keys(seen))
}

func walk(e Expr, visit func(string)) {
	switch n := e.(type) {
	case *Compare:
		visit(n.Var)
	case *Member:
		visit(n.Var)
	case *Logic:
		walk(n.Left, visit)
		walk(n.Right, visit)
	}
}

// Format renders e in canonical form: aliases normalised and parentheses
// only where a left operand is itself a connector. A nil expression renders
// as the empty string.
func Format(e Expr) string {
	if e == nil {
		return ""
	}
	return e.String()
}
