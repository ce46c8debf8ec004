package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/relive/internal/condition"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] age %d %s %d\n", i+1, ev.Age, ev.Kind, ev.ID)
		}
	}
	return buf.String()
}

// assertTraceContains checks that an entry of the given kind and id occurs,
// at the given age when one is set.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if ev.Kind == a.kind() && ev.ID == a.ID && (a.Age == nil || ev.Age == *a.Age) {
			return nil
		}
	}
	expected := fmt.Sprintf("%s %d", a.kind(), a.ID)
	if a.Age != nil {
		expected += fmt.Sprintf(" at age %d", *a.Age)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that ids appear in the specified order.
// Entries don't need to be consecutive.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	// First position of each expected id, 1-indexed for readability
	positions := make(map[int]int)
	for i, ev := range trace {
		if ev.Kind != a.kind() {
			continue
		}
		if slices.Contains(a.IDs, ev.ID) && positions[ev.ID] == 0 {
			positions[ev.ID] = i + 1
		}
	}

	for _, id := range a.IDs {
		if positions[id] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all %ss present: %v", a.kind(), a.IDs),
				Actual:   fmt.Sprintf("missing %s %d", a.kind(), id),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.IDs); i++ {
		prev, curr := a.IDs[i-1], a.IDs[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("%ss in order: %v", a.kind(), a.IDs),
				Actual: fmt.Sprintf("%d (pos %d) should be before %d (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that the id appears exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Kind == a.kind() && ev.ID == a.ID {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s %d", a.Count, a.kind(), a.ID),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// finalState collects every quantity final_state can check.
func finalState(result *Result) map[string]int {
	state := map[string]int{
		"ticks":          len(result.Record.Ticks),
		"finished_games": result.Statistics.FinishedGames,
		"achievements":   len(result.Statistics.Achievements),
	}
	if final, ok := result.Record.Final(); ok {
		state["charm"] = final.Stats.Charm
		state["intelligence"] = final.Stats.Intelligence
		state["strength"] = final.Stats.Strength
		state["money"] = final.Stats.Money
		state["spirit"] = final.Stats.Spirit
	}
	if s := result.Record.Summary; s != nil {
		state["max_age"] = s.MaxAge
		state["overall"] = s.Overall
		state["max_charm"] = s.Max.Charm
		state["max_intelligence"] = s.Max.Intelligence
		state["max_strength"] = s.Max.Strength
		state["max_money"] = s.Max.Money
		state["max_spirit"] = s.Max.Spirit
	}
	return state
}

// assertFinalState checks the expected values with subset semantics.
// Keys are checked in sorted order so the first failure is deterministic.
func assertFinalState(result *Result, a Assertion) error {
	state := finalState(result)
	keys := make([]string, 0, len(a.Expect))
	for k := range a.Expect {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		want := a.Expect[key]
		got, ok := state[key]
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s = %d", key, want),
				Actual:   fmt.Sprintf("%s not available", key),
			}
		}
		if got != want {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s = %d", key, want),
				Actual:   fmt.Sprintf("%s = %d", key, got),
			}
		}
	}
	return nil
}

// assertFinalCondition evaluates a condition against the end-of-run
// variables, including SUM and TMS.
func assertFinalCondition(result *Result, a Assertion) error {
	expr, err := condition.Parse(a.Condition)
	if err != nil {
		return fmt.Errorf("final_condition: %w", err)
	}
	ok, err := expr.Eval(result.Env)
	if err != nil {
		return fmt.Errorf("final_condition %q: %w", a.Condition, err)
	}
	if !ok {
		return &AssertionError{
			Type:     AssertFinalCondition,
			Expected: a.Condition,
			Actual:   "condition does not hold",
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertFinalState:
			err = assertFinalState(result, a)
		case AssertFinalCondition:
			err = assertFinalCondition(result, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}
		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}
