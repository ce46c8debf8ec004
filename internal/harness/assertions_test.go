package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relive/internal/condition"
	"github.com/roach88/relive/internal/ir"
)

func ptr(n int) *int { return &n }

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Age: 0, Kind: KindEvent, ID: 10001},
		{Age: 1, Kind: KindTalent, ID: 1001},
		{Age: 1, Kind: KindEvent, ID: 10002, HasNext: true},
		{Age: 1, Kind: KindEvent, ID: 10003},
		{Age: 2, Kind: KindEvent, ID: 10002},
	}
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceContains(trace, Assertion{ID: 10003}))
	assert.NoError(t, assertTraceContains(trace, Assertion{Kind: KindTalent, ID: 1001, Age: ptr(1)}))
	assert.Error(t, assertTraceContains(trace, Assertion{Kind: KindTalent, ID: 1001, Age: ptr(0)}))
	assert.Error(t, assertTraceContains(trace, Assertion{Kind: KindTalent, ID: 10001}), "kinds do not mix")

	err := assertTraceContains(trace, Assertion{ID: 7, Age: ptr(3)})
	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "event 7 at age 3", aerr.Expected)
	assert.Contains(t, aerr.Error(), "Full trace:")
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceOrder(trace, Assertion{IDs: []int{10001, 10002, 10003}}))
	assert.NoError(t, assertTraceOrder(trace, Assertion{IDs: []int{10001, 10003}}), "gaps are allowed")

	err := assertTraceOrder(trace, Assertion{IDs: []int{10003, 10002}})
	assert.ErrorContains(t, err, "should be before", "order uses first occurrence")

	err = assertTraceOrder(trace, Assertion{IDs: []int{10001, 5}})
	assert.ErrorContains(t, err, "missing event 5")
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{ID: 10002, Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{ID: 4, Count: 0}))
	assert.ErrorContains(t, assertTraceCount(trace, Assertion{ID: 10002, Count: 1}), "2 occurrences")
}

func finishedResult() *Result {
	stats := ir.NewStatistics()
	stats.FinishedGames = 2
	stats.Achievements = ir.NewIDSet(1, 2)
	return &Result{
		Record: &ir.RunRecord{
			Ticks: []ir.TickRecord{
				{Age: -1, Stats: ir.Stats{Charm: 1}},
				{Age: 0, Stats: ir.Stats{Charm: 3, Spirit: 5}},
			},
			Summary: &ir.SummaryRecord{MaxAge: 0, Overall: 16, Max: ir.Stats{Charm: 3, Spirit: 5}},
		},
		Statistics: stats,
		Env:        condition.NewEnv(map[string]condition.Value{"CHR": condition.Int(3)}),
	}
}

func TestAssertFinalState(t *testing.T) {
	r := finishedResult()

	assert.NoError(t, assertFinalState(r, Assertion{Expect: map[string]int{
		"ticks": 2, "charm": 3, "max_spirit": 5, "overall": 16, "finished_games": 2, "achievements": 2,
	}}))

	err := assertFinalState(r, Assertion{Expect: map[string]int{"overall": 1, "charm": 0}})
	assert.ErrorContains(t, err, "charm = 3", "keys are checked in sorted order")
}

func TestAssertFinalState_NoSummary(t *testing.T) {
	r := finishedResult()
	r.Record.Summary = nil

	err := assertFinalState(r, Assertion{Expect: map[string]int{"max_age": 0}})
	assert.ErrorContains(t, err, "max_age not available")
}

func TestAssertFinalCondition(t *testing.T) {
	r := finishedResult()

	assert.NoError(t, assertFinalCondition(r, Assertion{Condition: "CHR>=3"}))
	assert.ErrorContains(t, assertFinalCondition(r, Assertion{Condition: "CHR>3"}), "does not hold")
	assert.Error(t, assertFinalCondition(r, Assertion{Condition: "CHR>>3"}), "parse error")
	assert.Error(t, assertFinalCondition(r, Assertion{Condition: "MNY>0"}), "unbound variable")
}

func TestEvaluateAssertions(t *testing.T) {
	r := finishedResult()
	r.Trace = sampleTrace()

	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertTraceCount, ID: 10001, Count: 1},
		{Type: AssertTraceContains, ID: 1},
		{Type: "bogus"},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[1], `unknown assertion type "bogus"`)
}

func TestResult_AddTick(t *testing.T) {
	r := NewResult()
	r.AddTick(ir.TickRecord{
		Age:          4,
		Talents:      []int{1},
		Events:       []ir.EventStep{{ID: 2, HasNext: true}, {ID: 3}},
		Achievements: []int{9},
	})

	assert.Equal(t, []TraceEvent{
		{Age: 4, Kind: KindTalent, ID: 1},
		{Age: 4, Kind: KindEvent, ID: 2, HasNext: true},
		{Age: 4, Kind: KindEvent, ID: 3},
		{Age: 4, Kind: KindAchievement, ID: 9},
	}, r.Trace)

	r.AddError("boom")
	assert.False(t, r.Pass)
}
