package harness

import (
	"github.com/roach88/relive/internal/condition"
	"github.com/roach88/relive/internal/ir"
)

// Trace entry kinds.
const (
	KindTalent      = "talent"
	KindEvent       = "event"
	KindAchievement = "achievement"
)

// TraceEvent is one talent firing, chain step or achievement grant.
// Grants made by the end-of-run scan carry the final age.
type TraceEvent struct {
	Age     int    `json:"age"`
	Kind    string `json:"kind"`
	ID      int    `json:"id"`
	HasNext bool   `json:"has_next,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Trace lists talents, events and achievements in emission order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Record is the finished run, summary included.
	Record *ir.RunRecord `json:"-"`

	// Statistics is the player's progress after the run.
	Statistics *ir.Statistics `json:"-"`

	// Env is the variable environment after the end-of-run scan.
	Env condition.Env `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTick appends the entries of one tick in emission order: talents, then
// the event chain, then achievements.
func (r *Result) AddTick(t ir.TickRecord) {
	for _, id := range t.Talents {
		r.Trace = append(r.Trace, TraceEvent{Age: t.Age, Kind: KindTalent, ID: id})
	}
	for _, step := range t.Events {
		r.Trace = append(r.Trace, TraceEvent{Age: t.Age, Kind: KindEvent, ID: step.ID, HasNext: step.HasNext})
	}
	for _, id := range t.Achievements {
		r.Trace = append(r.Trace, TraceEvent{Age: t.Age, Kind: KindAchievement, ID: id})
	}
}
