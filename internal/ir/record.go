package ir

// EventStep is one entry of a tick's event chain.
type EventStep struct {
	ID      int  `json:"id"`
	HasNext bool `json:"has_next"`
}

// TickRecord is the id-only form of one emitted snapshot.
type TickRecord struct {
	Age          int         `json:"age"`
	Talents      []int       `json:"talents"`
	Events       []EventStep `json:"events"`
	Achievements []int       `json:"achievements"`
	Stats        Stats       `json:"stats"`
}

// Grade is a judged quantity of a finished run.
type Grade struct {
	Quantity string `json:"quantity"`
	Value    int    `json:"value"`
	Rarity   Rarity `json:"rarity"`
	Label    string `json:"label"`
}

// SummaryRecord is the id-only form of a run's end summary.
type SummaryRecord struct {
	MaxAge       int     `json:"max_age"`
	Max          Stats   `json:"max"`
	Overall      int     `json:"overall"`
	Achievements []int   `json:"achievements"`
	Grades       []Grade `json:"grades"`
}

// RunRecord is everything needed to display or replay one run.
//
// Before is the statistics snapshot taken when the run was created. Replaying
// from it reproduces lifetime variables exactly.
type RunRecord struct {
	ID            string         `json:"id"`
	Seq           int64          `json:"seq"`
	Seed          int64          `json:"seed"`
	Selected      []int          `json:"selected"`
	Active        []int          `json:"active"`
	Start         Stats          `json:"start"`
	Before        *Statistics    `json:"before"`
	Ticks         []TickRecord   `json:"ticks"`
	Summary       *SummaryRecord `json:"summary,omitempty"`
	Digest        string         `json:"digest"`
	TablesDigest  string         `json:"tables_digest"`
	EngineVersion string         `json:"engine_version"`
}

// Final returns the last tick, or false for a run with no ticks.
func (r *RunRecord) Final() (TickRecord, bool) {
	if len(r.Ticks) == 0 {
		return TickRecord{}, false
	}
	return r.Ticks[len(r.Ticks)-1], true
}
