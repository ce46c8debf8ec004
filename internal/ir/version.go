package ir

// Version constants for records and engine.
const (
	// RecordVersion is the run record schema version.
	RecordVersion = "1"

	// EngineVersion is the relive engine version. Replays compare it against
	// the version stored with a run.
	EngineVersion = "0.1.0"
)
