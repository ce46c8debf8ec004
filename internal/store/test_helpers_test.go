package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/relive/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a run record with two ticks and a summary.
func createTestRun(id string) *ir.RunRecord {
	before := ir.NewStatistics()
	before.Events.Add(10001)
	return &ir.RunRecord{
		ID:       id,
		Seed:     42,
		Selected: []int{1001, 1002},
		Active:   []int{1001, 1003},
		Start:    ir.Stats{Charm: 5, Intelligence: 5, Strength: 5, Money: 5, Spirit: 5},
		Before:   before,
		Ticks: []ir.TickRecord{
			{Age: -1, Talents: []int{1001}, Events: []ir.EventStep{}, Achievements: []int{}, Stats: ir.Stats{Charm: 6}},
			{Age: 0, Talents: []int{}, Events: []ir.EventStep{{ID: 10001, HasNext: true}, {ID: 10002}}, Achievements: []int{7}, Stats: ir.Stats{Charm: 6}},
		},
		Summary: &ir.SummaryRecord{
			MaxAge:       0,
			Max:          ir.Stats{Charm: 6},
			Overall:      12,
			Achievements: []int{},
			Grades:       []ir.Grade{{Quantity: "age", Value: 0, Rarity: ir.Common, Label: "stillborn"}},
		},
		Digest:        "digest-" + id,
		TablesDigest:  "tables",
		EngineVersion: ir.EngineVersion,
	}
}
