package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTicks() []TickRecord {
	return []TickRecord{
		{Age: -1, Talents: []int{}, Events: []EventStep{}, Achievements: []int{1}, Stats: Stats{Spirit: 5}},
		{Age: 0, Talents: []int{1001}, Events: []EventStep{{ID: 10001}}, Achievements: []int{}, Stats: Stats{Charm: 2, Spirit: 5}},
	}
}

func TestTrajectoryDigestDeterminism(t *testing.T) {
	d1, err := TrajectoryDigest(sampleTicks())
	require.NoError(t, err)
	d2, err := TrajectoryDigest(sampleTicks())
	require.NoError(t, err)

	assert.Equal(t, d1, d2, "TrajectoryDigest must be deterministic")
	assert.Len(t, d1, 64, "SHA-256 hex is 64 characters")
}

func TestTrajectoryDigestChangesWithInput(t *testing.T) {
	base, err := TrajectoryDigest(sampleTicks())
	require.NoError(t, err)

	changed := sampleTicks()
	changed[1].Events[0].HasNext = true
	other, err := TrajectoryDigest(changed)
	require.NoError(t, err)

	assert.NotEqual(t, base, other)
}

func TestTrajectoryDigestEmpty(t *testing.T) {
	d, err := TrajectoryDigest(nil)
	require.NoError(t, err)
	assert.Len(t, d, 64)
}

func TestDomainSeparation(t *testing.T) {
	data := []byte("[]")
	assert.NotEqual(t, hashWithDomain(DomainTrajectory, data), hashWithDomain(DomainTables, data))
}

func TestTablesDigestOrderIndependent(t *testing.T) {
	a := SourceFile{Name: "talent.cue", Data: []byte("talent: {}")}
	b := SourceFile{Name: "event.cue", Data: []byte("event: {}")}

	assert.Equal(t, TablesDigest([]SourceFile{a, b}), TablesDigest([]SourceFile{b, a}))
	assert.NotEqual(t, TablesDigest([]SourceFile{a}), TablesDigest([]SourceFile{a, b}))
}
