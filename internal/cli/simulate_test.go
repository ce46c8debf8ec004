package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relive/internal/ir"
)

func simulate(t *testing.T, args ...string) (*ir.RunRecord, error) {
	t.Helper()
	out, err := execute(t, NewSimulateCommand(jsonOpts()), "", append([]string{tablesDir}, args...)...)
	if err != nil {
		return nil, err
	}
	var rec ir.RunRecord
	decodeData(t, out, &rec)
	return &rec, nil
}

func TestSimulateExplicitRun(t *testing.T) {
	rec, err := simulate(t, "--seed", "1", "--talents", "1001,1002,1141", "--stats", "1,2,5,12")
	require.Error(t, err, "12 exceeds the stat maximum")
	assert.Nil(t, rec)

	rec, err = simulate(t, "--seed", "1", "--talents", "1001,1002,1141", "--stats", "1,2,7,10")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Seed)
	assert.Equal(t, []int{1001, 1002, 1141}, rec.Selected)
	assert.Equal(t, ir.Stats{Charm: 1, Intelligence: 2, Strength: 7, Money: 10, Spirit: 5}, rec.Start)
	require.NotNil(t, rec.Summary)
	assert.Equal(t, 2, rec.Summary.MaxAge)
	assert.Len(t, rec.Ticks, 4)
	assert.Contains(t, rec.Summary.Achievements, 3)
}

func TestSimulateIsDeterministic(t *testing.T) {
	a, err := simulate(t, "--seed", "42")
	require.NoError(t, err)
	b, err := simulate(t, "--seed", "42")
	require.NoError(t, err)

	assert.Equal(t, a.Selected, b.Selected)
	assert.Equal(t, a.Start, b.Start)
	assert.Equal(t, a.Digest, b.Digest)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestSimulateDrawsCompatibleTalents(t *testing.T) {
	rec, err := simulate(t, "--seed", "5")
	require.NoError(t, err)
	assert.Len(t, rec.Selected, 3)
	// Pinned talents open the batch.
	assert.Equal(t, []int{1144, 1141}, rec.Selected[:2])
}

func TestSimulateFlagErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"stats count", []string{"--stats", "1,2,3"}, "--stats takes 4 values"},
		{"unknown talent", []string{"--talents", "1001,1002,4242"}, "unknown talent 4242"},
		{"duplicate talent", []string{"--talents", "1001,1001,1002"}, "selected twice"},
		{"too few talents", []string{"--talents", "1001"}, "select exactly 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := simulate(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSimulateSavesToDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "relive.db")
	rec, err := simulate(t, "--db", db, "--seed", "3")
	require.NoError(t, err)

	stored := latestRun(t, db)
	assert.Equal(t, rec.ID, stored.ID)
	assert.Equal(t, rec.Digest, stored.Digest)
	assert.Equal(t, int64(1), stored.Seq)

	stats := loadStats(t, db)
	assert.Equal(t, 1, stats.FinishedGames)
	assert.Equal(t, rec.Selected[0], stats.InheritedTalent)
}

func TestSimulateText(t *testing.T) {
	out, err := execute(t, NewSimulateCommand(textOpts()), "", tablesDir, "--seed", "1")
	require.NoError(t, err, out)
	assert.Contains(t, out, "(seed 1)")
	assert.Contains(t, out, "---- Age 2 ----")
	assert.Contains(t, out, "---- Summary ----")

	out, err = execute(t, NewSimulateCommand(textOpts()), "", tablesDir, "--seed", "1", "--quiet")
	require.NoError(t, err, out)
	assert.NotContains(t, out, "---- Age 2 ----")
	assert.Contains(t, out, "---- Summary ----")
}
