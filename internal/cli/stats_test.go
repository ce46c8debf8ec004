package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsJSON(t *testing.T) {
	db := seededDB(t)

	out, err := execute(t, NewStatsCommand(jsonOpts()), "", tablesDir, "--db", db)
	require.NoError(t, err, out)

	var result StatsResult
	decodeData(t, out, &result)
	assert.Equal(t, 2, result.FinishedGames)
	assert.Equal(t, 1002, result.InheritedTalent)
	assert.Equal(t, []int{1, 2, 3}, result.Achievements)
	require.Len(t, result.Judgments, 4)
	assert.Equal(t, "finished_games", result.Judgments[0].Quantity)
	assert.Equal(t, 2, result.Judgments[0].Value)
	assert.Equal(t, "event_percentage", result.Judgments[2].Quantity)
	assert.Equal(t, 100, result.Judgments[2].Value)
}

func TestStatsText(t *testing.T) {
	db := filepath.Join(t.TempDir(), "relive.db")

	out, err := execute(t, NewStatsCommand(textOpts()), "", tablesDir, "--db", db)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Achievements & Statistics")
	assert.Contains(t, out, "✗ Arrival")
	assert.Contains(t, out, "???")
	assert.Contains(t, out, "Finished games:   0")
}
