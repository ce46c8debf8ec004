package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenarioFile writes a scenario against the test tables into dir.
func writeScenarioFile(t *testing.T, dir, name string, maxAge int) string {
	t.Helper()
	tables, err := filepath.Abs(tablesDir)
	require.NoError(t, err)

	src := fmt.Sprintf(`name: %s
tables: %s
seed: 1
talents: [1001, 1002, 1141]
stats: {charm: 1, intelligence: 2, strength: 7, money: 10}
assertions:
  - type: trace_contains
    kind: event
    id: 10003
  - type: final_state
    expect:
      max_age: %d
`, name, tables, maxAge)
	path := filepath.Join(dir, name+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := execute(t, NewTestCommand(textOpts()), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentDir(t *testing.T) {
	_, err := execute(t, NewTestCommand(textOpts()), "", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := execute(t, NewTestCommand(textOpts()), "", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandBundledScenario(t *testing.T) {
	out, err := execute(t, NewTestCommand(textOpts()), "", filepath.Join("testdata", "scenarios"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ short_life")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommandFailingAssertion(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "pass", 2)
	writeScenarioFile(t, dir, "fail", 80)

	out, err := execute(t, NewTestCommand(jsonOpts()), "", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result TestResult
	decodeData(t, out, &result)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	for _, s := range result.Scenarios {
		if s.Name == "fail" {
			assert.False(t, s.Pass)
			assert.NotEmpty(t, s.Errors)
		}
	}
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "long-a", 80)
	writeScenarioFile(t, dir, "short-a", 2)

	out, err := execute(t, NewTestCommand(textOpts()), "", dir, "--filter", "short-*")
	require.NoError(t, err, out)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommandGolden(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "golden-run", 2)
	goldenPath := filepath.Join(dir, "golden", "golden-run.golden")

	out, err := execute(t, NewTestCommand(textOpts()), "", dir, "--update")
	require.NoError(t, err, out)
	assert.Contains(t, out, "(golden updated)")
	require.FileExists(t, goldenPath)

	out, err = execute(t, NewTestCommand(jsonOpts()), "", dir)
	require.NoError(t, err, out)
	var result TestResult
	decodeData(t, out, &result)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "match", result.Scenarios[0].Golden)

	require.NoError(t, os.WriteFile(goldenPath, []byte(`{"scenario":"stale"}`), 0644))
	out, err = execute(t, NewTestCommand(textOpts()), "", dir)
	require.Error(t, err)
	assert.Contains(t, out, "does not match golden file")
}

func TestTestCommandBadScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "typo.yaml"), []byte("name: typo\nassertion: []\n"), 0644))

	out, err := execute(t, NewTestCommand(textOpts()), "", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ typo.yaml")
	assert.Contains(t, out, "failed to load scenario")
}
