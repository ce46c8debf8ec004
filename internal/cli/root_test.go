package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "relive", cmd.Use)
	assert.Contains(t, cmd.Long, "life trajectory")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"validate", "play", "character", "simulate", "runs", "trace", "replay", "stats", "export", "import", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("no-color"))
}

func TestDatabaseFlagRequired(t *testing.T) {
	for _, name := range []string{"play", "character", "runs", "trace", "replay", "stats", "export", "import"} {
		t.Run(name, func(t *testing.T) {
			cmd := NewRootCommand()
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			dbFlag := sub.Flags().Lookup("db")
			require.NotNil(t, dbFlag)
			assert.Equal(t, "", dbFlag.DefValue)
		})
	}
}

func TestSimulateDatabaseOptional(t *testing.T) {
	cmd := NewRootCommand()
	sub, _, err := cmd.Find([]string{"simulate"})
	require.NoError(t, err)
	dbFlag := sub.Flags().Lookup("db")
	require.NotNil(t, dbFlag)
	_, required := dbFlag.Annotations[cobra.BashCompOneRequiredFlag]
	assert.False(t, required)
}

func TestRootInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	_, err := execute(t, cmd, "", "--format", "yaml", "validate", tablesDir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootLoadsConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("talent:\n  limit: 2\n"), 0644))

	cmd := NewRootCommand()
	out, err := execute(t, cmd, "", "--config", path, "--format", "json",
		"simulate", tablesDir, "--seed", "3", "--talents", "1001,1002", "--stats", "5,5,5,5")
	require.NoError(t, err, out)

	var rec struct {
		Selected []int `json:"selected"`
	}
	decodeData(t, out, &rec)
	assert.Equal(t, []int{1001, 1002}, rec.Selected)
}

func TestRootRejectsBadConfig(t *testing.T) {
	cmd := NewRootCommand()
	_, err := execute(t, cmd, "", "--config", "/nonexistent/config.yaml", "validate", tablesDir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
