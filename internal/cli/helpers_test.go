package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

var tablesDir = filepath.Join("testdata", "tables")

// execute runs cmd with args and stdin, returning stdout.
func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// decodeData unmarshals the data field of a JSON CLI response into v.
func decodeData(t *testing.T, out string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status, out)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func textOpts() *RootOptions { return &RootOptions{Format: "text", NoColor: true} }
func jsonOpts() *RootOptions { return &RootOptions{Format: "json", NoColor: true} }

// playOnce plays one non-pausing game into db and returns the output.
func playOnce(t *testing.T, db, input string) string {
	t.Helper()
	out, err := execute(t, NewPlayCommand(textOpts()), input, tablesDir, "--db", db, "--no-pause")
	require.NoError(t, err, out)
	return out
}
