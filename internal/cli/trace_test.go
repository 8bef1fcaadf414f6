package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedMixedDatabase runs the mixed scenario into a fresh database and
// returns its path.
func seedMixedDatabase(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "traces.db")
	_, err := executeRun(t, "testdata/scenarios/mixed.yaml", "--db", dbPath)
	require.NoError(t, err)
	return dbPath
}

func executeTrace(t *testing.T, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"trace"}, args...))
	return buf, cmd.Execute()
}

func TestTraceMissingRequiredFlags(t *testing.T) {
	_, err := executeTrace(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestTraceFullSession(t *testing.T) {
	dbPath := seedMixedDatabase(t)

	buf, err := executeTrace(t, "--db", dbPath, "--session", "cli-session-mixed")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Session: cli-session-mixed")
	assert.Contains(t, out, "Records: 3 (handled 1, unhandled 1, errors 1, aborts 0)")
	assert.Contains(t, out, "[1] ctpop -> handled")
	assert.Contains(t, out, "[2] exact_div -> error (EXACT_DIV_HAS_REMAINDER)")
	assert.Contains(t, out, "[3] transmute -> unhandled")
}

func TestTraceFilterByIntrinsic(t *testing.T) {
	dbPath := seedMixedDatabase(t)

	buf, err := executeTrace(t, "--db", dbPath, "--session", "cli-session-mixed",
		"--intrinsic", "exact_div")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "exact_div")
	assert.NotContains(t, out, "ctpop")
}

func TestTraceFilterByOutcomeAndRule(t *testing.T) {
	dbPath := seedMixedDatabase(t)

	buf, err := executeTrace(t, "--db", dbPath, "--session", "cli-session-mixed",
		"--outcome", "error", "--error-rule", "EXACT_DIV_HAS_REMAINDER", "--format", "json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	records, ok := data["records"].([]interface{})
	require.True(t, ok)
	require.Len(t, records, 1)
	rec, ok := records[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "exact_div", rec["intrinsic"])
}

func TestTraceSeqRange(t *testing.T) {
	dbPath := seedMixedDatabase(t)

	buf, err := executeTrace(t, "--db", dbPath, "--session", "cli-session-mixed",
		"--seq-min", "2", "--seq-max", "2")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "exact_div")
	assert.NotContains(t, out, "ctpop")
	assert.NotContains(t, out, "transmute")
}

func TestTraceInvalidFilter(t *testing.T) {
	dbPath := seedMixedDatabase(t)

	buf, err := executeTrace(t, "--db", dbPath, "--session", "cli-session-mixed",
		"--outcome", "exploded")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "invalid filter")
}

func TestTraceSessionNotFound(t *testing.T) {
	dbPath := seedMixedDatabase(t)

	buf, err := executeTrace(t, "--db", dbPath, "--session", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "session not found")
}
