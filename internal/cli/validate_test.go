package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeValidate(t *testing.T, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"validate"}, args...))
	return buf, cmd.Execute()
}

func TestValidate_ValidDirectory(t *testing.T) {
	buf, err := executeValidate(t, "testdata/layouts/valid")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ 1 file(s) valid")
}

func TestValidate_ValidDirectoryJSON(t *testing.T) {
	buf, err := executeValidate(t, "testdata/layouts/valid", "--format", "json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, float64(1), data["files"])
	// Two custom layouts merged over the builtin table.
	assert.Greater(t, data["layouts"], float64(2))
}

func TestValidate_SingleFile(t *testing.T) {
	buf, err := executeValidate(t, "testdata/layouts/valid/vec.cue")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "valid")
}

func TestValidate_InvalidLayout(t *testing.T) {
	buf, err := executeValidate(t, "testdata/layouts/invalid")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "✗ Validation failed")
	assert.Contains(t, buf.String(), "size is required")
}

func TestValidate_InvalidLayoutJSON(t *testing.T) {
	buf, err := executeValidate(t, "testdata/layouts/invalid", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeBadLayout, resp.Error.Code)
}

func TestValidate_PathNotFound(t *testing.T) {
	buf, err := executeValidate(t, "testdata/layouts/nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "layout path not found")
}

func TestValidate_EmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	buf, err := executeValidate(t, dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "no CUE files found")
}
