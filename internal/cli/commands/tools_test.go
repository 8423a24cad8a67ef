package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/mcp-panther/internal/tools"
)

func runToolsCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewToolsCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(append([]string{}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestToolsJSON(t *testing.T) {
	out, err := runToolsCmd(t, "-o", "json")
	require.NoError(t, err)

	var infos []ToolInfo
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	require.Len(t, infos, len(tools.Names()))

	byName := map[string]ToolInfo{}
	for _, ti := range infos {
		byName[ti.Name] = ti
	}
	assert.True(t, byName["disable_detection"].Destructive)
	assert.False(t, byName["disable_detection"].ReadOnly)
	assert.True(t, byName["list_alerts"].ReadOnly)
	assert.NotEmpty(t, byName["list_alerts"].Permissions)
}

func TestToolsYAMLFiltered(t *testing.T) {
	out, err := runToolsCmd(t, "--output", "yaml", "--filter", "LAKE")
	require.NoError(t, err)

	var infos []ToolInfo
	require.NoError(t, yaml.Unmarshal([]byte(out), &infos))
	require.NotEmpty(t, infos)
	for _, ti := range infos {
		assert.Contains(t, ti.Name, "lake")
	}
}

func TestToolsTable(t *testing.T) {
	out, err := runToolsCmd(t)
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "PERMISSIONS")
	assert.Contains(t, out, "query_data_lake")
	for _, name := range tools.Names() {
		assert.Contains(t, out, name)
	}
}

func TestToolsBadOutput(t *testing.T) {
	_, err := runToolsCmd(t, "-o", "csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}
