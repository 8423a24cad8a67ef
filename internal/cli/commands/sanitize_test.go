package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/mcp-panther/internal/cli/config"
	"github.com/leapstack-labs/mcp-panther/internal/cli/output"
	"github.com/leapstack-labs/mcp-panther/pkg/sqlguard"
)

type sanitizeRun struct {
	stdout string
	stderr string
	err    error
}

func runSanitizeCmd(t *testing.T, datastore, stdin string, args ...string) sanitizeRun {
	t.Helper()
	cmd := NewSanitizeCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{}, args...))

	ctx := context.Background()
	if datastore != "" {
		ctx = context.WithValue(ctx, config.ConfigKey(), &config.Config{Datastore: datastore})
	}
	err := cmd.ExecuteContext(ctx)
	return sanitizeRun{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func TestSanitizeQuotesReservedColumns(t *testing.T) {
	res := runSanitizeCmd(t, "", "",
		"SELECT action, column, regexp FROM aws_vpcflow WHERE p_event_time >= '2024-01-01'")

	require.NoError(t, res.err)
	assert.Equal(t,
		`SELECT "action", "column", "regexp" FROM aws_vpcflow WHERE p_event_time >= '2024-01-01'`+"\n",
		res.stdout)
	assert.Empty(t, res.stderr)
}

func TestSanitizeRedshift(t *testing.T) {
	res := runSanitizeCmd(t, "redshift", "", "SELECT delta FROM logs WHERE p_event_time >= '2024-01-01'")

	require.NoError(t, res.err)
	assert.Equal(t, `SELECT "delta" FROM logs WHERE p_event_time >= '2024-01-01'`+"\n", res.stdout)
}

func TestSanitizeFromStdin(t *testing.T) {
	sql := "SELECT action\nFROM logs\n"

	for _, args := range [][]string{{"-"}, {}} {
		res := runSanitizeCmd(t, "", sql, args...)
		require.NoError(t, res.err)
		assert.Equal(t, "SELECT \"action\"\nFROM logs\n", res.stdout)
	}
}

func TestSanitizeEmptyStdin(t *testing.T) {
	res := runSanitizeCmd(t, "", "  \n", "-")
	assert.ErrorIs(t, res.err, sqlguard.ErrEmptyQuery)
}

func TestSanitizeRejects(t *testing.T) {
	res := runSanitizeCmd(t, "", "", "SELECT false, true FROM logs WHERE p_event_time >= '2024-01-01'")

	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, sqlguard.ErrForbiddenKeyword)
	assert.Empty(t, res.stdout)
	assert.NotContains(t, res.stderr, "Usage:")
	assert.Contains(t, res.stderr, "error: 'FALSE' cannot be used as column reference in scalar expressions (ForbiddenScalarUsage)")
	assert.Contains(t, res.stderr, " --> line 1, column 8")
	assert.Contains(t, res.stderr, "1 | SELECT false, true FROM logs")
	assert.Contains(t, res.stderr, "  |        ^^^^^\n")
}

func TestSanitizeDiagnosticOnLaterLine(t *testing.T) {
	res := runSanitizeCmd(t, "", "", "SELECT x\nFROM logs AS join")

	require.ErrorIs(t, res.err, sqlguard.ErrForbiddenKeyword)
	assert.Contains(t, res.stderr, "'JOIN' cannot be used as a table name or alias")
	assert.Contains(t, res.stderr, " --> line 2, column 14")
	assert.Contains(t, res.stderr, "2 | FROM logs AS join\n")
	assert.Contains(t, res.stderr, "  |              ^^^^\n")
}

func TestSanitizeExplain(t *testing.T) {
	res := runSanitizeCmd(t, "", "", "--explain", "SELECT action FROM logs")

	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "CATEGORY")
	assert.Contains(t, res.stdout, "action")
	assert.Contains(t, res.stdout, "AUTO_QUOTABLE")
	assert.Contains(t, res.stdout, "quote")
	assert.True(t, strings.HasSuffix(res.stdout, "SELECT \"action\" FROM logs\n"))
}

func newTestSession() (*replSession, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	r := output.NewRenderer(&stdout, &stderr, output.ModeTable)
	return &replSession{r: r, s: sqlguard.ForDatastore("snowflake")}, &stdout, &stderr
}

func TestREPLMultiLineStatement(t *testing.T) {
	rs, stdout, _ := newTestSession()

	assert.Equal(t, "snowflake> ", rs.prompt())
	assert.False(t, rs.handle("SELECT action"))
	assert.Equal(t, "    ...> ", rs.prompt())
	assert.Empty(t, stdout.String())

	assert.False(t, rs.handle("FROM logs;"))
	assert.Equal(t, "SELECT \"action\"\nFROM logs\n\n", stdout.String())
	assert.Equal(t, "snowflake> ", rs.prompt())
}

func TestREPLReportsViolations(t *testing.T) {
	rs, stdout, stderr := newTestSession()

	assert.False(t, rs.handle("SELECT true FROM logs;"))
	assert.Contains(t, stderr.String(), "'TRUE' cannot be used as column reference in scalar expressions")
	assert.NotContains(t, stderr.String(), "Error:")
	assert.Equal(t, "\n", stdout.String())
}

func TestREPLDotCommands(t *testing.T) {
	rs, stdout, stderr := newTestSession()

	assert.False(t, rs.handle(".datastore redshift"))
	assert.Equal(t, "redshift", rs.s.Dialect().Name)
	assert.Equal(t, "redshift> ", rs.prompt())
	assert.Contains(t, stdout.String(), "datastore: redshift")

	stdout.Reset()
	assert.False(t, rs.handle(".words scalar"))
	assert.Contains(t, stdout.String(), "TRUE")

	stdout.Reset()
	assert.False(t, rs.handle(".words"))
	assert.Contains(t, stdout.String(), "FORBIDDEN_FROM_CLAUSE")

	assert.False(t, rs.handle(".datastore bigquery"))
	assert.Contains(t, stderr.String(), "Unknown datastore: bigquery")

	assert.False(t, rs.handle(".bogus"))
	assert.Contains(t, stderr.String(), "Unknown command: .bogus")

	stdout.Reset()
	assert.False(t, rs.handle(".help"))
	assert.Contains(t, stdout.String(), ".datastore [name]")

	assert.True(t, rs.handle(".quit"))
	assert.True(t, rs.handle(".EXIT"))
}
