// Package main provides tests for the mcp-panther CLI.
package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/leapstack-labs/mcp-panther/internal/cli"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// keep stray mcp-panther.yaml and .env files out of the test
	t.Chdir(t.TempDir())

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version command error = %v", err)
	}
	if !strings.Contains(out, "mcp-panther v") {
		t.Errorf("version output should contain 'mcp-panther v', got: %s", out)
	}
}

func TestHelpCommand(t *testing.T) {
	out, err := run(t, "--help")
	if err != nil {
		t.Fatalf("help command error = %v", err)
	}
	for _, expected := range []string{"serve", "sanitize", "tools", "completion", "--datastore"} {
		if !strings.Contains(out, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, out)
		}
	}
}

func TestSanitizeCommand(t *testing.T) {
	out, err := run(t, "sanitize", "--datastore", "redshift", "SELECT delta, regexp FROM logs")
	if err != nil {
		t.Fatalf("sanitize command error = %v", err)
	}
	if want := `SELECT "delta", regexp FROM logs`; !strings.Contains(out, want) {
		t.Errorf("sanitize output = %q, want it to contain %q", out, want)
	}
}

func TestSanitizeCommandViolation(t *testing.T) {
	out, err := run(t, "sanitize", "SELECT true FROM logs")
	if err == nil {
		t.Fatal("sanitize should fail for TRUE used as a column")
	}
	if !strings.Contains(out, "'TRUE' cannot be used as column reference in scalar expressions") {
		t.Errorf("sanitize should report the violation, got: %s", out)
	}
}

func TestInvalidDatastore(t *testing.T) {
	_, err := run(t, "tools", "--datastore", "bigquery")
	if err == nil {
		t.Fatal("expected an error for an unknown datastore")
	}
	if !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("error = %v, want invalid configuration", err)
	}
}

func TestCompletionCommand(t *testing.T) {
	out, err := run(t, "completion", "bash")
	if err != nil {
		t.Fatalf("completion command error = %v", err)
	}
	if !strings.Contains(out, "mcp-panther") {
		t.Errorf("bash completion should mention mcp-panther, got %d bytes", len(out))
	}
}
