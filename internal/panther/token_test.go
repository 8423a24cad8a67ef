package panther

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/leapstack-labs/mcp-panther/internal/testutil"
)

func TestStaticToken(t *testing.T) {
	tok, err := StaticToken("  abc \n").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	_, err = StaticToken(" ").Token(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestNewFileToken(t *testing.T) {
	dir := t.TempDir()

	_, err := NewFileToken(filepath.Join(dir, "missing"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read token file")

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, []byte("\n"), 0o600))
	_, err = NewFileToken(empty, nil)
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestFileTokenWatch(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("first\n"), 0o600))

	ft, err := NewFileToken(path, testutil.NewTestLogger(t))
	require.NoError(t, err)
	tok, err := ft.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", tok)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ft.Watch(ctx) }()

	// Rewritten on every tick because the watcher may not be registered yet.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("rotated\n"), 0o600)
		tok, _ := ft.Token(context.Background())
		return tok == "rotated"
	}, 5*time.Second, 250*time.Millisecond)

	// An emptied file keeps the previous token.
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	time.Sleep(3 * reloadDelay)
	tok, err = ft.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rotated", tok)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
