// Package testutil provides shared test helpers: a t.Log backed logger and a
// fake Panther API.
package testutil

import (
	"log/slog"
	"sync/atomic"
	"testing"
)

// NewTestLogger returns a debug-level logger that writes to t.Log. Output
// only shows for failed tests or with -v. Records emitted by goroutines that
// outlive the test are dropped instead of panicking.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	w := &testWriter{t: t}
	t.Cleanup(func() { w.done.Store(true) })
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testWriter struct {
	t    testing.TB
	done atomic.Bool
}

func (w *testWriter) Write(p []byte) (int, error) {
	if w.done.Load() {
		return len(p), nil
	}
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}
