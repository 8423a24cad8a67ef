package panther

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrNoToken is returned when no API token is configured.
var ErrNoToken = errors.New("panther API token is not set")

// TokenSource supplies the API token sent as X-API-Key.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed API token.
type StaticToken string

// Token returns the token, or ErrNoToken when it is blank.
func (t StaticToken) Token(context.Context) (string, error) {
	tok := strings.TrimSpace(string(t))
	if tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}

const reloadDelay = 100 * time.Millisecond

// FileToken reads the API token from a file. Watch keeps it current when the
// file is rewritten, so tokens can be rotated without a restart.
type FileToken struct {
	path   string
	logger *slog.Logger

	mu    sync.RWMutex
	token string
}

// NewFileToken reads the token at path.
func NewFileToken(path string, logger *slog.Logger) (*FileToken, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve token file: %w", err)
	}
	ft := &FileToken{path: abs, logger: logger}
	if err := ft.reload(); err != nil {
		return nil, err
	}
	return ft, nil
}

// Token returns the most recently read token.
func (f *FileToken) Token(context.Context) (string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.token == "" {
		return "", ErrNoToken
	}
	return f.token, nil
}

func (f *FileToken) reload() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("failed to read token file: %w", err)
	}
	tok := strings.TrimSpace(string(data))
	if tok == "" {
		return fmt.Errorf("token file %s: %w", f.path, ErrNoToken)
	}
	f.mu.Lock()
	f.token = tok
	f.mu.Unlock()
	return nil
}

// Watch reloads the token whenever the file is written or replaced. It
// blocks until ctx is done. The parent directory is watched so that editors
// and secret managers that swap the file by rename are picked up.
func (f *FileToken) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("failed to watch token file: %w", err)
	}

	// Debounce
	timer := time.NewTimer(reloadDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			timer.Reset(reloadDelay)

		case <-timer.C:
			if err := f.reload(); err != nil {
				f.logger.Warn("token reload failed, keeping previous token", "error", err)
				continue
			}
			f.logger.Info("reloaded API token", "file", f.path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Error("watcher error", "error", err)
		}
	}
}
