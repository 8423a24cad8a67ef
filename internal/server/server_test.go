package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/leapstack-labs/mcp-panther/internal/panther"
	"github.com/leapstack-labs/mcp-panther/internal/prompts"
	"github.com/leapstack-labs/mcp-panther/internal/resources"
	"github.com/leapstack-labs/mcp-panther/internal/testutil"
	"github.com/leapstack-labs/mcp-panther/internal/tools"
)

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	api := testutil.NewPantherServer(t)
	if cfg.Token == nil {
		cfg.Token = panther.StaticToken("test-key")
	}
	cfg.Endpoints = panther.Endpoints{GraphQL: api.GraphQLURL(), REST: api.URL}
	cfg.Logger = testutil.NewTestLogger(t)
	cfg.Version = "1.2.3"
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func TestNew(t *testing.T) {
	t.Run("unknown transport", func(t *testing.T) {
		_, err := New(Config{Token: panther.StaticToken("k"), Transport: "sse"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown transport "sse"`)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := New(Config{})
		require.ErrorIs(t, err, panther.ErrNoToken)
	})

	t.Run("defaults", func(t *testing.T) {
		s, err := New(Config{Token: panther.StaticToken("k")})
		require.NoError(t, err)
		assert.Equal(t, TransportStdio, s.cfg.Transport)
		assert.Equal(t, panther.DefaultGraphQLURL, s.cfg.Endpoints.GraphQL)
		assert.Equal(t, panther.DefaultRESTURL, s.cfg.Endpoints.REST)
	})
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, Config{Transport: TransportHTTP})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, map[string]string{"status": "ok", "name": Name, "version": "1.2.3"}, body)
}

func TestRequestIDPreserved(t *testing.T) {
	s := newTestServer(t, Config{Transport: TransportHTTP})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-Id"))
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRequestLogUsesServerLogger(t *testing.T) {
	s := newTestServer(t, Config{Transport: TransportHTTP})
	var logs syncBuffer
	s.logger = slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "req-42")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "http request")
	}, time.Second, 10*time.Millisecond)
	out := logs.String()
	assert.Contains(t, out, "request_id=req-42")
	assert.Contains(t, out, "path=/healthz")
	assert.Contains(t, out, "status=200")
}

func TestStreamableHTTP(t *testing.T) {
	s := newTestServer(t, Config{Transport: TransportHTTP, Datastore: "redshift"})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	cs, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: ts.URL + "/mcp"}, nil)
	require.NoError(t, err)
	defer func() { _ = cs.Close() }()

	list, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, list.Tools, len(tools.Names()))

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: "get_reserved_words_info", Arguments: map[string]any{}})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &payload))
	assert.Equal(t, "redshift", payload["datastore_type"])

	read, err := cs.ReadResource(ctx, &mcp.ReadResourceParams{URI: resources.ConfigURI})
	require.NoError(t, err)
	require.Len(t, read.Contents, 1)
	var info resources.Info
	require.NoError(t, json.Unmarshal([]byte(read.Contents[0].Text), &info))
	assert.Equal(t, "redshift", info.Datastore)
	assert.Equal(t, tools.Names(), info.Tools)
	assert.Equal(t, prompts.Names(), info.Prompts)
}

func TestInMemorySession(t *testing.T) {
	s := newTestServer(t, Config{})
	ctx := context.Background()

	ct, st := mcp.NewInMemoryTransports()
	ss, err := s.MCP().Connect(ctx, st, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	cs, err := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil).Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })

	got, err := cs.ListPrompts(ctx, nil)
	require.NoError(t, err)
	names := make([]string, 0, len(got.Prompts))
	for _, p := range got.Prompts {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, prompts.Names(), names)
}

func TestRunHTTPStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	tokenFile := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("file-key\n"), 0o600))
	ft, err := panther.NewFileToken(tokenFile, nil)
	require.NoError(t, err)

	s, err := New(Config{
		Token:     ft,
		Transport: TransportHTTP,
		Host:      "127.0.0.1",
		Port:      0,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
