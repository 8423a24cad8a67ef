package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/mcp-panther/internal/panther"
	"github.com/leapstack-labs/mcp-panther/internal/testutil"
	"github.com/leapstack-labs/mcp-panther/pkg/sqlguard"
)

var fixedNow = time.Date(2024, 3, 20, 15, 4, 5, 0, time.UTC)

type harness struct {
	api     *testutil.PantherServer
	session *mcp.ClientSession
}

// newHarness registers every tool against a fake Panther API and connects
// an in-memory MCP client. A nil sanitizer selects Snowflake.
func newHarness(t *testing.T, sanitizer *sqlguard.Sanitizer) *harness {
	t.Helper()
	api := testutil.NewPantherServer(t)
	client, err := panther.NewClient(panther.Config{
		GraphQLURL:      api.GraphQLURL(),
		RESTURL:         api.URL,
		Token:           panther.StaticToken("test-key"),
		UserAgent:       panther.UserAgent("test"),
		Timeout:         5 * time.Second,
		Logger:          testutil.NewTestLogger(t),
		PollInterval:    time.Millisecond,
		MaxPollInterval: 2 * time.Millisecond,
	})
	require.NoError(t, err)

	srv := mcp.NewServer(&mcp.Implementation{Name: "mcp-panther", Version: "test"}, nil)
	require.NoError(t, Register(srv, &Deps{
		Client:    client,
		Sanitizer: sanitizer,
		Logger:    testutil.NewTestLogger(t),
		Now:       func() time.Time { return fixedNow },
	}))

	ctx := context.Background()
	ct, st := mcp.NewInMemoryTransports()
	ss, err := srv.Connect(ctx, st, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	cs, err := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil).Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })

	return &harness{api: api, session: cs}
}

// call invokes a tool and decodes its JSON text result.
func (h *harness) call(t *testing.T, name string, args map[string]any) (map[string]any, bool) {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	res, err := h.session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out), text.Text)
	return out, res.IsError
}

func TestDefinitions(t *testing.T) {
	defs := All()
	seen := map[string]bool{}
	for _, d := range defs {
		assert.False(t, seen[d.Name], "duplicate tool %s", d.Name)
		seen[d.Name] = true

		tool, err := d.Tool()
		require.NoError(t, err, d.Name)
		require.NotNil(t, tool.InputSchema, d.Name)
		assert.NotEmpty(t, tool.Description, d.Name)
		assert.False(t, d.ReadOnly && d.Destructive, "%s is both read-only and destructive", d.Name)
	}
	assert.Len(t, defs, 36)
	assert.Equal(t, len(defs), len(Names()))
}

func TestDefinitionUnknownProperty(t *testing.T) {
	d := define(Definition{
		Name:  "broken",
		props: map[string]prop{"nope": {Default: 1}},
	}, func(context.Context, *Deps, alertIDInput) (map[string]any, error) { return nil, nil })

	_, err := d.Tool()
	assert.ErrorContains(t, err, `no input property "nope"`)
}

func TestListTools(t *testing.T) {
	h := newHarness(t, nil)

	res, err := h.session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	tools := map[string]*mcp.Tool{}
	for _, tool := range res.Tools {
		tools[tool.Name] = tool
	}
	assert.Len(t, tools, len(All()))

	disable := tools["disable_detection"]
	require.NotNil(t, disable)
	require.NotNil(t, disable.Annotations)
	assert.False(t, disable.Annotations.ReadOnlyHint)
	require.NotNil(t, disable.Annotations.DestructiveHint)
	assert.True(t, *disable.Annotations.DestructiveHint)
	assert.Equal(t, map[string]any{
		"all_of": []any{"Manage Rules"},
		"any_of": []any{"View Rules", "View Policies"},
	}, disable.Meta["permissions"])

	query := tools["query_data_lake"]
	require.NotNil(t, query)
	assert.True(t, query.Annotations.ReadOnlyHint)
	assert.Equal(t, map[string]any{"all_of": []any{"Query Data Lake"}}, query.Meta["permissions"])

	words := tools["get_reserved_words_info"]
	require.NotNil(t, words)
	assert.Nil(t, words.Meta["permissions"])
}

func TestSchemaConstraints(t *testing.T) {
	byName := map[string]Definition{}
	for _, d := range All() {
		byName[d.Name] = d
	}

	tool, err := byName["list_alerts"].Tool()
	require.NoError(t, err)
	raw, err := json.Marshal(tool.InputSchema)
	require.NoError(t, err)

	var schema struct {
		Required   []string `json:"required"`
		Properties map[string]struct {
			Enum    []any           `json:"enum"`
			Minimum *float64        `json:"minimum"`
			Maximum *float64        `json:"maximum"`
			Default json.RawMessage `json:"default"`
			Items   *struct {
				Enum []any `json:"enum"`
			} `json:"items"`
		} `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(raw, &schema))
	assert.Empty(t, schema.Required)

	page := schema.Properties["page_size"]
	require.NotNil(t, page.Minimum)
	assert.Equal(t, 1.0, *page.Minimum)
	assert.Equal(t, 50.0, *page.Maximum)
	assert.JSONEq(t, `25`, string(page.Default))

	sev := schema.Properties["severities"]
	require.NotNil(t, sev.Items)
	assert.Equal(t, []any{"CRITICAL", "HIGH", "MEDIUM", "LOW", "INFO"}, sev.Items.Enum)
	assert.JSONEq(t, `["CRITICAL","HIGH","MEDIUM","LOW"]`, string(sev.Default))

	assert.Equal(t, []any{"ALERT", "DETECTION_ERROR", "SYSTEM_ERROR"}, schema.Properties["alert_type"].Enum)
}

func TestFailureResult(t *testing.T) {
	res := failure("boom", map[string]any{"query_id": "q-1"})
	assert.True(t, res.IsError)
	text := res.Content[0].(*mcp.TextContent).Text
	assert.JSONEq(t, `{"success": false, "message": "boom", "query_id": "q-1"}`, text)

	res = success(map[string]any{"n": 1})
	assert.False(t, res.IsError)
	assert.JSONEq(t, `{"success": true, "n": 1}`, res.Content[0].(*mcp.TextContent).Text)
}
