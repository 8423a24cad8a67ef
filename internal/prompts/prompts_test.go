package prompts

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T) *mcp.ClientSession {
	t.Helper()
	srv := mcp.NewServer(&mcp.Implementation{Name: "mcp-panther", Version: "test"}, nil)
	Register(srv)

	ctx := context.Background()
	ct, st := mcp.NewInMemoryTransports()
	ss, err := srv.Connect(ctx, st, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })
	cs, err := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "test"}, nil).Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func TestListPrompts(t *testing.T) {
	cs := connect(t)
	res, err := cs.ListPrompts(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, p := range res.Prompts {
		names = append(names, p.Name)
		require.Len(t, p.Arguments, 2)
		assert.True(t, p.Arguments[0].Required)
	}
	assert.ElementsMatch(t, Names(), names)
}

func TestGetPrompt(t *testing.T) {
	cs := connect(t)
	res, err := cs.GetPrompt(context.Background(), &mcp.GetPromptParams{
		Name: "get_alerts_by_timeframe",
		Arguments: map[string]string{
			"start_date": "2025-04-22T00:00:00Z",
			"end_date":   "2025-04-23T00:00:00Z",
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, mcp.Role("user"), res.Messages[0].Role)
	text := res.Messages[0].Content.(*mcp.TextContent).Text
	assert.Contains(t, text, "List all alerts created between 2025-04-22T00:00:00Z and 2025-04-23T00:00:00Z.")

	res, err = cs.GetPrompt(context.Background(), &mcp.GetPromptParams{
		Name:      "list_and_prioritize_alerts",
		Arguments: map[string]string{"start_date": "a", "end_date": "b"},
	})
	require.NoError(t, err)
	assert.Contains(t, res.Messages[0].Content.(*mcp.TextContent).Text, "summarize_alert_events")
}

func TestGetPromptMissingArguments(t *testing.T) {
	cs := connect(t)
	_, err := cs.GetPrompt(context.Background(), &mcp.GetPromptParams{
		Name:      "list_and_prioritize_alerts",
		Arguments: map[string]string{"start_date": "2025-04-22T00:00:00Z"},
	})
	assert.ErrorContains(t, err, "end_date")
}
