package tools

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/mcp-panther/internal/testutil"
)

func TestListAlerts(t *testing.T) {
	h := newHarness(t, nil)
	h.api.HandleGraphQL("FirstPageOfAllAlerts", func(map[string]any) (any, []string) {
		return map[string]any{"alerts": map[string]any{
			"edges":    []map[string]any{{"node": map[string]any{"id": "a-1", "title": "Root login"}}},
			"pageInfo": map[string]any{"hasNextPage": true, "endCursor": "next"},
		}}, nil
	})

	out, isErr := h.call(t, "list_alerts", map[string]any{"severities": []string{"HIGH"}})
	require.False(t, isErr, out)
	assert.Equal(t, 1.0, out["total_alerts"])
	assert.Equal(t, true, out["has_next_page"])
	assert.Equal(t, "next", out["end_cursor"])
	assert.Nil(t, out["start_cursor"])

	input := h.api.Calls("FirstPageOfAllAlerts")[0].Variables["input"].(map[string]any)
	assert.Equal(t, []any{"HIGH"}, input["severities"])
	assert.Equal(t, "ALERT", input["type"])
	assert.Equal(t, "createdAt", input["sortBy"])
	assert.Equal(t, "descending", input["sortDir"])
	assert.Equal(t, "2024-03-13T15:04:05.000Z", input["createdAtAfter"])
	assert.Equal(t, "2024-03-20T15:04:05.000Z", input["createdAtBefore"])
}

func TestListAlertsByDetectionSkipsDates(t *testing.T) {
	h := newHarness(t, nil)
	h.api.HandleGraphQL("FirstPageOfAllAlerts", func(map[string]any) (any, []string) {
		return map[string]any{"alerts": map[string]any{"edges": []any{}}}, nil
	})

	_, isErr := h.call(t, "list_alerts", map[string]any{"detection_id": "AWS.Root.Login"})
	require.False(t, isErr)
	input := h.api.Calls("FirstPageOfAllAlerts")[0].Variables["input"].(map[string]any)
	assert.Equal(t, "AWS.Root.Login", input["detectionId"])
	assert.NotContains(t, input, "createdAtAfter")
}

func TestValidateSubtypes(t *testing.T) {
	assert.NoError(t, validateSubtypes("ALERT", []string{"RULE", "POLICY"}))
	assert.NoError(t, validateSubtypes("SYSTEM_ERROR", nil))
	assert.ErrorContains(t, validateSubtypes("ALERT", []string{"RULE_ERROR"}), "valid subtypes are: POLICY, RULE, SCHEDULED_RULE")
	assert.ErrorContains(t, validateSubtypes("SYSTEM_ERROR", []string{"RULE"}), "not allowed")
	assert.ErrorContains(t, validateSubtypes("OTHER", nil), "invalid alert_type")
}

func TestGetAlertMissing(t *testing.T) {
	h := newHarness(t, nil)
	h.api.HandleGraphQL("GetAlertById", func(map[string]any) (any, []string) {
		return map[string]any{"alert": nil}, nil
	})

	out, isErr := h.call(t, "get_alert", map[string]any{"alert_id": "a-404"})
	assert.True(t, isErr)
	assert.Equal(t, "no alert found with ID: a-404", out["message"])
}

func TestAlertMutations(t *testing.T) {
	h := newHarness(t, nil)
	h.api.HandleGraphQL("UpdateAlertStatusById", func(vars map[string]any) (any, []string) {
		input := vars["input"].(map[string]any)
		return map[string]any{"updateAlertStatusById": map[string]any{
			"alerts": []map[string]any{{"id": input["ids"].([]any)[0], "status": input["status"]}},
		}}, nil
	})
	h.api.HandleGraphQL("CreateAlertComment", func(vars map[string]any) (any, []string) {
		input := vars["input"].(map[string]any)
		return map[string]any{"createAlertComment": map[string]any{
			"comment": map[string]any{"id": "c-1", "body": input["body"]},
		}}, nil
	})

	out, isErr := h.call(t, "update_alert_status", map[string]any{"alert_ids": []string{"a-1"}, "status": "RESOLVED"})
	require.False(t, isErr, out)
	assert.Equal(t, "RESOLVED", out["alerts"].([]any)[0].(map[string]any)["status"])

	out, isErr = h.call(t, "add_alert_comment", map[string]any{"alert_id": "a-1", "comment": "**triaged**"})
	require.False(t, isErr, out)
	assert.Equal(t, "**triaged**", out["comment"].(map[string]any)["body"])

	out, isErr = h.call(t, "add_alert_comment", map[string]any{"alert_id": "a-1", "comment": "   "})
	assert.True(t, isErr)
	assert.Equal(t, "comment cannot be empty", out["message"])
}

func TestGetAlertEventsClampsLimit(t *testing.T) {
	h := newHarness(t, nil)
	var limit string
	h.api.HandleREST(http.MethodGet, "/alerts/{id}/events", func(w http.ResponseWriter, r *http.Request) {
		limit = r.URL.Query().Get("limit")
		testutil.WriteJSON(w, http.StatusOK, map[string]any{
			"results": []map[string]any{{"alert": chi.URLParam(r, "id")}},
		})
	})

	out, isErr := h.call(t, "get_alert_events", map[string]any{"alert_id": "a-1", "limit": 50})
	require.False(t, isErr, out)
	assert.Equal(t, "10", limit)
	assert.Equal(t, 1.0, out["total_events"])
}
