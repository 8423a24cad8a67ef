package panther

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/mcp-panther/internal/testutil"
)

func queryNode(id, status string) map[string]any {
	node := map[string]any{"id": id, "status": status, "sql": "SELECT 1"}
	if status == QuerySucceeded {
		node["results"] = map[string]any{
			"edges": []map[string]any{
				{"node": map[string]any{"eventName": "ConsoleLogin"}},
				{"node": map[string]any{"eventName": "AssumeRole"}},
			},
			"pageInfo":   map[string]any{"hasNextPage": true, "endCursor": "c2"},
			"columnInfo": map[string]any{"order": []string{"eventName"}, "types": map[string]string{"eventName": "string"}},
			"stats":      map[string]any{"bytesScanned": 1024, "executionTime": 210, "rowCount": 2},
		}
	}
	return map[string]any{"dataLakeQuery": node}
}

func TestExecuteAndWait(t *testing.T) {
	srv := testutil.NewPantherServer(t)
	srv.HandleGraphQL("ExecuteDataLakeQuery", func(vars map[string]any) (any, []string) {
		return map[string]any{"executeDataLakeQuery": map[string]any{"id": "q-1"}}, nil
	})
	var polls atomic.Int32
	srv.HandleGraphQL("GetDataLakeQuery", func(vars map[string]any) (any, []string) {
		if polls.Add(1) < 3 {
			return queryNode("q-1", QueryRunning), nil
		}
		return queryNode("q-1", QuerySucceeded), nil
	})
	c := newTestClient(t, srv)
	ctx := context.Background()

	id, err := c.ExecuteQuery(ctx, "SELECT 1", "panther_logs.public")
	require.NoError(t, err)
	assert.Equal(t, "q-1", id)

	exec := srv.Calls("ExecuteDataLakeQuery")
	require.Len(t, exec, 1)
	assert.Equal(t, map[string]any{"sql": "SELECT 1", "databaseName": "panther_logs.public"}, exec[0].Variables["input"])

	q, err := c.WaitForQuery(ctx, id, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, QuerySucceeded, q.Status)
	assert.Equal(t, int32(3), polls.Load())
	require.NotNil(t, q.Results)
	assert.Len(t, q.Results.Rows, 2)
	assert.JSONEq(t, `{"eventName":"ConsoleLogin"}`, string(q.Results.Rows[0]))
	assert.Equal(t, []string{"eventName"}, q.Results.ColumnInfo.Order)
	assert.Equal(t, float64(1024), q.Results.Stats.BytesScanned)
	assert.True(t, q.Results.PageInfo.HasNextPage)
	assert.Equal(t, "c2", q.Results.PageInfo.EndCursor)
}

func TestWaitForQueryTimeoutCancels(t *testing.T) {
	srv := testutil.NewPantherServer(t)
	srv.HandleGraphQL("GetDataLakeQuery", func(map[string]any) (any, []string) {
		return queryNode("q-2", QueryRunning), nil
	})
	srv.HandleGraphQL("CancelDataLakeQuery", func(vars map[string]any) (any, []string) {
		return map[string]any{"cancelDataLakeQuery": map[string]any{"id": "q-2"}}, nil
	})
	c := newTestClient(t, srv)

	q, err := c.WaitForQuery(context.Background(), "q-2", 20*time.Millisecond)
	require.ErrorIs(t, err, ErrQueryTimeout)
	assert.Equal(t, QueryRunning, q.Status)

	cancels := srv.Calls("CancelDataLakeQuery")
	require.Len(t, cancels, 1)
	assert.Equal(t, map[string]any{"id": "q-2"}, cancels[0].Variables["input"])
}

func TestWaitForQueryContextCancelled(t *testing.T) {
	srv := testutil.NewPantherServer(t)
	c := newTestClient(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.WaitForQuery(ctx, "q-3", time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetQueryPaging(t *testing.T) {
	srv := testutil.NewPantherServer(t)
	srv.HandleGraphQL("GetDataLakeQuery", func(vars map[string]any) (any, []string) {
		return queryNode("q-4", QuerySucceeded), nil
	})
	c := newTestClient(t, srv)

	_, err := c.GetQuery(context.Background(), "q-4", "c1", 50)
	require.NoError(t, err)
	calls := srv.Calls("GetDataLakeQuery")
	require.Len(t, calls, 1)
	assert.Equal(t, "c1", calls[0].Variables["cursor"])
	assert.Equal(t, float64(50), calls[0].Variables["pageSize"])
}

func TestListTablesFollowsPages(t *testing.T) {
	srv := testutil.NewPantherServer(t)
	srv.HandleGraphQL("ListDatabaseTables", func(vars map[string]any) (any, []string) {
		input := vars["input"].(map[string]any)
		page := map[string]any{
			"edges":    []map[string]any{{"node": map[string]any{"name": "aws_cloudtrail", "logType": "AWS.CloudTrail"}}},
			"pageInfo": map[string]any{"hasNextPage": true, "endCursor": "next"},
		}
		if input["cursor"] == "next" {
			page = map[string]any{
				"edges":    []map[string]any{{"node": map[string]any{"name": "okta_systemlog"}}},
				"pageInfo": map[string]any{"hasNextPage": false},
			}
		}
		return map[string]any{"dataLakeDatabaseTables": page}, nil
	})
	c := newTestClient(t, srv)

	tables, err := c.ListTables(context.Background(), "panther_logs.public")
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "AWS.CloudTrail", tables[0].LogType)
	assert.Equal(t, "okta_systemlog", tables[1].Name)
	assert.Len(t, srv.Calls("ListDatabaseTables"), 2)
}

func TestGetTableSchemaMissing(t *testing.T) {
	srv := testutil.NewPantherServer(t)
	srv.HandleGraphQL("GetColumnDetails", func(map[string]any) (any, []string) {
		return map[string]any{"dataLakeDatabaseTable": nil}, nil
	})
	c := newTestClient(t, srv)

	schema, err := c.GetTableSchema(context.Background(), "panther_logs.public", "nope")
	require.NoError(t, err)
	assert.Nil(t, schema)
}
