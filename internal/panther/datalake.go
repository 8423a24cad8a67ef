package panther

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Data lake query statuses.
const (
	QueryRunning   = "running"
	QuerySucceeded = "succeeded"
	QueryFailed    = "failed"
	QueryCancelled = "cancelled"
)

// ErrQueryTimeout is returned by WaitForQuery when the query was still
// running at the deadline. The query has been cancelled by then.
var ErrQueryTimeout = errors.New("query time exceeded timeout, and has been cancelled")

// ColumnInfo describes the result columns in order.
type ColumnInfo struct {
	Order []string          `json:"order"`
	Types map[string]string `json:"types"`
}

// QueryStats are the execution statistics of a finished query.
type QueryStats struct {
	BytesScanned  float64 `json:"bytesScanned"`
	ExecutionTime float64 `json:"executionTime"`
	RowCount      float64 `json:"rowCount"`
}

// QueryResults is one page of query output.
type QueryResults struct {
	Rows       []json.RawMessage
	PageInfo   PageInfo
	ColumnInfo ColumnInfo
	Stats      QueryStats
}

// Query is the state of a data lake query.
type Query struct {
	ID          string
	Status      string
	Message     string
	SQL         string
	StartedAt   string
	CompletedAt string
	Results     *QueryResults
}

// ExecuteQuery submits sql against database and returns the query ID.
func (c *Client) ExecuteQuery(ctx context.Context, sql, database string) (string, error) {
	var data struct {
		Execute struct {
			ID string `json:"id"`
		} `json:"executeDataLakeQuery"`
	}
	input := map[string]any{"sql": sql, "databaseName": database}
	if err := c.GraphQL(ctx, executeQueryMutation, map[string]any{"input": input}, &data); err != nil {
		return "", err
	}
	if data.Execute.ID == "" {
		return "", errors.New("no query ID returned from execution")
	}
	return data.Execute.ID, nil
}

// GetQuery fetches the status of a query and, once it succeeded, the page
// of results starting at cursor.
func (c *Client) GetQuery(ctx context.Context, id, cursor string, pageSize int) (*Query, error) {
	var data struct {
		Query *struct {
			ID          string `json:"id"`
			Status      string `json:"status"`
			Message     string `json:"message"`
			SQL         string `json:"sql"`
			StartedAt   string `json:"startedAt"`
			CompletedAt string `json:"completedAt"`
			Results     *struct {
				Edges []struct {
					Node json.RawMessage `json:"node"`
				} `json:"edges"`
				PageInfo   PageInfo   `json:"pageInfo"`
				ColumnInfo ColumnInfo `json:"columnInfo"`
				Stats      QueryStats `json:"stats"`
			} `json:"results"`
		} `json:"dataLakeQuery"`
	}
	vars := map[string]any{"id": id, "root": false}
	if cursor != "" {
		vars["cursor"] = cursor
	}
	if pageSize > 0 {
		vars["pageSize"] = pageSize
	}
	if err := c.GraphQL(ctx, getQueryQuery, vars, &data); err != nil {
		return nil, err
	}
	if data.Query == nil {
		return nil, &GraphQLError{Messages: []string{"query " + id + " not found"}}
	}
	q := &Query{
		ID:          data.Query.ID,
		Status:      data.Query.Status,
		Message:     data.Query.Message,
		SQL:         data.Query.SQL,
		StartedAt:   data.Query.StartedAt,
		CompletedAt: data.Query.CompletedAt,
	}
	if r := data.Query.Results; r != nil {
		q.Results = &QueryResults{
			Rows:       make([]json.RawMessage, 0, len(r.Edges)),
			PageInfo:   r.PageInfo,
			ColumnInfo: r.ColumnInfo,
			Stats:      r.Stats,
		}
		for _, e := range r.Edges {
			q.Results.Rows = append(q.Results.Rows, e.Node)
		}
	}
	return q, nil
}

// WaitForQuery polls a query until it leaves the running state. The wait
// between polls starts at the configured poll interval and grows by it on
// every round. If the query is still running after timeout it is cancelled
// and ErrQueryTimeout is returned.
func (c *Client) WaitForQuery(ctx context.Context, id string, timeout time.Duration) (*Query, error) {
	start := time.Now()
	wait := c.pollInterval
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		q, err := c.GetQuery(ctx, id, "", 0)
		if err != nil {
			return nil, err
		}
		if q.Status != QueryRunning {
			return q, nil
		}
		if time.Since(start) >= timeout {
			if err := c.CancelQuery(ctx, id); err != nil {
				c.logger.Warn("failed to cancel timed out query", "query_id", id, "error", err)
			}
			return q, ErrQueryTimeout
		}

		wait = min(wait+c.pollInterval, c.maxPollInterval)
		timer.Reset(wait)
	}
}

// CancelQuery cancels a running query.
func (c *Client) CancelQuery(ctx context.Context, id string) error {
	var data struct {
		Cancel struct {
			ID string `json:"id"`
		} `json:"cancelDataLakeQuery"`
	}
	return c.GraphQL(ctx, cancelQueryMutation, map[string]any{"input": map[string]any{"id": id}}, &data)
}

// QueriesInput filters the data lake query history.
type QueriesInput struct {
	PageSize      int      `json:"pageSize,omitempty"`
	Cursor        string   `json:"cursor,omitempty"`
	Status        []string `json:"status,omitempty"`
	Contains      string   `json:"contains,omitempty"`
	IsScheduled   *bool    `json:"isScheduled,omitempty"`
	StartedAfter  string   `json:"startedAtAfter,omitempty"`
	StartedBefore string   `json:"startedAtBefore,omitempty"`
}

// ListQueries returns one page of the query history.
func (c *Client) ListQueries(ctx context.Context, in QueriesInput) ([]Object, PageInfo, error) {
	var data struct {
		Queries struct {
			Edges []struct {
				Node Object `json:"node"`
			} `json:"edges"`
			PageInfo PageInfo `json:"pageInfo"`
		} `json:"dataLakeQueries"`
	}
	if err := c.GraphQL(ctx, listQueriesQuery, map[string]any{"input": in}, &data); err != nil {
		return nil, PageInfo{}, err
	}
	out := make([]Object, 0, len(data.Queries.Edges))
	for _, e := range data.Queries.Edges {
		out = append(out, e.Node)
	}
	return out, data.Queries.PageInfo, nil
}

// Database is a data lake database.
type Database struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListDatabases returns every data lake database.
func (c *Client) ListDatabases(ctx context.Context) ([]Database, error) {
	var data struct {
		Databases []Database `json:"dataLakeDatabases"`
	}
	if err := c.GraphQL(ctx, listDatabasesQuery, nil, &data); err != nil {
		return nil, err
	}
	return data.Databases, nil
}

// Table is a data lake table.
type Table struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	LogType     string `json:"logType"`
}

const tablePageSize = 100

// ListTables returns every table of database, following pagination.
func (c *Client) ListTables(ctx context.Context, database string) ([]Table, error) {
	var (
		tables []Table
		cursor string
	)
	for {
		input := map[string]any{"databaseName": database, "pageSize": tablePageSize}
		if cursor != "" {
			input["cursor"] = cursor
		}
		var data struct {
			Tables struct {
				Edges []struct {
					Node Table `json:"node"`
				} `json:"edges"`
				PageInfo PageInfo `json:"pageInfo"`
			} `json:"dataLakeDatabaseTables"`
		}
		if err := c.GraphQL(ctx, listTablesQuery, map[string]any{"input": input}, &data); err != nil {
			return nil, err
		}
		for _, e := range data.Tables.Edges {
			tables = append(tables, e.Node)
		}
		if !data.Tables.PageInfo.HasNextPage || data.Tables.PageInfo.EndCursor == "" {
			return tables, nil
		}
		cursor = data.Tables.PageInfo.EndCursor
	}
}

// Column is a data lake table column.
type Column struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// TableSchema is a table with its columns.
type TableSchema struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description"`
	LogType     string   `json:"logType"`
	Columns     []Column `json:"columns"`
}

// GetTableSchema returns the columns of database.table, or nil when the
// table does not exist.
func (c *Client) GetTableSchema(ctx context.Context, database, table string) (*TableSchema, error) {
	var data struct {
		Table *TableSchema `json:"dataLakeDatabaseTable"`
	}
	vars := map[string]any{"databaseName": database, "tableName": table}
	if err := c.GraphQL(ctx, tableColumnsQuery, vars, &data); err != nil {
		return nil, err
	}
	return data.Table, nil
}
