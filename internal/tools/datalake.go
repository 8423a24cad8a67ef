package tools

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/leapstack-labs/mcp-panther/internal/panther"
	"github.com/leapstack-labs/mcp-panther/internal/permissions"
	"github.com/leapstack-labs/mcp-panther/pkg/dialect"
	"github.com/leapstack-labs/mcp-panther/pkg/sqlguard"
)

const (
	defaultDatabase     = "panther_logs.public"
	signalsDatabase     = "panther_signals.public"
	defaultQueryTimeout = 30
	maxQueryTimeout     = 300
)

var (
	queryStatuses      = []string{panther.QueryRunning, panther.QuerySucceeded, panther.QueryFailed, panther.QueryCancelled}
	summaryTimeWindows = []int{1, 5, 15, 30, 60}
	alertIDPattern     = regexp.MustCompile(`^[A-Za-z0-9_.:-]+$`)
)

type queryDataLakeInput struct {
	SQL          string `json:"sql" jsonschema:"The SQL query to execute. Must include a p_event_time filter and fully qualified table names (e.g. panther_logs.public.aws_cloudtrail)."`
	DatabaseName string `json:"database_name,omitempty" jsonschema:"The database to query"`
	Timeout      int    `json:"timeout,omitempty" jsonschema:"Seconds to wait before the query is cancelled. Retry with a longer timeout if a query is cancelled."`
}

type queryResultsInput struct {
	QueryID  string `json:"query_id" jsonschema:"The ID of the data lake query"`
	Cursor   string `json:"cursor,omitempty" jsonschema:"Cursor for the next page of results"`
	PageSize int    `json:"page_size,omitempty" jsonschema:"Number of rows per page"`
}

type listQueriesInput struct {
	Cursor      string   `json:"cursor,omitempty" jsonschema:"Cursor for pagination from a previous query"`
	PageSize    int      `json:"page_size,omitempty" jsonschema:"Number of queries per page"`
	Status      []string `json:"status,omitempty" jsonschema:"Only return queries with these statuses"`
	IsScheduled *bool    `json:"is_scheduled,omitempty" jsonschema:"Only return scheduled (true) or ad hoc (false) queries"`
	Contains    string   `json:"contains,omitempty" jsonschema:"Only return queries whose SQL or name contains this text"`
}

type queryIDInput struct {
	QueryID string `json:"query_id" jsonschema:"The ID of the data lake query"`
}

type databaseInput struct {
	Database string `json:"database" jsonschema:"The database, for example panther_logs.public"`
}

type tableSchemaInput struct {
	DatabaseName string `json:"database_name" jsonschema:"The database, for example panther_logs.public"`
	TableName    string `json:"table_name" jsonschema:"The table, for example aws_cloudtrail"`
}

type summarizeAlertEventsInput struct {
	AlertIDs   []string `json:"alert_ids" jsonschema:"IDs of the alerts to analyze"`
	TimeWindow int      `json:"time_window,omitempty" jsonschema:"The time window in minutes to group distinct events by"`
	StartDate  string   `json:"start_date,omitempty" jsonschema:"Start of the analysis period in ISO 8601. Defaults to the start of today UTC."`
	EndDate    string   `json:"end_date,omitempty" jsonschema:"End of the analysis period in ISO 8601. Defaults to the end of today UTC."`
}

type sampleEventsInput struct {
	SchemaName string `json:"schema_name" jsonschema:"The log type, for example AWS.CloudTrail"`
}

type noInput struct{}

func dataLakeTools() []Definition {
	read := permissions.All(permissions.DataAnalyticsRead)
	return []Definition{
		define(Definition{
			Name:  "query_data_lake",
			Title: "Query Data Lake",
			Description: "Run a SQL query against the Panther data lake and wait for its first page of results. " +
				"Queries must filter on p_event_time and use fully qualified table names. Reserved words used " +
				"as column names are quoted automatically; see get_reserved_words_info.",
			ReadOnly:    true,
			Permissions: read,
			props: map[string]prop{
				"database_name": {Default: defaultDatabase},
				"timeout":       limits(1, maxQueryTimeout, defaultQueryTimeout),
			},
		}, queryDataLake),
		define(Definition{
			Name:        "get_query_results",
			Title:       "Get Query Results",
			Description: "Get the status of a data lake query and a page of its results.",
			ReadOnly:    true,
			Permissions: read,
			props: map[string]prop{
				"page_size": limits(1, 999, 999),
			},
		}, getQueryResults),
		define(Definition{
			Name:        "list_data_lake_queries",
			Title:       "List Data Lake Queries",
			Description: "List recent data lake queries, for example to find running queries to cancel.",
			ReadOnly:    true,
			Permissions: read,
			props: map[string]prop{
				"page_size": limits(1, 999, 25),
				"status":    choices(nil, queryStatuses...),
			},
		}, listDataLakeQueries),
		define(Definition{
			Name:        "cancel_data_lake_query",
			Title:       "Cancel Data Lake Query",
			Description: "Cancel a running data lake query. Use list_data_lake_queries with status running to find one.",
			Destructive: true,
			Permissions: read,
		}, cancelDataLakeQuery),
		define(Definition{
			Name:        "list_databases",
			Title:       "List Databases",
			Description: "List the databases in the Panther data lake.",
			ReadOnly:    true,
			Permissions: read,
		}, listDatabases),
		define(Definition{
			Name:        "list_database_tables",
			Title:       "List Database Tables",
			Description: "List every table of a data lake database.",
			ReadOnly:    true,
			Permissions: read,
		}, listDatabaseTables),
		define(Definition{
			Name:        "get_table_schema",
			Title:       "Get Table Schema",
			Description: "Get the columns and types of a data lake table.",
			ReadOnly:    true,
			Permissions: read,
		}, getTableSchema),
		define(Definition{
			Name:  "summarize_alert_events",
			Title: "Summarize Alert Events",
			Description: "Group the events of several alerts into time windows, collecting the IPs, emails, " +
				"usernames, trace IDs, rules and severities seen in each window, most recent first.",
			ReadOnly:    true,
			Permissions: read,
			props: map[string]prop{
				"time_window": intChoices(30, summaryTimeWindows...),
			},
		}, summarizeAlertEvents),
		define(Definition{
			Name:        "get_sample_log_events",
			Title:       "Get Sample Log Events",
			Description: "Get the ten most recent events of a log type from the last seven days.",
			ReadOnly:    true,
			Permissions: read,
		}, getSampleLogEvents),
		define(Definition{
			Name:        "get_reserved_words_info",
			Title:       "Get Reserved Words Info",
			Description: "List the reserved words of the configured datastore and how queries may use them.",
			ReadOnly:    true,
		}, getReservedWordsInfo),
		define(Definition{
			Name:        "get_query_syntax_help",
			Title:       "Get Query Syntax Help",
			Description: "Explain the SQL conventions of the configured datastore: table references, dates and quoting.",
			ReadOnly:    true,
		}, getQuerySyntaxHelp),
	}
}

func (d *Deps) dialect() *dialect.Dialect {
	return d.sanitizer().Dialect()
}

// prepareQuery validates sql and rewrites it for the datastore.
func (d *Deps) prepareQuery(sql, database string) (string, string, error) {
	if database == "" {
		database = defaultDatabase
	}
	if err := sqlguard.ValidateDatabaseName(database); err != nil {
		return "", "", err
	}
	if err := sqlguard.ValidateBasic(sql); err != nil {
		return "", "", err
	}
	if err := sqlguard.ValidateTimeFilter(sql); err != nil {
		return "", "", err
	}
	if err := sqlguard.ValidateFullyQualifiedTables(sql); err != nil {
		return "", "", err
	}
	sanitized, err := d.sanitizer().Sanitize(sql)
	if err != nil {
		return "", "", &callError{msg: "Query contains forbidden keyword usage: " + err.Error()}
	}
	dl := d.dialect()
	return dl.RewriteTableReferences(sanitized), dl.DatabaseReference(strings.ToLower(strings.TrimSpace(database))), nil
}

// runQuery validates, submits and waits for a query.
func (d *Deps) runQuery(ctx context.Context, sql, database string, timeout time.Duration) (map[string]any, error) {
	prepared, db, err := d.prepareQuery(sql, database)
	if err != nil {
		return nil, err
	}
	id, err := d.Client.ExecuteQuery(ctx, prepared, db)
	if err != nil {
		return nil, fmt.Errorf("failed to execute data lake query: %w", err)
	}
	d.logger().Info("submitted data lake query", "query_id", id, "database", db)

	q, err := d.Client.WaitForQuery(ctx, id, timeout)
	if errors.Is(err, panther.ErrQueryTimeout) {
		return nil, &callError{
			msg: "Query time exceeded timeout, and has been cancelled. A longer timeout may be required. " +
				"Retrying may be faster due to caching, or you may need to reduce the duration of data being queried.",
			fields: map[string]any{"status": panther.QueryCancelled, "query_id": id},
		}
	}
	if err != nil {
		return nil, &callError{
			msg:    fmt.Sprintf("failed to get query results: %v", err),
			fields: map[string]any{"query_id": id},
		}
	}
	return queryPayload(q)
}

// queryPayload renders a query state as a tool result.
func queryPayload(q *panther.Query) (map[string]any, error) {
	switch q.Status {
	case panther.QueryRunning:
		return map[string]any{
			"status":   q.Status,
			"message":  "Query is still running",
			"query_id": q.ID,
		}, nil
	case panther.QueryFailed:
		msg := q.Message
		if msg == "" {
			msg = "Query failed"
		}
		return nil, &callError{msg: msg, fields: map[string]any{"status": q.Status, "query_id": q.ID}}
	case panther.QueryCancelled:
		return nil, &callError{msg: "Query was cancelled", fields: map[string]any{"status": q.Status, "query_id": q.ID}}
	}

	out := map[string]any{
		"status":        q.Status,
		"query_id":      q.ID,
		"message":       q.Message,
		"results":       []any{},
		"column_info":   map[string]any{"order": []string{}, "types": map[string]string{}},
		"stats":         map[string]any{"bytes_scanned": 0, "execution_time": 0, "row_count": 0},
		"has_next_page": false,
		"end_cursor":    nil,
	}
	if r := q.Results; r != nil {
		out["results"] = r.Rows
		out["column_info"] = map[string]any{"order": r.ColumnInfo.Order, "types": r.ColumnInfo.Types}
		out["stats"] = map[string]any{
			"bytes_scanned":  r.Stats.BytesScanned,
			"execution_time": r.Stats.ExecutionTime,
			"row_count":      r.Stats.RowCount,
		}
		out["has_next_page"] = r.PageInfo.HasNextPage
		out["end_cursor"] = nullable(r.PageInfo.EndCursor)
	}
	return out, nil
}

func queryDataLake(ctx context.Context, d *Deps, in queryDataLakeInput) (map[string]any, error) {
	timeout := in.Timeout
	if timeout == 0 {
		timeout = defaultQueryTimeout
	}
	if timeout < 1 || timeout > maxQueryTimeout {
		return nil, fmt.Errorf("timeout must be between 1 and %d seconds, got %d", maxQueryTimeout, timeout)
	}
	return d.runQuery(ctx, in.SQL, in.DatabaseName, time.Duration(timeout)*time.Second)
}

func getQueryResults(ctx context.Context, d *Deps, in queryResultsInput) (map[string]any, error) {
	q, err := d.Client.GetQuery(ctx, in.QueryID, in.Cursor, in.PageSize)
	if panther.IsNotFound(err) {
		return nil, fmt.Errorf("query %s not found", in.QueryID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get query results: %w", err)
	}
	return queryPayload(q)
}

func listDataLakeQueries(ctx context.Context, d *Deps, in listQueriesInput) (map[string]any, error) {
	for _, s := range in.Status {
		if !slices.Contains(queryStatuses, s) {
			return nil, fmt.Errorf("invalid status %q: must be one of %s", s, strings.Join(queryStatuses, ", "))
		}
	}
	pageSize := in.PageSize
	if pageSize <= 0 {
		pageSize = 25
	}
	nodes, page, err := d.Client.ListQueries(ctx, panther.QueriesInput{
		PageSize:    pageSize,
		Cursor:      in.Cursor,
		Status:      in.Status,
		Contains:    in.Contains,
		IsScheduled: in.IsScheduled,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list data lake queries: %w", err)
	}

	queries := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		queries = append(queries, map[string]any{
			"id":           n["id"],
			"sql":          n["sql"],
			"name":         n["name"],
			"status":       n["status"],
			"message":      n["message"],
			"started_at":   n["startedAt"],
			"completed_at": n["completedAt"],
			"is_scheduled": n["isScheduled"] == true,
			"issued_by":    issuer(n["issuedBy"]),
		})
	}
	return map[string]any{
		"queries":       queries,
		"total_queries": len(queries),
		"has_next_page": page.HasNextPage,
		"end_cursor":    nullable(page.EndCursor),
	}, nil
}

// issuer flattens the issuedBy union into a user or an API token.
func issuer(v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return nil
	}
	if email, ok := m["email"]; ok {
		return map[string]any{
			"type":        "user",
			"id":          m["id"],
			"email":       email,
			"given_name":  m["givenName"],
			"family_name": m["familyName"],
		}
	}
	return map[string]any{"type": "api_token", "id": m["id"], "name": m["name"]}
}

func cancelDataLakeQuery(ctx context.Context, d *Deps, in queryIDInput) (map[string]any, error) {
	err := d.Client.CancelQuery(ctx, in.QueryID)
	if err == nil {
		return map[string]any{
			"query_id": in.QueryID,
			"message":  fmt.Sprintf("Successfully cancelled query %s", in.QueryID),
		}, nil
	}

	var gqlErr *panther.GraphQLError
	switch {
	case panther.IsNotFound(err):
		return nil, fmt.Errorf("query %s not found. It may have already completed or been cancelled", in.QueryID)
	case errors.As(err, &gqlErr) && (gqlErr.Contains("cannot be cancelled") || gqlErr.Contains("not running")):
		return nil, fmt.Errorf("query %s cannot be cancelled. Only running queries can be cancelled", in.QueryID)
	case panther.StatusCode(err) == 401 || panther.StatusCode(err) == 403,
		errors.As(err, &gqlErr) && (gqlErr.Contains("permission") || gqlErr.Contains("unauthorized")):
		return nil, fmt.Errorf("permission denied. You may not have permission to cancel query %s", in.QueryID)
	}
	return nil, fmt.Errorf("failed to cancel query %s: %w", in.QueryID, err)
}

func listDatabases(ctx context.Context, d *Deps, _ noInput) (map[string]any, error) {
	dbs, err := d.Client.ListDatabases(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	if len(dbs) == 0 {
		return nil, errors.New("no databases found")
	}
	return map[string]any{
		"status":    panther.QuerySucceeded,
		"databases": dbs,
		"stats":     map[string]any{"database_count": len(dbs)},
	}, nil
}

func listDatabaseTables(ctx context.Context, d *Deps, in databaseInput) (map[string]any, error) {
	if err := sqlguard.ValidateDatabaseName(in.Database); err != nil {
		return nil, err
	}
	db := strings.ToLower(strings.TrimSpace(in.Database))
	tables, err := d.Client.ListTables(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return map[string]any{
		"status":   panther.QuerySucceeded,
		"database": db,
		"tables":   tables,
		"stats":    map[string]any{"table_count": len(tables)},
	}, nil
}

func getTableSchema(ctx context.Context, d *Deps, in tableSchemaInput) (map[string]any, error) {
	if err := sqlguard.ValidateDatabaseName(in.DatabaseName); err != nil {
		return nil, err
	}
	db := strings.ToLower(strings.TrimSpace(in.DatabaseName))
	table := strings.TrimSpace(in.TableName)
	if table == "" {
		return nil, errors.New("table_name cannot be empty")
	}
	schema, err := d.Client.GetTableSchema(ctx, db, table)
	if err != nil && !panther.IsNotFound(err) {
		return nil, fmt.Errorf("failed to get table schema: %w", err)
	}
	if schema == nil || len(schema.Columns) == 0 {
		return nil, fmt.Errorf("no columns found for table: %s.%s", db, table)
	}
	return map[string]any{
		"status":       panther.QuerySucceeded,
		"name":         schema.Name,
		"display_name": schema.DisplayName,
		"description":  schema.Description,
		"log_type":     schema.LogType,
		"columns":      schema.Columns,
		"stats":        map[string]any{"column_count": len(schema.Columns)},
	}, nil
}

func summarizeAlertEvents(ctx context.Context, d *Deps, in summarizeAlertEventsInput) (map[string]any, error) {
	window := in.TimeWindow
	if window == 0 {
		window = 30
	}
	if !slices.Contains(summaryTimeWindows, window) {
		return nil, errors.New("time window must be 1, 5, 15, 30, or 60")
	}
	if len(in.AlertIDs) == 0 {
		return nil, errors.New("at least one alert ID is required")
	}
	quoted := make([]string, len(in.AlertIDs))
	for i, id := range in.AlertIDs {
		if !alertIDPattern.MatchString(id) {
			return nil, fmt.Errorf("invalid alert ID %q", id)
		}
		quoted[i] = "'" + id + "'"
	}

	start, end := panther.TodayRange(d.now())
	if in.StartDate != "" || in.EndDate != "" {
		var err error
		if start, end, err = panther.DateRange(in.StartDate, in.EndDate, d.now()); err != nil {
			return nil, err
		}
	}

	sql := fmt.Sprintf(alertSummarySQL, window, strings.Join(quoted, ", "), start, end)
	return d.runQuery(ctx, sql, signalsDatabase, defaultQueryTimeout*time.Second)
}

// alertSummarySQL groups correlation signals into time windows. Arguments:
// window minutes, alert ID list, start, end.
const alertSummarySQL = `SELECT
    DATE_TRUNC('DAY', cs.p_event_time) AS event_day,
    DATE_TRUNC('MINUTE', DATEADD('MINUTE', %[1]d * FLOOR(EXTRACT(MINUTE FROM cs.p_event_time) / %[1]d),
        DATE_TRUNC('HOUR', cs.p_event_time))) AS time_%[1]d_minute,
    cs.p_log_type,
    cs.p_any_ip_addresses AS source_ips,
    cs.p_any_emails AS emails,
    cs.p_any_usernames AS usernames,
    cs.p_any_trace_ids AS trace_ids,
    COUNT(DISTINCT cs.p_alert_id) AS alert_count,
    ARRAY_AGG(DISTINCT cs.p_alert_id) AS alert_ids,
    ARRAY_AGG(DISTINCT cs.p_rule_id) AS rule_ids,
    MIN(cs.p_event_time) AS first_event,
    MAX(cs.p_event_time) AS last_event,
    ARRAY_AGG(DISTINCT cs.p_alert_severity) AS severities
FROM
    panther_signals.public.correlation_signals cs
WHERE
    cs.p_alert_id IN (%[2]s)
AND
    cs.p_event_time BETWEEN '%[3]s' AND '%[4]s'
GROUP BY
    event_day,
    time_%[1]d_minute,
    cs.p_log_type,
    cs.p_any_ip_addresses,
    cs.p_any_emails,
    cs.p_any_usernames,
    cs.p_any_trace_ids
HAVING
    COUNT(DISTINCT cs.p_alert_id) > 0
ORDER BY
    event_day DESC,
    time_%[1]d_minute DESC,
    alert_count DESC
LIMIT 1000`

func getSampleLogEvents(ctx context.Context, d *Deps, in sampleEventsInput) (map[string]any, error) {
	if strings.TrimSpace(in.SchemaName) == "" {
		return nil, errors.New("schema_name cannot be empty")
	}
	dl := d.dialect()
	table := sqlguard.NormalizeName(strings.TrimSpace(in.SchemaName))
	since := dl.DateAdd("day", -7, dl.TimestampFunction())
	sql := fmt.Sprintf("SELECT * FROM %s.%s WHERE p_event_time >= %s ORDER BY p_event_time DESC LIMIT 10",
		defaultDatabase, table, since)
	return d.runQuery(ctx, sql, defaultDatabase, defaultQueryTimeout*time.Second)
}

func getReservedWordsInfo(_ context.Context, d *Deps, _ noInput) (map[string]any, error) {
	dl := d.dialect()
	return map[string]any{
		"datastore_type":               dl.Name,
		"quotable_reserved_words":      dl.Words(dialect.AutoQuotable),
		"forbidden_scalar_expressions": dl.Words(dialect.ForbiddenScalar),
		"forbidden_column_names":       dl.Words(dialect.ForbiddenColumn),
		"forbidden_table_names":        dl.Words(dialect.ForbiddenFromClause),
		"total_reserved_words":         dl.Len(),
		"quoting": fmt.Sprintf("Column names matching a quotable reserved word are wrapped in %s automatically, "+
			"e.g. SELECT action becomes SELECT %s. Forbidden words are rejected and must be renamed or avoided.",
			dl.Quote, dl.QuoteIdentifier("action")),
	}, nil
}

func getQuerySyntaxHelp(_ context.Context, d *Deps, _ noInput) (map[string]any, error) {
	dl := d.dialect()
	refs := "REQUIRED: Use fully qualified table references (database.table or database.schema.table), " +
		"e.g. panther_logs.public.aws_cloudtrail. "
	if dl.StripsPublicSchema() {
		refs += "References such as panther_logs.public.aws_cloudtrail are automatically converted to remove .public " +
			"(panther_logs.aws_cloudtrail)."
	} else {
		refs += "References such as panther_logs.public.aws_cloudtrail are preserved for Snowflake."
	}
	now := dl.TimestampFunction()
	return map[string]any{
		"datastore_type":      dl.Name,
		"database_references": refs,
		"date_functions": fmt.Sprintf("Current time: %s. One day ago: %s. Always filter on p_event_time, e.g. "+
			"WHERE p_event_time >= %s, or use p_occurs_since('1 day').", now, dl.DateAdd("day", -1, now), dl.DateAdd("day", -1, now)),
		"reserved_words": "Reserved words used as column names are quoted automatically. " +
			"Call get_reserved_words_info for the full list.",
		"limits": fmt.Sprintf("Queries may be at most %d characters. Results are returned in pages of up to 999 rows.",
			sqlguard.MaxQueryLength),
	}, nil
}
