package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/leapstack-labs/mcp-panther/internal/panther"
	"github.com/leapstack-labs/mcp-panther/internal/permissions"
	"github.com/leapstack-labs/mcp-panther/pkg/sqlguard"
)

type listSavedQueriesInput struct {
	Cursor       string `json:"cursor,omitempty" jsonschema:"Cursor for pagination from a previous query"`
	Limit        int    `json:"limit,omitempty" jsonschema:"Maximum number of results to return"`
	NameContains string `json:"name_contains,omitempty" jsonschema:"Case-insensitive substring to filter saved query names"`
}

type savedQueryIDInput struct {
	QueryID string `json:"query_id" jsonschema:"The UUID of the saved query"`
}

type createSavedQueryInput struct {
	Name           string `json:"name" jsonschema:"The name of the saved query"`
	SQL            string `json:"sql" jsonschema:"The SQL of the saved query. Must filter on p_event_time."`
	Description    string `json:"description,omitempty" jsonschema:"A description of what the query does"`
	Enabled        bool   `json:"enabled,omitempty" jsonschema:"Whether the query runs on a schedule. Requires cron_expression."`
	CronExpression string `json:"cron_expression,omitempty" jsonschema:"Five-field cron schedule, e.g. '0 9 * * 1' for Mondays at 09:00 UTC"`
	TimeoutMinutes int    `json:"timeout_minutes,omitempty" jsonschema:"Minutes a scheduled run may take before it is cancelled"`
}

func savedQueryTools() []Definition {
	return []Definition{
		define(Definition{
			Name:        "list_saved_queries",
			Title:       "List Saved Queries",
			Description: "List saved data lake queries. The SQL of each query is omitted; use get_saved_query for it.",
			ReadOnly:    true,
			Permissions: permissions.All(permissions.DataAnalyticsRead),
			props: map[string]prop{
				"limit": limits(1, 1000, 100),
			},
		}, listSavedQueries),
		define(Definition{
			Name:        "get_saved_query",
			Title:       "Get Saved Query",
			Description: "Get a saved data lake query, including its SQL and schedule.",
			ReadOnly:    true,
			Permissions: permissions.All(permissions.DataAnalyticsRead),
		}, getSavedQuery),
		define(Definition{
			Name:  "create_saved_query",
			Title: "Create Saved Query",
			Description: "Save a data lake query, optionally scheduled with a cron expression. " +
				"The SQL is validated the same way as query_data_lake.",
			Permissions: permissions.All(permissions.DataAnalyticsModify),
			props: map[string]prop{
				"timeout_minutes": limits(1, 300, 30),
			},
		}, createSavedQuery),
	}
}

func listSavedQueries(ctx context.Context, d *Deps, in listSavedQueriesInput) (map[string]any, error) {
	limit := in.Limit
	if limit == 0 {
		limit = 100
	}
	if limit < 1 || limit > 1000 {
		return nil, fmt.Errorf("limit must be between 1 and 1000, got %d", limit)
	}
	page, err := d.Client.List(ctx, "/queries", limit, in.Cursor, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved queries: %w", err)
	}

	needle := strings.ToLower(in.NameContains)
	queries := make([]panther.Object, 0, len(page.Results))
	for _, q := range page.Results {
		name, _ := q["name"].(string)
		if needle != "" && !strings.Contains(strings.ToLower(name), needle) {
			continue
		}
		delete(q, "sql")
		queries = append(queries, q)
	}
	return map[string]any{
		"queries":       queries,
		"total_queries": len(queries),
		"has_next_page": page.Next != "",
		"next_cursor":   nullable(page.Next),
	}, nil
}

func getSavedQuery(ctx context.Context, d *Deps, in savedQueryIDInput) (map[string]any, error) {
	if _, err := uuid.Parse(in.QueryID); err != nil {
		return nil, fmt.Errorf("invalid query ID %q: must be a UUID", in.QueryID)
	}
	q, err := d.Client.Fetch(ctx, "/queries/"+in.QueryID)
	if panther.IsNotFound(err) {
		return nil, fmt.Errorf("no saved query found with ID: %s", in.QueryID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch saved query: %w", err)
	}
	return map[string]any{"query": q}, nil
}

func createSavedQuery(ctx context.Context, d *Deps, in createSavedQueryInput) (map[string]any, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errors.New("query name cannot be empty")
	}
	if err := sqlguard.ValidateBasic(in.SQL); err != nil {
		return nil, err
	}
	if err := sqlguard.ValidateTimeFilter(in.SQL); err != nil {
		return nil, err
	}
	sql, err := d.sanitizer().Sanitize(in.SQL)
	if err != nil {
		return nil, &callError{msg: "Query contains forbidden keyword usage: " + err.Error()}
	}

	timeout := in.TimeoutMinutes
	if timeout == 0 {
		timeout = 30
	}
	if timeout < 1 || timeout > 300 {
		return nil, fmt.Errorf("timeout_minutes must be between 1 and 300, got %d", timeout)
	}

	body := map[string]any{
		"name":    name,
		"sql":     sql,
		"enabled": in.Enabled,
	}
	if in.Description != "" {
		body["description"] = in.Description
	}
	if in.CronExpression != "" || in.Enabled {
		if in.CronExpression == "" {
			return nil, errors.New("cron_expression is required when enabled is true")
		}
		if err := sqlguard.ValidateCron(in.CronExpression); err != nil {
			return nil, err
		}
		body["schedule"] = map[string]any{
			"cron":           strings.Join(strings.Fields(in.CronExpression), " "),
			"disabled":       !in.Enabled,
			"timeoutMinutes": timeout,
		}
	}

	created, err := d.Client.Post(ctx, "/queries", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create saved query: %w", err)
	}
	return map[string]any{
		"query_id": created["id"],
		"query":    created,
		"message":  fmt.Sprintf("Successfully created saved query '%s'", name),
	}, nil
}
