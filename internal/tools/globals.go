package tools

import (
	"context"
	"fmt"
	"net/url"

	"github.com/leapstack-labs/mcp-panther/internal/panther"
	"github.com/leapstack-labs/mcp-panther/internal/permissions"
)

var globalFields = []string{"id", "description", "tags", "createdAt", "lastModified"}

type listGlobalsInput struct {
	Cursor       string `json:"cursor,omitempty" jsonschema:"Cursor for pagination from a previous query"`
	Limit        int    `json:"limit,omitempty" jsonschema:"Maximum number of results to return"`
	NameContains string `json:"name_contains,omitempty" jsonschema:"Case-insensitive substring to search for in helper IDs"`
}

type globalIDInput struct {
	HelperID string `json:"helper_id" jsonschema:"The ID of the global helper"`
}

func globalTools() []Definition {
	return []Definition{
		define(Definition{
			Name:  "list_global_helpers",
			Title: "List Global Helpers",
			Description: "List the global helper modules shared by Python detections. " +
				"Bodies are omitted; use get_global_helper for the code.",
			ReadOnly:    true,
			Permissions: permissions.All(permissions.RuleRead),
			props: map[string]prop{
				"limit": limits(1, 1000, 100),
			},
		}, listGlobalHelpers),
		define(Definition{
			Name:        "get_global_helper",
			Title:       "Get Global Helper",
			Description: "Get a global helper module including its Python body.",
			ReadOnly:    true,
			Permissions: permissions.All(permissions.RuleRead),
		}, getGlobalHelper),
	}
}

func listGlobalHelpers(ctx context.Context, d *Deps, in listGlobalsInput) (map[string]any, error) {
	limit := in.Limit
	if limit == 0 {
		limit = 100
	}
	if limit < 1 || limit > 1000 {
		return nil, fmt.Errorf("limit must be between 1 and 1000, got %d", limit)
	}
	var q url.Values
	if in.NameContains != "" {
		q = url.Values{"name-contains": {in.NameContains}}
	}
	page, err := d.Client.List(ctx, "/globals", limit, in.Cursor, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list global helpers: %w", err)
	}
	helpers := make([]panther.Object, 0, len(page.Results))
	for _, g := range page.Results {
		helpers = append(helpers, panther.Pick(g, globalFields...))
	}
	return map[string]any{
		"global_helpers": helpers,
		"total_helpers":  len(helpers),
		"has_next_page":  page.Next != "",
		"next_cursor":    nullable(page.Next),
	}, nil
}

func getGlobalHelper(ctx context.Context, d *Deps, in globalIDInput) (map[string]any, error) {
	helper, err := d.Client.Fetch(ctx, "/globals/"+url.PathEscape(in.HelperID))
	if panther.IsNotFound(err) {
		return nil, fmt.Errorf("no global helper found with ID: %s", in.HelperID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch global helper: %w", err)
	}
	return map[string]any{"global_helper": helper}, nil
}
