package tools

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/mcp-panther/internal/panther"
	"github.com/leapstack-labs/mcp-panther/internal/permissions"
)

type listLogSourcesInput struct {
	Cursor          string   `json:"cursor,omitempty" jsonschema:"Cursor for pagination from a previous query"`
	LogTypes        []string `json:"log_types,omitempty" jsonschema:"Only return sources that ingest one of these log types"`
	IsHealthy       *bool    `json:"is_healthy,omitempty" jsonschema:"Only return healthy (true) or unhealthy (false) sources"`
	IntegrationType string   `json:"integration_type,omitempty" jsonschema:"Only return sources of this integration type, e.g. S3 or aws-scan"`
}

type logTypeSchemaInput struct {
	LogTypes []string `json:"log_types" jsonschema:"Log types to describe, e.g. AWS.CloudTrail"`
}

func sourceTools() []Definition {
	return []Definition{
		define(Definition{
			Name:        "list_log_sources",
			Title:       "List Log Sources",
			Description: "List log source integrations with their health, log types and last event times.",
			ReadOnly:    true,
			Permissions: permissions.All(permissions.LogSourceRead),
		}, listLogSources),
		define(Definition{
			Name:  "get_panther_log_type_schema",
			Title: "Get Log Type Schema",
			Description: "Get the schema specification of one or more log types, to learn which fields " +
				"can be queried in the data lake.",
			ReadOnly:    true,
			Permissions: permissions.All(permissions.LogSourceRead),
		}, getLogTypeSchema),
	}
}

func listLogSources(ctx context.Context, d *Deps, in listLogSourcesInput) (map[string]any, error) {
	nodes, page, err := d.Client.ListSources(ctx, panther.SourcesInput{Cursor: in.Cursor})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch log sources: %w", err)
	}

	sources := make([]panther.Object, 0, len(nodes))
	for _, s := range nodes {
		if in.IsHealthy != nil && s["isHealthy"] != *in.IsHealthy {
			continue
		}
		if in.IntegrationType != "" && !strings.EqualFold(fmt.Sprint(s["integrationType"]), in.IntegrationType) {
			continue
		}
		if len(in.LogTypes) > 0 && !ingestsAny(s["logTypes"], in.LogTypes) {
			continue
		}
		sources = append(sources, s)
	}
	return map[string]any{
		"sources":       sources,
		"total_sources": len(sources),
		"has_next_page": page.HasNextPage,
		"end_cursor":    nullable(page.EndCursor),
	}, nil
}

func ingestsAny(v any, want []string) bool {
	have, _ := v.([]any)
	for _, lt := range have {
		if s, ok := lt.(string); ok && slices.Contains(want, s) {
			return true
		}
	}
	return false
}

func getLogTypeSchema(ctx context.Context, d *Deps, in logTypeSchemaInput) (map[string]any, error) {
	if len(in.LogTypes) == 0 {
		return nil, errors.New("at least one log type is required")
	}

	var (
		mu      sync.Mutex
		schemas []panther.Object
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, lt := range in.LogTypes {
		g.Go(func() error {
			found, err := d.Client.LogTypeSchemas(gctx, lt)
			if err != nil {
				return fmt.Errorf("failed to fetch schema for %s: %w", lt, err)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, s := range found {
				if s["name"] == lt {
					schemas = append(schemas, s)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(schemas) == 0 {
		return nil, fmt.Errorf("no schemas found for log types: %s", strings.Join(in.LogTypes, ", "))
	}
	slices.SortFunc(schemas, func(a, b panther.Object) int {
		return strings.Compare(fmt.Sprint(a["name"]), fmt.Sprint(b["name"]))
	})
	return map[string]any{"schemas": schemas}, nil
}
