package tools

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/mcp-panther/internal/panther"
	"github.com/leapstack-labs/mcp-panther/internal/permissions"
)

// detectionKind describes one family of detections in the REST API.
type detectionKind struct {
	path     string
	plural   string // response field for lists
	singular string // response field for one item
	fields   []string
}

var commonDetectionFields = []string{
	"id", "description", "displayName", "enabled", "severity", "tags", "reports", "managed", "createdAt", "lastModified",
}

var detectionKinds = map[string]detectionKind{
	"rules":           {path: "/rules", plural: "rules", singular: "rule", fields: append(slices.Clone(commonDetectionFields), "logTypes")},
	"scheduled_rules": {path: "/scheduled-rules", plural: "scheduled_rules", singular: "scheduled_rule", fields: append(slices.Clone(commonDetectionFields), "scheduledQueries")},
	"simple_rules":    {path: "/simple-rules", plural: "simple_rules", singular: "simple_rule", fields: append(slices.Clone(commonDetectionFields), "logTypes")},
	"policies":        {path: "/policies", plural: "policies", singular: "policy", fields: append(slices.Clone(commonDetectionFields), "resourceTypes")},
}

var detectionTypes = []string{"rules", "scheduled_rules", "simple_rules", "policies"}

type listDetectionsInput struct {
	DetectionTypes []string `json:"detection_types,omitempty" jsonschema:"Types of detections to list"`
	Cursor         string   `json:"cursor,omitempty" jsonschema:"Cursor from a previous query. Only valid with a single detection type."`
	Limit          int      `json:"limit,omitempty" jsonschema:"Maximum number of results to return per detection type"`
}

type getDetectionInput struct {
	DetectionID   string `json:"detection_id" jsonschema:"The ID of the detection"`
	DetectionType string `json:"detection_type,omitempty" jsonschema:"Type of the detection"`
}

func detectionTools() []Definition {
	return []Definition{
		define(Definition{
			Name:        "list_detections",
			Title:       "List Detections",
			Description: "List rules, scheduled rules, simple rules or policies with their key metadata.",
			ReadOnly:    true,
			Permissions: permissions.All(permissions.RuleRead, permissions.PolicyRead),
			props: map[string]prop{
				"detection_types": choices([]string{"rules"}, detectionTypes...),
				"limit":           limits(1, 1000, 100),
			},
		}, listDetections),
		define(Definition{
			Name:        "get_detection",
			Title:       "Get Detection",
			Description: "Get a detection including its body and tests.",
			ReadOnly:    true,
			Permissions: permissions.All(permissions.RuleRead, permissions.PolicyRead),
			props: map[string]prop{
				"detection_type": choices("rules", detectionTypes...),
			},
		}, getDetection),
		define(Definition{
			Name:        "disable_detection",
			Title:       "Disable Detection",
			Description: "Disable a detection by setting enabled to false. Tests are not run.",
			Destructive: true,
			Permissions: permissions.Requires().
				Require(permissions.RuleModify).
				RequireAny(permissions.RuleRead, permissions.PolicyRead).
				Spec(),
			props: map[string]prop{
				"detection_type": choices("rules", detectionTypes...),
			},
		}, disableDetection),
	}
}

func detectionKindFor(name string) (detectionKind, error) {
	if name == "" {
		name = "rules"
	}
	k, ok := detectionKinds[name]
	if !ok {
		return detectionKind{}, fmt.Errorf("invalid detection_type %q, valid values are: %s",
			name, strings.Join(detectionTypes, ", "))
	}
	return k, nil
}

func listDetections(ctx context.Context, d *Deps, in listDetectionsInput) (map[string]any, error) {
	types := in.DetectionTypes
	if len(types) == 0 {
		types = []string{"rules"}
	}
	limit := in.Limit
	if limit <= 0 {
		limit = 100
	}
	cursor := in.Cursor
	if strings.EqualFold(cursor, "null") {
		cursor = ""
	}
	if cursor != "" && len(types) > 1 {
		return nil, errors.New("cursor pagination is only supported with a single detection type")
	}
	kinds := make([]detectionKind, 0, len(types))
	for _, t := range types {
		k, err := detectionKindFor(t)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}

	var (
		mu  sync.Mutex
		out = map[string]any{}
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, k := range kinds {
		g.Go(func() error {
			page, err := d.Client.List(gctx, k.path, limit, cursor, nil)
			if err != nil {
				return fmt.Errorf("failed to list %s: %w", k.plural, err)
			}
			items := make([]panther.Object, 0, len(page.Results))
			for _, r := range page.Results {
				items = append(items, panther.Pick(r, k.fields...))
			}
			mu.Lock()
			defer mu.Unlock()
			out[k.plural] = items
			out["total_"+k.plural] = len(items)
			if len(kinds) == 1 {
				out["has_next_page"] = page.Next != ""
				out["next_cursor"] = nullable(page.Next)
			} else {
				out[k.plural+"_next_cursor"] = nullable(page.Next)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func getDetection(ctx context.Context, d *Deps, in getDetectionInput) (map[string]any, error) {
	k, err := detectionKindFor(in.DetectionType)
	if err != nil {
		return nil, err
	}
	det, err := d.Client.Fetch(ctx, k.path+"/"+url.PathEscape(in.DetectionID))
	if panther.IsNotFound(err) {
		return nil, fmt.Errorf("no %s found with ID: %s", strings.ReplaceAll(k.singular, "_", " "), in.DetectionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s details: %w", k.plural, err)
	}
	return map[string]any{k.singular: det}, nil
}

func disableDetection(ctx context.Context, d *Deps, in getDetectionInput) (map[string]any, error) {
	k, err := detectionKindFor(in.DetectionType)
	if err != nil {
		return nil, err
	}
	path := k.path + "/" + url.PathEscape(in.DetectionID)
	current, err := d.Client.Fetch(ctx, path)
	if panther.IsNotFound(err) {
		return nil, fmt.Errorf("%s with ID %s not found", strings.ReplaceAll(k.singular, "_", " "), in.DetectionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to disable %s: %w", k.singular, err)
	}

	current["enabled"] = false
	updated, err := d.Client.Put(ctx, path, url.Values{"run-tests-first": {"false"}}, current)
	if err != nil {
		return nil, fmt.Errorf("failed to disable %s: %w", k.singular, err)
	}
	return map[string]any{k.singular: updated}, nil
}
