package tools

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/mcp-panther/internal/panther"
	"github.com/leapstack-labs/mcp-panther/internal/permissions"
)

var (
	alertSeverities = []string{"CRITICAL", "HIGH", "MEDIUM", "LOW", "INFO"}
	alertStatuses   = []string{"OPEN", "TRIAGED", "RESOLVED", "CLOSED"}
	alertTypes      = []string{"ALERT", "DETECTION_ERROR", "SYSTEM_ERROR"}

	// alertSubtypes lists the subtypes valid for each alert type.
	alertSubtypes = map[string][]string{
		"ALERT":           {"POLICY", "RULE", "SCHEDULED_RULE"},
		"DETECTION_ERROR": {"RULE_ERROR", "SCHEDULED_RULE_ERROR"},
		"SYSTEM_ERROR":    nil,
	}
)

const maxAlertEvents = 10

type listAlertsInput struct {
	StartDate     string   `json:"start_date,omitempty" jsonschema:"Start date in ISO 8601 format (e.g. '2024-03-20T00:00:00Z'). Defaults to seven days before end_date."`
	EndDate       string   `json:"end_date,omitempty" jsonschema:"End date in ISO 8601 format (e.g. '2024-03-21T00:00:00Z'). Defaults to now."`
	Severities    []string `json:"severities,omitempty" jsonschema:"Alert severities to filter by"`
	Statuses      []string `json:"statuses,omitempty" jsonschema:"Alert statuses to filter by"`
	Cursor        string   `json:"cursor,omitempty" jsonschema:"Cursor for pagination from a previous query"`
	DetectionID   string   `json:"detection_id,omitempty" jsonschema:"Detection ID to filter alerts by"`
	EventCountMax *int     `json:"event_count_max,omitempty" jsonschema:"Maximum number of events that returned alerts can have"`
	EventCountMin *int     `json:"event_count_min,omitempty" jsonschema:"Minimum number of events that returned alerts must have"`
	LogSources    []string `json:"log_sources,omitempty" jsonschema:"Log source IDs to filter alerts by"`
	LogTypes      []string `json:"log_types,omitempty" jsonschema:"Log type names to filter alerts by"`
	NameContains  string   `json:"name_contains,omitempty" jsonschema:"String to search for in alert titles"`
	PageSize      int      `json:"page_size,omitempty" jsonschema:"Number of results per page"`
	ResourceTypes []string `json:"resource_types,omitempty" jsonschema:"AWS resource type names to filter alerts by"`
	AlertType     string   `json:"alert_type,omitempty" jsonschema:"Type of alerts to return"`
	Subtypes      []string `json:"subtypes,omitempty" jsonschema:"Alert subtypes. Valid values depend on alert_type"`
}

type alertIDInput struct {
	AlertID string `json:"alert_id" jsonschema:"The ID of the alert"`
}

type updateAlertStatusInput struct {
	AlertIDs []string `json:"alert_ids" jsonschema:"IDs of the alerts to update"`
	Status   string   `json:"status" jsonschema:"The new status for the alerts"`
}

type addAlertCommentInput struct {
	AlertID string `json:"alert_id" jsonschema:"The ID of the alert to comment on"`
	Comment string `json:"comment" jsonschema:"The comment text. Markdown is supported."`
}

type updateAlertAssigneeInput struct {
	AlertIDs   []string `json:"alert_ids" jsonschema:"IDs of the alerts to update"`
	AssigneeID string   `json:"assignee_id" jsonschema:"The ID of the user to assign the alerts to"`
}

type alertEventsInput struct {
	AlertID string `json:"alert_id" jsonschema:"The ID of the alert to get events for"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum number of events to return"`
}

type alertCommentsInput struct {
	AlertID string `json:"alert_id" jsonschema:"The ID of the alert"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum number of comments to return"`
}

func alertTools() []Definition {
	return []Definition{
		define(Definition{
			Name:  "list_alerts",
			Title: "List Alerts",
			Description: "List Panther alerts, newest first, filtered by date range, severity, status, " +
				"detection, log source, log type and more. Results are paginated with cursors.",
			ReadOnly:    true,
			Permissions: permissions.All(permissions.AlertRead),
			props: map[string]prop{
				"severities": choices(alertSeverities[:4], alertSeverities...),
				"statuses":   choices(alertStatuses, alertStatuses...),
				"page_size":  limits(1, 50, 25),
				"alert_type": choices("ALERT", alertTypes...),
				"subtypes":   choices(nil, "POLICY", "RULE", "SCHEDULED_RULE", "RULE_ERROR", "SCHEDULED_RULE_ERROR"),
			},
		}, listAlerts),
		define(Definition{
			Name:        "get_alert",
			Title:       "Get Alert",
			Description: "Get the details of one Panther alert.",
			ReadOnly:    true,
			Permissions: permissions.All(permissions.AlertRead),
		}, getAlert),
		define(Definition{
			Name:        "update_alert_status",
			Title:       "Update Alert Status",
			Description: "Set the status of one or more alerts.",
			Permissions: permissions.All(permissions.AlertModify),
			props: map[string]prop{
				"status": choices(nil, alertStatuses...),
			},
		}, updateAlertStatus),
		define(Definition{
			Name:        "add_alert_comment",
			Title:       "Add Alert Comment",
			Description: "Add a Markdown comment to an alert.",
			Permissions: permissions.All(permissions.AlertModify),
		}, addAlertComment),
		define(Definition{
			Name:        "update_alert_assignee",
			Title:       "Update Alert Assignee",
			Description: "Assign one or more alerts to a user by user ID.",
			Permissions: permissions.All(permissions.AlertModify),
		}, updateAlertAssignee),
		define(Definition{
			Name:  "get_alert_events",
			Title: "Get Alert Events",
			Description: "Get up to 10 of the events that triggered an alert. The first events are returned " +
				"on a best-effort basis and order is not guaranteed. Use query_data_lake for more.",
			ReadOnly:    true,
			Permissions: permissions.All(permissions.AlertRead),
			props: map[string]prop{
				"limit": atLeast(1, maxAlertEvents),
			},
		}, getAlertEvents),
		define(Definition{
			Name:        "list_alert_comments",
			Title:       "List Alert Comments",
			Description: "List the comments on an alert.",
			ReadOnly:    true,
			Permissions: permissions.All(permissions.AlertRead),
			props: map[string]prop{
				"limit": limits(1, 50, 25),
			},
		}, listAlertComments),
	}
}

func listAlerts(ctx context.Context, d *Deps, in listAlertsInput) (map[string]any, error) {
	q := panther.AlertsInput{
		PageSize:      in.PageSize,
		Type:          in.AlertType,
		Subtypes:      in.Subtypes,
		DetectionID:   in.DetectionID,
		Cursor:        in.Cursor,
		Severities:    in.Severities,
		Statuses:      in.Statuses,
		EventCountMax: in.EventCountMax,
		EventCountMin: in.EventCountMin,
		LogSources:    in.LogSources,
		LogTypes:      in.LogTypes,
		NameContains:  in.NameContains,
		ResourceTypes: in.ResourceTypes,
	}
	if q.PageSize == 0 {
		q.PageSize = 25
	}
	if q.PageSize < 1 || q.PageSize > 50 {
		return nil, fmt.Errorf("page_size must be between 1 and 50, got %d", q.PageSize)
	}
	if q.Type == "" {
		q.Type = "ALERT"
	}
	if len(q.Severities) == 0 {
		q.Severities = alertSeverities[:4]
	}
	if len(q.Statuses) == 0 {
		q.Statuses = alertStatuses
	}
	if err := validateSubtypes(q.Type, q.Subtypes); err != nil {
		return nil, err
	}

	// Panther needs a detection ID or a date range.
	if in.DetectionID == "" || in.StartDate != "" || in.EndDate != "" {
		start, end, err := panther.DateRange(in.StartDate, in.EndDate, d.now())
		if err != nil {
			return nil, err
		}
		q.CreatedAtAfter, q.CreatedAtBefore = start, end
	}

	page, err := d.Client.ListAlerts(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch alerts: %w", err)
	}
	return map[string]any{
		"alerts":            page.Alerts,
		"total_alerts":      len(page.Alerts),
		"has_next_page":     page.PageInfo.HasNextPage,
		"has_previous_page": page.PageInfo.HasPreviousPage,
		"end_cursor":        nullable(page.PageInfo.EndCursor),
		"start_cursor":      nullable(page.PageInfo.StartCursor),
	}, nil
}

func validateSubtypes(alertType string, subtypes []string) error {
	allowed, ok := alertSubtypes[alertType]
	if !ok {
		return fmt.Errorf("invalid alert_type %q: must be one of %s", alertType, strings.Join(alertTypes, ", "))
	}
	if len(subtypes) == 0 {
		return nil
	}
	if len(allowed) == 0 {
		return fmt.Errorf("subtypes are not allowed when alert_type is %s", alertType)
	}
	for _, st := range subtypes {
		if !slices.Contains(allowed, st) {
			return fmt.Errorf("invalid subtype %q for alert_type=%s, valid subtypes are: %s",
				st, alertType, strings.Join(allowed, ", "))
		}
	}
	return nil
}

func getAlert(ctx context.Context, d *Deps, in alertIDInput) (map[string]any, error) {
	alert, err := d.Client.GetAlert(ctx, in.AlertID)
	if err != nil && !panther.IsNotFound(err) {
		return nil, fmt.Errorf("failed to fetch alert details: %w", err)
	}
	if len(alert) == 0 {
		return nil, fmt.Errorf("no alert found with ID: %s", in.AlertID)
	}
	return map[string]any{"alert": alert}, nil
}

func updateAlertStatus(ctx context.Context, d *Deps, in updateAlertStatusInput) (map[string]any, error) {
	if len(in.AlertIDs) == 0 {
		return nil, errors.New("at least one alert ID is required")
	}
	if !slices.Contains(alertStatuses, in.Status) {
		return nil, fmt.Errorf("status must be one of %s", strings.Join(alertStatuses, ", "))
	}
	alerts, err := d.Client.UpdateAlertStatus(ctx, in.AlertIDs, in.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to update alert status: %w", err)
	}
	return map[string]any{"alerts": alerts}, nil
}

func addAlertComment(ctx context.Context, d *Deps, in addAlertCommentInput) (map[string]any, error) {
	if strings.TrimSpace(in.Comment) == "" {
		return nil, errors.New("comment cannot be empty")
	}
	comment, err := d.Client.AddAlertComment(ctx, in.AlertID, in.Comment)
	if err != nil {
		return nil, fmt.Errorf("failed to add alert comment: %w", err)
	}
	return map[string]any{"comment": comment}, nil
}

func updateAlertAssignee(ctx context.Context, d *Deps, in updateAlertAssigneeInput) (map[string]any, error) {
	if len(in.AlertIDs) == 0 {
		return nil, errors.New("at least one alert ID is required")
	}
	alerts, err := d.Client.UpdateAlertAssignee(ctx, in.AlertIDs, in.AssigneeID)
	if err != nil {
		return nil, fmt.Errorf("failed to update alert assignee: %w", err)
	}
	return map[string]any{"alerts": alerts}, nil
}

func getAlertEvents(ctx context.Context, d *Deps, in alertEventsInput) (map[string]any, error) {
	limit := in.Limit
	switch {
	case limit == 0:
		limit = maxAlertEvents
	case limit < 0:
		return nil, errors.New("limit must be greater than 0")
	case limit > maxAlertEvents:
		d.logger().Warn("limit exceeds maximum", "limit", limit, "max", maxAlertEvents)
		limit = maxAlertEvents
	}
	events, err := d.Client.AlertEvents(ctx, in.AlertID, limit)
	if panther.IsNotFound(err) {
		return nil, fmt.Errorf("no alert found with ID: %s", in.AlertID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch alert events: %w", err)
	}
	return map[string]any{"events": events, "total_events": len(events)}, nil
}

func listAlertComments(ctx context.Context, d *Deps, in alertCommentsInput) (map[string]any, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = 25
	}
	comments, err := d.Client.AlertComments(ctx, in.AlertID, limit)
	if panther.IsNotFound(err) {
		return nil, fmt.Errorf("no alert found with ID: %s", in.AlertID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch alert comments: %w", err)
	}
	return map[string]any{"comments": comments, "total_comments": len(comments)}, nil
}

// nullable maps an empty cursor to JSON null.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
