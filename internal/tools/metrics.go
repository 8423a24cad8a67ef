package tools

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/leapstack-labs/mcp-panther/internal/panther"
	"github.com/leapstack-labs/mcp-panther/internal/permissions"
)

var (
	metricIntervals  = []int{15, 30, 60, 180, 360, 720, 1440}
	metricAlertTypes = []string{"Rule", "Policy"}
	invalidRuleID    = regexp.MustCompile(`[@\s#]`)
)

type severityMetricsInput struct {
	StartDate         string   `json:"start_date,omitempty" jsonschema:"Start date in ISO 8601 format. Defaults to the start of today UTC."`
	EndDate           string   `json:"end_date,omitempty" jsonschema:"End date in ISO 8601 format. Defaults to the end of today UTC."`
	AlertTypes        []string `json:"alert_types,omitempty" jsonschema:"Alert types to include"`
	Severities        []string `json:"severities,omitempty" jsonschema:"Severities to include"`
	IntervalInMinutes int      `json:"interval_in_minutes,omitempty" jsonschema:"Width of each time bucket in minutes"`
}

type ruleMetricsInput struct {
	StartDate         string   `json:"start_date,omitempty" jsonschema:"Start date in ISO 8601 format. Defaults to the start of today UTC."`
	EndDate           string   `json:"end_date,omitempty" jsonschema:"End date in ISO 8601 format. Defaults to the end of today UTC."`
	IntervalInMinutes int      `json:"interval_in_minutes,omitempty" jsonschema:"Width of each time bucket in minutes"`
	RuleIDs           []string `json:"rule_ids,omitempty" jsonschema:"Only include these rule IDs, e.g. AWS.CloudTrail.Created"`
}

type bytesMetricsInput struct {
	StartDate         string `json:"start_date,omitempty" jsonschema:"Start date in ISO 8601 format. Defaults to the start of today UTC."`
	EndDate           string `json:"end_date,omitempty" jsonschema:"End date in ISO 8601 format. Defaults to the end of today UTC."`
	IntervalInMinutes int    `json:"interval_in_minutes,omitempty" jsonschema:"Width of each time bucket in minutes"`
}

func metricsTools() []Definition {
	summary := permissions.All(permissions.SummaryRead)
	return []Definition{
		define(Definition{
			Name:        "get_severity_alert_metrics",
			Title:       "Get Severity Alert Metrics",
			Description: "Count alerts per severity and alert type over a time range, to find which severities are most active.",
			ReadOnly:    true,
			Permissions: summary,
			props: map[string]prop{
				"alert_types":         choices([]string{"Rule"}, metricAlertTypes...),
				"severities":          choices(alertSeverities[:4], alertSeverities...),
				"interval_in_minutes": intChoices(1440, metricIntervals...),
			},
		}, severityMetrics),
		define(Definition{
			Name:        "get_rule_alert_metrics",
			Title:       "Get Rule Alert Metrics",
			Description: "Count alerts per rule over a time range, to find the noisiest rules.",
			ReadOnly:    true,
			Permissions: summary,
			props: map[string]prop{
				"interval_in_minutes": intChoices(15, metricIntervals...),
			},
		}, ruleMetrics),
		define(Definition{
			Name:        "get_bytes_processed_metrics",
			Title:       "Get Bytes Processed",
			Description: "Report the bytes ingested per log type and source over a time range.",
			ReadOnly:    true,
			Permissions: summary,
			props: map[string]prop{
				"interval_in_minutes": intChoices(1440, metricIntervals...),
			},
		}, bytesMetrics),
	}
}

// metricsWindow resolves the date range and interval shared by the metrics
// tools.
func (d *Deps) metricsWindow(start, end string, interval, def int) (panther.MetricsInput, error) {
	if interval == 0 {
		interval = def
	}
	if !slices.Contains(metricIntervals, interval) {
		return panther.MetricsInput{}, fmt.Errorf("interval_in_minutes must be one of %v, got %d", metricIntervals, interval)
	}
	from, to := panther.TodayRange(d.now())
	if start != "" || end != "" {
		var err error
		if from, to, err = panther.DateRange(start, end, d.now()); err != nil {
			return panther.MetricsInput{}, err
		}
	}
	return panther.MetricsInput{FromDate: from, ToDate: to, IntervalInMinutes: interval}, nil
}

func windowFields(in panther.MetricsInput, out map[string]any) map[string]any {
	out["start_date"] = in.FromDate
	out["end_date"] = in.ToDate
	out["interval_in_minutes"] = in.IntervalInMinutes
	return out
}

func severityMetrics(ctx context.Context, d *Deps, in severityMetricsInput) (map[string]any, error) {
	types := in.AlertTypes
	if len(types) == 0 {
		types = []string{"Rule"}
	}
	for _, t := range types {
		if !slices.Contains(metricAlertTypes, t) {
			return nil, fmt.Errorf("alert type must be one of %s, got %q", strings.Join(metricAlertTypes, ", "), t)
		}
	}
	severities := in.Severities
	if len(severities) == 0 {
		severities = alertSeverities[:4]
	}
	for _, s := range severities {
		if !slices.Contains(alertSeverities, s) {
			return nil, fmt.Errorf("severity must be one of %s, got %q", strings.Join(alertSeverities, ", "), s)
		}
	}
	window, err := d.metricsWindow(in.StartDate, in.EndDate, in.IntervalInMinutes, 1440)
	if err != nil {
		return nil, err
	}

	series, err := d.Client.AlertsPerSeverity(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch alert metrics: %w", err)
	}
	var matched []panther.SeriesValue
	total := 0.0
	for _, s := range series {
		if containsAny(s.Label, types) && containsAny(s.Label, severities) {
			matched = append(matched, s)
			total += s.Value
		}
	}
	return windowFields(window, map[string]any{
		"alerts_per_severity": orEmpty(matched),
		"total_alerts":        total,
	}), nil
}

func ruleMetrics(ctx context.Context, d *Deps, in ruleMetricsInput) (map[string]any, error) {
	for _, id := range in.RuleIDs {
		if invalidRuleID.MatchString(id) {
			return nil, fmt.Errorf("invalid rule ID %q: rule IDs cannot contain '@', '#' or whitespace", id)
		}
	}
	window, err := d.metricsWindow(in.StartDate, in.EndDate, in.IntervalInMinutes, 15)
	if err != nil {
		return nil, err
	}

	series, err := d.Client.AlertsPerRule(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rule alert metrics: %w", err)
	}
	var matched []panther.SeriesValue
	total := 0.0
	for _, s := range series {
		if len(in.RuleIDs) > 0 && !slices.Contains(in.RuleIDs, s.EntityID) {
			continue
		}
		matched = append(matched, s)
		total += s.Value
	}
	return windowFields(window, map[string]any{
		"alerts_per_rule": orEmpty(matched),
		"total_alerts":    total,
		"rule_ids":        in.RuleIDs,
	}), nil
}

func bytesMetrics(ctx context.Context, d *Deps, in bytesMetricsInput) (map[string]any, error) {
	window, err := d.metricsWindow(in.StartDate, in.EndDate, in.IntervalInMinutes, 1440)
	if err != nil {
		return nil, err
	}
	series, err := d.Client.BytesProcessed(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bytes processed metrics: %w", err)
	}
	total := 0.0
	for _, s := range series {
		total += s.Value
	}
	return windowFields(window, map[string]any{
		"bytes_processed": orEmpty(series),
		"total_bytes":     total,
	}), nil
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
