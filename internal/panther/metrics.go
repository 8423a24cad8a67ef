package panther

import "context"

// MetricsInput is the GraphQL MetricsInput.
type MetricsInput struct {
	FromDate          string `json:"fromDate"`
	ToDate            string `json:"toDate"`
	IntervalInMinutes int    `json:"intervalInMinutes"`
}

// SeriesValue is one labelled series of a metrics response.
type SeriesValue struct {
	EntityID  string         `json:"entityId,omitempty"`
	Label     string         `json:"label"`
	Value     float64        `json:"value"`
	Breakdown map[string]any `json:"breakdown,omitempty"`
}

// AlertsPerSeverity returns alert counts labelled "<Type> <SEVERITY>", for
// example "Rule HIGH".
func (c *Client) AlertsPerSeverity(ctx context.Context, in MetricsInput) ([]SeriesValue, error) {
	var data struct {
		Metrics struct {
			AlertsPerSeverity []SeriesValue `json:"alertsPerSeverity"`
		} `json:"metrics"`
	}
	if err := c.GraphQL(ctx, alertsPerSeverityQuery, map[string]any{"input": in}, &data); err != nil {
		return nil, err
	}
	return data.Metrics.AlertsPerSeverity, nil
}

// AlertsPerRule returns alert counts per detection.
func (c *Client) AlertsPerRule(ctx context.Context, in MetricsInput) ([]SeriesValue, error) {
	var data struct {
		Metrics struct {
			AlertsPerRule []SeriesValue `json:"alertsPerRule"`
		} `json:"metrics"`
	}
	if err := c.GraphQL(ctx, alertsPerRuleQuery, map[string]any{"input": in}, &data); err != nil {
		return nil, err
	}
	return data.Metrics.AlertsPerRule, nil
}

// BytesProcessed returns ingested bytes per log source.
func (c *Client) BytesProcessed(ctx context.Context, in MetricsInput) ([]SeriesValue, error) {
	var data struct {
		Metrics struct {
			BytesProcessedPerSource []SeriesValue `json:"bytesProcessedPerSource"`
		} `json:"metrics"`
	}
	if err := c.GraphQL(ctx, bytesProcessedQuery, map[string]any{"input": in}, &data); err != nil {
		return nil, err
	}
	return data.Metrics.BytesProcessedPerSource, nil
}
