package panther

import (
	"context"
	"net/url"
	"strconv"
)

// AlertsInput is the GraphQL AlertsInput filter.
type AlertsInput struct {
	PageSize        int      `json:"pageSize"`
	SortBy          string   `json:"sortBy"`
	SortDir         string   `json:"sortDir"`
	Type            string   `json:"type,omitempty"`
	Subtypes        []string `json:"subtypes,omitempty"`
	DetectionID     string   `json:"detectionId,omitempty"`
	CreatedAtAfter  string   `json:"createdAtAfter,omitempty"`
	CreatedAtBefore string   `json:"createdAtBefore,omitempty"`
	Cursor          string   `json:"cursor,omitempty"`
	Severities      []string `json:"severities,omitempty"`
	Statuses        []string `json:"statuses,omitempty"`
	EventCountMax   *int     `json:"eventCountMax,omitempty"`
	EventCountMin   *int     `json:"eventCountMin,omitempty"`
	LogSources      []string `json:"logSources,omitempty"`
	LogTypes        []string `json:"logTypes,omitempty"`
	NameContains    string   `json:"nameContains,omitempty"`
	ResourceTypes   []string `json:"resourceTypes,omitempty"`
}

// AlertPage is one page of alerts.
type AlertPage struct {
	Alerts   []Object
	PageInfo PageInfo
}

// ListAlerts returns alerts matching in, newest first unless in says
// otherwise.
func (c *Client) ListAlerts(ctx context.Context, in AlertsInput) (*AlertPage, error) {
	if in.SortBy == "" {
		in.SortBy = "createdAt"
	}
	if in.SortDir == "" {
		in.SortDir = "descending"
	}
	var data struct {
		Alerts struct {
			Edges []struct {
				Node Object `json:"node"`
			} `json:"edges"`
			PageInfo PageInfo `json:"pageInfo"`
		} `json:"alerts"`
	}
	if err := c.GraphQL(ctx, listAlertsQuery, map[string]any{"input": in}, &data); err != nil {
		return nil, err
	}
	page := &AlertPage{Alerts: make([]Object, 0, len(data.Alerts.Edges)), PageInfo: data.Alerts.PageInfo}
	for _, e := range data.Alerts.Edges {
		page.Alerts = append(page.Alerts, e.Node)
	}
	return page, nil
}

// GetAlert returns the alert with id, or nil when none exists.
func (c *Client) GetAlert(ctx context.Context, id string) (Object, error) {
	var data struct {
		Alert Object `json:"alert"`
	}
	if err := c.GraphQL(ctx, getAlertQuery, map[string]any{"id": id}, &data); err != nil {
		return nil, err
	}
	return data.Alert, nil
}

// UpdateAlertStatus sets the status of every alert in ids.
func (c *Client) UpdateAlertStatus(ctx context.Context, ids []string, status string) ([]Object, error) {
	var data struct {
		Update struct {
			Alerts []Object `json:"alerts"`
		} `json:"updateAlertStatusById"`
	}
	input := map[string]any{"ids": ids, "status": status}
	if err := c.GraphQL(ctx, updateAlertStatusMutation, map[string]any{"input": input}, &data); err != nil {
		return nil, err
	}
	return data.Update.Alerts, nil
}

// AddAlertComment posts a comment on an alert. Markdown is rendered.
func (c *Client) AddAlertComment(ctx context.Context, alertID, body string) (Object, error) {
	var data struct {
		Create struct {
			Comment Object `json:"comment"`
		} `json:"createAlertComment"`
	}
	input := map[string]any{"alertId": alertID, "body": body}
	if err := c.GraphQL(ctx, addAlertCommentMutation, map[string]any{"input": input}, &data); err != nil {
		return nil, err
	}
	return data.Create.Comment, nil
}

// UpdateAlertAssignee assigns every alert in ids to the user assigneeID.
func (c *Client) UpdateAlertAssignee(ctx context.Context, ids []string, assigneeID string) ([]Object, error) {
	var data struct {
		Update struct {
			Alerts []Object `json:"alerts"`
		} `json:"updateAlertsAssigneeById"`
	}
	input := map[string]any{"ids": ids, "assigneeId": assigneeID}
	if err := c.GraphQL(ctx, updateAlertsAssigneeMutation, map[string]any{"input": input}, &data); err != nil {
		return nil, err
	}
	return data.Update.Alerts, nil
}

// AlertEvents returns up to limit of the events that triggered an alert.
func (c *Client) AlertEvents(ctx context.Context, alertID string, limit int) ([]Object, error) {
	page, err := c.List(ctx, "/alerts/"+url.PathEscape(alertID)+"/events", limit, "", nil)
	if err != nil {
		return nil, err
	}
	return page.Results, nil
}

// AlertComments returns the comments on an alert.
func (c *Client) AlertComments(ctx context.Context, alertID string, limit int) ([]Object, error) {
	q := url.Values{"alert-id": {alertID}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	page, err := c.List(ctx, "/alert-comments", 0, "", q)
	if err != nil {
		return nil, err
	}
	return page.Results, nil
}
