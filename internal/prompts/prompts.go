// Package prompts provides the alert triage prompt templates.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type argument struct {
	name        string
	description string
}

// template is a prompt whose text is rendered from its arguments.
type template struct {
	name        string
	title       string
	description string
	args        []argument
	render      func(args map[string]string) string
}

var dateArgs = []argument{
	{name: "start_date", description: `The start date in ISO 8601 format (e.g. "2025-04-22T22:37:41Z")`},
	{name: "end_date", description: `The end date in ISO 8601 format (e.g. "2025-04-22T22:37:41Z")`},
}

var templates = []template{
	{
		name:        "list_and_prioritize_alerts",
		title:       "List and Prioritize Alerts",
		description: "Get alerts between two dates and group them by actor for prioritized investigation.",
		args:        dateArgs,
		render: func(args map[string]string) string {
			return fmt.Sprintf(prioritizeText, args["start_date"], args["end_date"])
		},
	},
	{
		name:        "get_alerts_by_timeframe",
		title:       "Get Alerts by Timeframe",
		description: "Get a simple table of the alerts created within a time period.",
		args:        dateArgs,
		render: func(args map[string]string) string {
			return fmt.Sprintf(timeframeText, args["start_date"], args["end_date"])
		},
	},
}

const prioritizeText = `Analyze temporal alerts and group them logically based on actor patterns rather than just by severity or rule type.

1. Get all alert IDs between %s and %s with the list_alerts tool
2. Get stats on all alert events with the summarize_alert_events tool
3. Group alerts by actor patterns
4. For each group:
    1. Identify the common actor or entity performing the actions

    2. Summarize the activity pattern across all related alerts

    3. Include key details such as:
    - Rule IDs triggered
    - Timeframes of activity
    - Source IPs and usernames involved
    - Systems or platforms affected

    4. Provide a brief assessment of whether the activity appears to be:
    - Expected system behavior
    - Legitimate user activity
    - Suspicious or concerning behavior requiring investigation

    5. End with prioritized recommendations for investigation based on the actor groups, not just alert severity.

Format your response with clear headings for each actor group and use concise, security-focused language.`

const timeframeText = `List all alerts created between %s and %s.

Format the results in a table with the following columns:
1. Alert ID
2. Title
3. Severity
4. Creation time
5. Status

Sort the alerts by creation time (newest first) and group them by severity.`

// Register adds every prompt to srv.
func Register(srv *mcp.Server) {
	for _, t := range templates {
		srv.AddPrompt(t.prompt(), t.handle)
	}
}

// Names returns the prompt names in registration order.
func Names() []string {
	names := make([]string, len(templates))
	for i, t := range templates {
		names[i] = t.name
	}
	return names
}

func (t template) prompt() *mcp.Prompt {
	p := &mcp.Prompt{Name: t.name, Title: t.title, Description: t.description}
	for _, a := range t.args {
		p.Arguments = append(p.Arguments, &mcp.PromptArgument{
			Name:        a.name,
			Description: a.description,
			Required:    true,
		})
	}
	return p
}

func (t template) handle(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := req.Params.Arguments
	var missing []string
	for _, a := range t.args {
		if strings.TrimSpace(args[a.name]) == "" {
			missing = append(missing, a.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("prompt %s: missing arguments: %s", t.name, strings.Join(missing, ", "))
	}
	return &mcp.GetPromptResult{
		Description: t.description,
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: t.render(args)}},
		},
	}, nil
}
