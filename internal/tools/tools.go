// Package tools defines the MCP tools exposed by the server. Every tool is
// listed in All and installed on an *mcp.Server by Register.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/leapstack-labs/mcp-panther/internal/panther"
	"github.com/leapstack-labs/mcp-panther/internal/permissions"
	"github.com/leapstack-labs/mcp-panther/pkg/sqlguard"
)

// Deps are the collaborators shared by every tool handler.
type Deps struct {
	Client    *panther.Client
	Sanitizer *sqlguard.Sanitizer
	Logger    *slog.Logger
	Now       func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Deps) sanitizer() *sqlguard.Sanitizer {
	if d.Sanitizer == nil {
		d.Sanitizer = sqlguard.New(nil)
	}
	return d.Sanitizer
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	return d.Logger
}

// Definition describes one tool.
type Definition struct {
	Name        string
	Title       string
	Description string
	ReadOnly    bool
	Destructive bool
	Permissions permissions.Spec

	// props adjusts the input schema inferred from the handler's input type.
	props   map[string]prop
	schema  func() (*jsonschema.Schema, error)
	install func(srv *mcp.Server, tool *mcp.Tool, deps *Deps)
}

// Tool builds the MCP tool metadata, including the input schema.
func (d Definition) Tool() (*mcp.Tool, error) {
	tool := &mcp.Tool{
		Name:        d.Name,
		Title:       d.Title,
		Description: d.Description,
		Annotations: &mcp.ToolAnnotations{
			Title:           d.Title,
			ReadOnlyHint:    d.ReadOnly,
			IdempotentHint:  d.ReadOnly,
			DestructiveHint: boolPtr(d.Destructive),
			OpenWorldHint:   boolPtr(true),
		},
		Meta: d.Permissions.Meta(),
	}
	if d.schema != nil {
		schema, err := d.schema()
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", d.Name, err)
		}
		for name, p := range d.props {
			ps, ok := schema.Properties[name]
			if !ok {
				return nil, fmt.Errorf("tool %s: no input property %q", d.Name, name)
			}
			if err := p.apply(ps); err != nil {
				return nil, fmt.Errorf("tool %s: property %s: %w", d.Name, name, err)
			}
		}
		tool.InputSchema = schema
	}
	return tool, nil
}

// Register installs every tool in All on srv.
func Register(srv *mcp.Server, deps *Deps) error {
	for _, def := range All() {
		tool, err := def.Tool()
		if err != nil {
			return err
		}
		def.install(srv, tool, deps)
	}
	return nil
}

// Names returns the names of every tool in All.
func Names() []string {
	defs := All()
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}

// All lists the tools in registration order.
func All() []Definition {
	var defs []Definition
	defs = append(defs, alertTools()...)
	defs = append(defs, detectionTools()...)
	defs = append(defs, dataLakeTools()...)
	defs = append(defs, savedQueryTools()...)
	defs = append(defs, metricsTools()...)
	defs = append(defs, userTools()...)
	defs = append(defs, globalTools()...)
	defs = append(defs, sourceTools()...)
	defs = append(defs, permissionTools()...)
	return defs
}

// handler is the body of a tool. It returns the payload of a successful
// call or an error whose message is shown to the caller.
type handler[In any] func(ctx context.Context, deps *Deps, in In) (map[string]any, error)

// define binds a typed handler to d.
func define[In any](d Definition, h handler[In]) Definition {
	d.schema = func() (*jsonschema.Schema, error) { return jsonschema.For[In](nil) }
	d.install = func(srv *mcp.Server, tool *mcp.Tool, deps *Deps) {
		mcp.AddTool(srv, tool, func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
			start := time.Now()
			payload, err := h(ctx, deps, in)
			log := deps.logger().With("tool", d.Name, "duration", time.Since(start))
			if err != nil {
				log.Warn("tool call failed", "error", err)
				var ce *callError
				if errors.As(err, &ce) {
					return failure(err.Error(), ce.fields), nil, nil
				}
				return failure(err.Error(), nil), nil, nil
			}
			log.Debug("tool call succeeded")
			return success(payload), nil, nil
		})
	}
	return d
}

// success renders {"success": true, ...payload} as the text result.
func success(payload map[string]any) *mcp.CallToolResult {
	out := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		out[k] = v
	}
	out["success"] = true
	return jsonResult(out, false)
}

// failure renders {"success": false, "message": message, ...fields}.
func failure(message string, fields map[string]any) *mcp.CallToolResult {
	out := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		out[k] = v
	}
	out["success"] = false
	out["message"] = message
	return jsonResult(out, true)
}

// callError is a failure whose result carries fields besides the message,
// such as the ID of a query that failed.
type callError struct {
	msg    string
	fields map[string]any
}

func (e *callError) Error() string { return e.msg }

func jsonResult(v map[string]any, isError bool) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		data = []byte(fmt.Sprintf(`{"success": false, "message": %q}`, "failed to encode result: "+err.Error()))
		isError = true
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		IsError: isError,
	}
}

func boolPtr(b bool) *bool { return &b }
