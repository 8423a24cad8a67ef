// Package resources exposes read-only server information as MCP resources.
package resources

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ConfigURI is the resource describing the server configuration.
const ConfigURI = "config://panther"

// Info is what the config resource reports. API tokens are never included.
type Info struct {
	GraphQLURL string   `json:"gql_api_url"`
	RESTURL    string   `json:"rest_api_url"`
	Datastore  string   `json:"datastore_type"`
	Tools      []string `json:"available_tools"`
	Prompts    []string `json:"available_prompts"`
	Resources  []string `json:"available_resources"`
}

// Register adds the config resource to srv.
func Register(srv *mcp.Server, info Info) {
	info.Resources = URIs()
	srv.AddResource(&mcp.Resource{
		URI:         ConfigURI,
		Name:        "panther_config",
		Title:       "Panther Configuration",
		Description: "The Panther API endpoints, datastore and the tools, prompts and resources this server offers.",
		MIMEType:    "application/json",
	}, func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return nil, err
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)},
			},
		}, nil
	})
}

// URIs lists the registered resource URIs.
func URIs() []string {
	return []string{ConfigURI}
}
