package panther

import "context"

// SourcesInput filters log source integrations.
type SourcesInput struct {
	Cursor string `json:"cursor,omitempty"`
}

// ListSources returns one page of log source integrations.
func (c *Client) ListSources(ctx context.Context, in SourcesInput) ([]Object, PageInfo, error) {
	var data struct {
		Sources struct {
			Edges []struct {
				Node Object `json:"node"`
			} `json:"edges"`
			PageInfo PageInfo `json:"pageInfo"`
		} `json:"sources"`
	}
	if err := c.GraphQL(ctx, listSourcesQuery, map[string]any{"input": in}, &data); err != nil {
		return nil, PageInfo{}, err
	}
	out := make([]Object, 0, len(data.Sources.Edges))
	for _, e := range data.Sources.Edges {
		out = append(out, e.Node)
	}
	return out, data.Sources.PageInfo, nil
}

// LogTypeSchemas returns the schemas whose names contain name.
func (c *Client) LogTypeSchemas(ctx context.Context, name string) ([]Object, error) {
	var data struct {
		Schemas struct {
			Edges []struct {
				Node Object `json:"node"`
			} `json:"edges"`
		} `json:"schemas"`
	}
	if err := c.GraphQL(ctx, schemaQuery, map[string]any{"name": name}, &data); err != nil {
		return nil, err
	}
	out := make([]Object, 0, len(data.Schemas.Edges))
	for _, e := range data.Schemas.Edges {
		out = append(out, e.Node)
	}
	return out, nil
}

// ListUsers returns every user with their role.
func (c *Client) ListUsers(ctx context.Context) ([]Object, error) {
	var data struct {
		Users []Object `json:"users"`
	}
	if err := c.GraphQL(ctx, listUsersQuery, nil, &data); err != nil {
		return nil, err
	}
	return data.Users, nil
}
