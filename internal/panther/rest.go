package panther

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Object is an API entity passed through to callers without a fixed schema.
type Object = map[string]any

// PageInfo is the GraphQL connection cursor block.
type PageInfo struct {
	HasNextPage     bool   `json:"hasNextPage"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
	EndCursor       string `json:"endCursor"`
	StartCursor     string `json:"startCursor"`
}

// ListPage is one page of a REST list endpoint.
type ListPage struct {
	Results []Object `json:"results"`
	Next    string   `json:"next"`
}

// List fetches one page of a REST collection such as /rules or /roles.
func (c *Client) List(ctx context.Context, path string, limit int, cursor string, extra url.Values) (*ListPage, error) {
	q := url.Values{}
	for k, v := range extra {
		q[k] = v
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	var page ListPage
	if err := c.Get(ctx, path, q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Fetch returns a single REST entity. A missing entity is reported as an
// error matched by IsNotFound.
func (c *Client) Fetch(ctx context.Context, path string) (Object, error) {
	var obj Object
	if err := c.Get(ctx, path, nil, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// Put replaces a REST entity and returns the stored version.
func (c *Client) Put(ctx context.Context, path string, query url.Values, body any) (Object, error) {
	var obj Object
	_, err := c.REST(ctx, Request{Method: http.MethodPut, Path: path, Query: query, Body: body}, &obj)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// Post creates a REST entity and returns it.
func (c *Client) Post(ctx context.Context, path string, body any) (Object, error) {
	var obj Object
	_, err := c.REST(ctx, Request{
		Method:   http.MethodPost,
		Path:     path,
		Body:     body,
		Expected: []int{http.StatusOK, http.StatusCreated},
	}, &obj)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// Pick copies the named keys of obj, keeping absent keys as null so the
// output shape is stable.
func Pick(obj Object, keys ...string) Object {
	out := make(Object, len(keys))
	for _, k := range keys {
		out[k] = obj[k]
	}
	return out
}
