// Package panther is a thin client for Panther's GraphQL and REST APIs.
package panther

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultTimeout         = 30 * time.Second
	DefaultRetries         = 2
	DefaultPollInterval    = time.Second
	DefaultMaxPollInterval = 5 * time.Second
)

// Config configures a Client.
type Config struct {
	GraphQLURL string
	RESTURL    string
	Token      TokenSource
	UserAgent  string
	Timeout    time.Duration
	Retries    int
	Logger     *slog.Logger

	// PollInterval is the first wait between data lake status checks; each
	// later wait grows by PollInterval up to MaxPollInterval.
	PollInterval    time.Duration
	MaxPollInterval time.Duration
}

// Client talks to one Panther instance.
type Client struct {
	graphQLURL string
	token      TokenSource
	http       *resty.Client
	logger     *slog.Logger

	pollInterval    time.Duration
	maxPollInterval time.Duration
}

// NewClient creates a client. Requests are retried up to Config.Retries
// times: reads on a transport error, 429 or 5xx; writes (GraphQL mutations,
// REST POST and PATCH) only on 429 or 503, where the API did not act on them.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == nil {
		return nil, ErrNoToken
	}
	if cfg.GraphQLURL == "" {
		cfg.GraphQLURL = DefaultGraphQLURL
	}
	if cfg.RESTURL == "" {
		cfg.RESTURL = DefaultRESTURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = UserAgent("")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxPollInterval < cfg.PollInterval {
		cfg.MaxPollInterval = max(DefaultMaxPollInterval, cfg.PollInterval)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.RESTURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(250 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(shouldRetry).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{logger})

	return &Client{
		graphQLURL: cfg.GraphQLURL,
		token:      cfg.Token,
		http:       rc,
		logger:     logger,

		pollInterval:    cfg.PollInterval,
		maxPollInterval: cfg.MaxPollInterval,
	}, nil
}

type idempotentKey struct{}

// withIdempotent marks the requests made with ctx as safe or unsafe to
// repeat, overriding the choice made from the HTTP method.
func withIdempotent(ctx context.Context, safe bool) context.Context {
	return context.WithValue(ctx, idempotentKey{}, safe)
}

func idempotent(req *resty.Request) bool {
	if safe, ok := req.Context().Value(idempotentKey{}).(bool); ok {
		return safe
	}
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

func shouldRetry(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch status := r.StatusCode(); {
	case status == http.StatusTooManyRequests, status == http.StatusServiceUnavailable:
		return true
	case !idempotent(r.Request):
		return false
	default:
		return err != nil || status >= http.StatusInternalServerError
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// GraphQL executes document with variables and decodes the data field into
// out, which may be nil.
func (c *Client) GraphQL(ctx context.Context, document string, variables map[string]any, out any) error {
	tok, err := c.token.Token(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(withIdempotent(ctx, !isMutation(document))).
		SetHeader("X-API-Key", tok).
		SetBody(graphQLRequest{Query: document, Variables: variables}).
		Post(c.graphQLURL)
	if err != nil {
		return fmt.Errorf("graphql request failed: %w", err)
	}
	c.logger.Debug("graphql request", "operation", operationName(document),
		"status", resp.StatusCode(), "duration", time.Since(start))

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return &APIError{Method: http.MethodPost, URL: c.graphQLURL, Status: resp.StatusCode(), Body: string(resp.Body())}
	}

	var gr graphQLResponse
	if err := json.Unmarshal(resp.Body(), &gr); err != nil {
		return fmt.Errorf("failed to decode graphql response: %w", err)
	}
	if len(gr.Errors) > 0 {
		msgs := make([]string, 0, len(gr.Errors))
		for _, e := range gr.Errors {
			msgs = append(msgs, e.Message)
		}
		return &GraphQLError{Messages: msgs}
	}
	if out == nil || len(gr.Data) == 0 || string(gr.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return fmt.Errorf("failed to decode graphql data: %w", err)
	}
	return nil
}

// Request describes a REST call. Expected lists the acceptable statuses and
// defaults to 200.
type Request struct {
	Method   string
	Path     string
	Query    url.Values
	Body     any
	Expected []int
}

// REST performs req and decodes a JSON response body into out, which may be
// nil. The status is returned even when it was not expected.
func (c *Client) REST(ctx context.Context, req Request, out any) (int, error) {
	tok, err := c.token.Token(ctx)
	if err != nil {
		return 0, err
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	expected := req.Expected
	if len(expected) == 0 {
		expected = []int{http.StatusOK}
	}

	r := c.http.R().
		SetContext(ctx).
		SetHeader("X-API-Key", tok)
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	if req.Body != nil {
		r.SetHeader("Content-Type", "application/json").SetBody(req.Body)
	}

	start := time.Now()
	resp, err := r.Execute(method, req.Path)
	if err != nil {
		return 0, fmt.Errorf("%s %s failed: %w", method, req.Path, err)
	}
	c.logger.Debug("rest request", "method", method, "path", req.Path,
		"status", resp.StatusCode(), "duration", time.Since(start))

	if !slices.Contains(expected, resp.StatusCode()) {
		return resp.StatusCode(), &APIError{Method: method, URL: req.Path, Status: resp.StatusCode(), Body: string(resp.Body())}
	}
	if out != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return resp.StatusCode(), fmt.Errorf("failed to decode %s %s response: %w", method, req.Path, err)
		}
	}
	return resp.StatusCode(), nil
}

// Get is shorthand for a GET expecting 200.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	_, err := c.REST(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
	return err
}

// isMutation reports whether document is a GraphQL mutation.
func isMutation(document string) bool {
	return strings.HasPrefix(strings.TrimSpace(document), "mutation")
}

// operationName extracts the operation name from a GraphQL document for
// logging, e.g. "ListAlerts" from "query ListAlerts($input: ...)".
func operationName(document string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(document), func(r rune) bool {
		return r == ' ' || r == '\n' || r == '\t' || r == '(' || r == '{'
	})
	if len(fields) >= 2 && (fields[0] == "query" || fields[0] == "mutation") {
		return fields[1]
	}
	return "anonymous"
}

// restyLogger routes resty's internal logging to slog.
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "resty")
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "resty")
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "resty")
}
