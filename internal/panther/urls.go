package panther

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultGraphQLURL is used when neither an instance URL nor an explicit
	// GraphQL URL is configured.
	DefaultGraphQLURL = "https://api.runpanther.com/public/graphql"
	// DefaultRESTURL is the REST counterpart of DefaultGraphQLURL.
	DefaultRESTURL = "https://api.runpanther.com"

	graphQLPath = "/public/graphql"
)

// Endpoints are the two API roots of a Panther instance.
type Endpoints struct {
	GraphQL string
	REST    string
}

// ResolveEndpoints derives the API roots. An instance URL such as
// https://acme.runpanther.net yields <instance>/public/graphql and
// <instance>; explicit GraphQL or REST URLs take precedence.
func ResolveEndpoints(instanceURL, graphQLURL, restURL string) (Endpoints, error) {
	ep := Endpoints{GraphQL: DefaultGraphQLURL, REST: DefaultRESTURL}

	if instanceURL = strings.TrimSpace(instanceURL); instanceURL != "" {
		base, err := baseURL(instanceURL)
		if err != nil {
			return Endpoints{}, fmt.Errorf("invalid instance URL: %w", err)
		}
		ep.GraphQL = base + graphQLPath
		ep.REST = base
	}
	if graphQLURL = strings.TrimSpace(graphQLURL); graphQLURL != "" {
		if _, err := baseURL(graphQLURL); err != nil {
			return Endpoints{}, fmt.Errorf("invalid GraphQL URL: %w", err)
		}
		ep.GraphQL = strings.TrimRight(graphQLURL, "/")
	}
	if restURL = strings.TrimSpace(restURL); restURL != "" {
		base, err := baseURL(restURL)
		if err != nil {
			return Endpoints{}, fmt.Errorf("invalid REST URL: %w", err)
		}
		ep.REST = base
	}
	return ep, nil
}

// baseURL checks that raw is an absolute http(s) URL and strips trailing
// slashes and a trailing /public/graphql.
func baseURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return "", fmt.Errorf("%q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%q: missing host", raw)
	}
	base := strings.TrimRight(raw, "/")
	base = strings.TrimSuffix(base, graphQLPath)
	return strings.TrimRight(base, "/"), nil
}

// UserAgent is the User-Agent header sent with every request.
func UserAgent(version string) string {
	if version == "" {
		version = "dev"
	}
	return "mcp-panther/" + version + " (Go)"
}
