package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/mcp-panther/internal/panther"
	"github.com/leapstack-labs/mcp-panther/pkg/dialect"
	_ "github.com/leapstack-labs/mcp-panther/pkg/dialects/redshift"  // register
	_ "github.com/leapstack-labs/mcp-panther/pkg/dialects/snowflake" // register
)

var transports = []string{"stdio", "streamable-http"}

// Validate checks if the configuration is valid. Credentials are not
// required here so that offline commands work without them; see TokenSource.
func (c *Config) Validate() error {
	if _, ok := dialect.Get(c.Datastore); !ok {
		return fmt.Errorf("unknown datastore_type %q, valid values are: %s",
			c.Datastore, strings.Join(dialect.List(), ", "))
	}
	if !contains(transports, c.Transport) {
		return fmt.Errorf("unknown transport %q, valid values are: %s",
			c.Transport, strings.Join(transports, ", "))
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries cannot be negative, got %d", c.Retries)
	}
	if _, err := c.Endpoints(); err != nil {
		return err
	}
	return nil
}

// Endpoints resolves the GraphQL and REST roots from the configured URLs.
func (c *Config) Endpoints() (panther.Endpoints, error) {
	return panther.ResolveEndpoints(c.InstanceURL, c.GraphQLURL, c.RESTURL)
}

// TokenSource returns the API token source. A token file takes precedence
// over an inline token and is reloaded when rewritten.
func (c *Config) TokenSource(logger *slog.Logger) (panther.TokenSource, error) {
	if c.APITokenFile != "" {
		return panther.NewFileToken(c.APITokenFile, logger)
	}
	if strings.TrimSpace(c.APIToken) == "" {
		return nil, fmt.Errorf("%w: set %sAPI_TOKEN or %sAPI_TOKEN_FILE", panther.ErrNoToken, EnvPrefix, EnvPrefix)
	}
	return panther.StaticToken(c.APIToken), nil
}

// ParseLevel maps a log_level value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: use debug, info, warn or error", s)
	}
	return l, nil
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
