package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/mcp-panther/internal/panther"
)

// isolate runs the test in an empty directory with no PANTHER_ variables.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, EnvPrefix) {
			t.Setenv(name, "")
			require.NoError(t, os.Unsetenv(name))
		}
	}
	ResetConfig()
	return dir
}

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	fs.String("datastore", DefaultDatastore, "")
	fs.String("log-level", DefaultLogLevel, "")
	fs.String("transport", DefaultTransport, "")
	fs.Int("port", DefaultPort, "")
	fs.Duration("timeout", DefaultTimeout, "")
	fs.Bool("interactive", false, "")
	return fs
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, &Config{
		Datastore: DefaultDatastore,
		Transport: DefaultTransport,
		Host:      DefaultHost,
		Port:      DefaultPort,
		LogLevel:  DefaultLogLevel,
		Timeout:   DefaultTimeout,
		Retries:   DefaultRetries,
	}, cfg)
	assert.Empty(t, GetConfigFileUsed())
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_File(t *testing.T) {
	dir := isolate(t)
	writeFile(t, dir, "mcp-panther.yaml", `
instance_url: https://acme.runpanther.net
datastore_type: Redshift
transport: streamable-http
port: 8080
timeout: 45
`)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "mcp-panther.yaml", GetConfigFileUsed())
	assert.Equal(t, "https://acme.runpanther.net", cfg.InstanceURL)
	assert.Equal(t, "redshift", cfg.Datastore)
	assert.Equal(t, "streamable-http", cfg.Transport)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
}

func TestLoadConfig_ExplicitFileMissing(t *testing.T) {
	isolate(t)

	_, err := LoadConfig("nope.yaml", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file nope.yaml")
}

func TestLoadConfig_Env(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "plain keys",
			env: map[string]string{
				"PANTHER_GQL_API_URL":    "https://example.com/public/graphql",
				"PANTHER_DATASTORE_TYPE": "redshift",
				"PANTHER_PORT":           "9000",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "https://example.com/public/graphql", cfg.GraphQLURL)
				assert.Equal(t, "redshift", cfg.Datastore)
				assert.Equal(t, 9000, cfg.Port)
			},
		},
		{
			name: "duration string",
			env:  map[string]string{"PANTHER_TIMEOUT": "1m30s"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 90*time.Second, cfg.Timeout)
			},
		},
		{
			name: "bare seconds",
			env:  map[string]string{"PANTHER_TIMEOUT": "12"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 12*time.Second, cfg.Timeout)
			},
		},
		{
			name: "api key alias",
			env:  map[string]string{"PANTHER_API_KEY": "alias-key"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "alias-key", cfg.APIToken)
			},
		},
		{
			name: "canonical token wins over alias",
			env: map[string]string{
				"PANTHER_API_KEY":   "alias-key",
				"PANTHER_API_TOKEN": "real-key",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "real-key", cfg.APIToken)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := LoadConfig("", nil)
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, dir, ".env", "PANTHER_API_TOKEN=from-dotenv\nPANTHER_LOG_LEVEL=debug\n")
	t.Setenv("PANTHER_LOG_LEVEL", "error")
	// godotenv sets PANTHER_API_TOKEN in the process; restore it afterwards.
	t.Setenv("PANTHER_API_TOKEN", "")
	require.NoError(t, os.Unsetenv("PANTHER_API_TOKEN"))

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.APIToken)
	assert.Equal(t, "error", cfg.LogLevel, "variables already set are not overridden by .env")
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	dir := isolate(t)
	writeFile(t, dir, "mcp-panther.yaml", "datastore_type: redshift\nport: 8080\n")
	t.Setenv("PANTHER_PORT", "9000")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--port", "7000", "--timeout", "5s", "--interactive"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Port, "flag beats env and file")
	assert.Equal(t, "redshift", cfg.Datastore, "unchanged flag does not mask the file")
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.False(t, k.Exists("interactive"), "command options are not configuration")
}

func TestSecondsHook(t *testing.T) {
	durationType := reflect.TypeOf(time.Duration(0))
	tests := []struct {
		name string
		data interface{}
		want interface{}
	}{
		{"duration passes through", 5 * time.Second, 5 * time.Second},
		{"int is seconds", 45, 45 * time.Second},
		{"float is seconds", 1.5, 1500 * time.Millisecond},
		{"numeric string is seconds", "12", 12 * time.Second},
		{"duration string is left for the next hook", "1m30s", "1m30s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := secondsHook(reflect.TypeOf(tt.data), durationType, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadConfig_TimeoutFlag(t *testing.T) {
	isolate(t)

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--timeout", "750ms"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, cfg.Timeout)
}

func TestLoadConfig_DatastoreFlag(t *testing.T) {
	isolate(t)
	t.Setenv("PANTHER_DATASTORE_TYPE", "redshift")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--datastore", "snowflake"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, "snowflake", cfg.Datastore)
}

func TestLoadConfig_ExpandsTokenReferences(t *testing.T) {
	dir := isolate(t)
	writeFile(t, dir, "mcp-panther.yaml", "api_token: ${MY_SECRET}\n")
	t.Setenv("MY_SECRET", "s3cret")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.APIToken)
}

func validConfig() Config {
	return Config{
		Datastore: DefaultDatastore,
		Transport: DefaultTransport,
		Host:      DefaultHost,
		Port:      DefaultPort,
		LogLevel:  DefaultLogLevel,
		Timeout:   DefaultTimeout,
		Retries:   DefaultRetries,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		errSubstr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "redshift", mutate: func(c *Config) { c.Datastore = "redshift" }},
		{name: "http transport", mutate: func(c *Config) { c.Transport = "streamable-http" }},
		{name: "unknown datastore", mutate: func(c *Config) { c.Datastore = "bigquery" }, errSubstr: "valid values are: redshift, snowflake"},
		{name: "unknown transport", mutate: func(c *Config) { c.Transport = "sse" }, errSubstr: `unknown transport "sse"`},
		{name: "port zero", mutate: func(c *Config) { c.Port = 0 }, errSubstr: "port must be between 1 and 65535"},
		{name: "port too large", mutate: func(c *Config) { c.Port = 70000 }, errSubstr: "port must be between 1 and 65535"},
		{name: "log level", mutate: func(c *Config) { c.LogLevel = "loud" }, errSubstr: "invalid log_level"},
		{name: "timeout", mutate: func(c *Config) { c.Timeout = 0 }, errSubstr: "timeout must be positive"},
		{name: "retries", mutate: func(c *Config) { c.Retries = -1 }, errSubstr: "retries cannot be negative"},
		{name: "instance url", mutate: func(c *Config) { c.InstanceURL = "ftp://acme" }, errSubstr: "invalid instance URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestConfig_Endpoints(t *testing.T) {
	cfg := validConfig()
	cfg.InstanceURL = "https://acme.runpanther.net/"

	ep, err := cfg.Endpoints()
	require.NoError(t, err)
	assert.Equal(t, "https://acme.runpanther.net/public/graphql", ep.GraphQL)
	assert.Equal(t, "https://acme.runpanther.net", ep.REST)
}

func TestConfig_TokenSource(t *testing.T) {
	ctx := context.Background()

	t.Run("missing", func(t *testing.T) {
		cfg := validConfig()
		_, err := cfg.TokenSource(nil)
		require.ErrorIs(t, err, panther.ErrNoToken)
		assert.Contains(t, err.Error(), "PANTHER_API_TOKEN")
	})

	t.Run("static", func(t *testing.T) {
		cfg := validConfig()
		cfg.APIToken = "abc"
		src, err := cfg.TokenSource(nil)
		require.NoError(t, err)
		tok, err := src.Token(ctx)
		require.NoError(t, err)
		assert.Equal(t, "abc", tok)
	})

	t.Run("file wins", func(t *testing.T) {
		cfg := validConfig()
		cfg.APIToken = "inline"
		cfg.APITokenFile = writeFile(t, t.TempDir(), "token", "from-file\n")
		src, err := cfg.TokenSource(slog.New(slog.DiscardHandler))
		require.NoError(t, err)
		assert.IsType(t, &panther.FileToken{}, src)
		tok, err := src.Token(ctx)
		require.NoError(t, err)
		assert.Equal(t, "from-file", tok)
	})
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("")
	assert.Error(t, err)
}

func TestGetLogger(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	assert.Same(t, logger, GetLogger(ctx))
	assert.NotNil(t, GetLogger(context.Background()))
}

func TestGetConfig(t *testing.T) {
	def := GetConfig(context.Background())
	assert.Equal(t, validConfig(), *def)

	cfg := &Config{Datastore: "redshift"}
	ctx := context.WithValue(context.Background(), ConfigKey(), cfg)
	assert.Same(t, cfg, GetConfig(ctx))
}
