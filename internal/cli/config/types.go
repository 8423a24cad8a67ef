// Package config provides configuration management for the mcp-panther CLI.
package config

import (
	"time"
)

// Config holds all CLI configuration options.
type Config struct {
	InstanceURL  string        `koanf:"instance_url"`
	GraphQLURL   string        `koanf:"gql_api_url"`
	RESTURL      string        `koanf:"rest_api_url"`
	APIToken     string        `koanf:"api_token"`
	APITokenFile string        `koanf:"api_token_file"`
	Datastore    string        `koanf:"datastore_type"`
	Transport    string        `koanf:"transport"`
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	LogLevel     string        `koanf:"log_level"`
	Timeout      time.Duration `koanf:"timeout"`
	Retries      int           `koanf:"retries"`
}

// Default configuration values
const (
	DefaultDatastore = "snowflake"
	DefaultTransport = "stdio"
	DefaultHost      = "127.0.0.1"
	DefaultPort      = 3000
	DefaultLogLevel  = "warn"
	DefaultTimeout   = 30 * time.Second
	DefaultRetries   = 2
)

// EnvPrefix is the prefix of every environment variable the loader reads.
const EnvPrefix = "PANTHER_"

// Config file names searched in the working directory.
var configFileNames = []string{"mcp-panther.yaml", "mcp-panther.yml"}
