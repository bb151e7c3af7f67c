// Package config holds the authkeeper CLI settings. Values come from
// defaults, an optional JSON file and the environment; the cobra flags of
// the CLI override them last.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Environment variables read by LoadConfig.
const (
	EnvServerURL      = "AUTHKEEPER_SERVER_URL"
	EnvRequestTimeout = "AUTHKEEPER_TIMEOUT"
	EnvTokenFile      = "AUTHKEEPER_TOKEN_FILE"
)

// Config holds runtime settings for the authkeeper CLI.
//
// Fields:
//   - ServerURL: base URL of the HTTP API.
//   - RequestTimeout: per-request timeout.
//   - TokenFile: where login stores the access token; empty disables storage.
type Config struct {
	ServerURL      string
	RequestTimeout time.Duration
	TokenFile      string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 10 * time.Second
	c.TokenFile = defaultTokenFile()
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".authkeeper", "token")
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the JSON file at jsonPath (if not empty) and the environment. Later sources
// take precedence over earlier ones.
func LoadConfig(jsonPath string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, jsonPath); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}
