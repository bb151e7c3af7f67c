// Package config handles configuration for the server component,
// including defaults, JSON overlay, environment variables and command-line flags.
package config

import "time"

// DefaultSecretKey is the signing key used when none is configured.
// It is publicly known, so tokens signed with it can be forged; production
// deployments must set JWT_SECRET (or -s).
const DefaultSecretKey = "shh"

// Config holds runtime settings for the authkeeper server.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the HTTP API.
//   - EndpointAddrGRPC: bind address for the gated gRPC endpoint; empty disables it.
//   - StoreDSN: user store location. "memory://", a postgres:// DSN or sqlite://path.
//   - SecretKey: HMAC secret for signing JWTs (HS256).
//   - AccessTokenValidityDuration: token lifetime.
//   - BcryptCost: bcrypt work factor for new password hashes.
//   - LogLevel / LogFormat: slog level name and "json" or "text".
type Config struct {
	EndpointAddrHTTP            string
	EndpointAddrGRPC            string
	StoreDSN                    string
	SecretKey                   string
	AccessTokenValidityDuration time.Duration
	BcryptCost                  int
	LogLevel                    string
	LogFormat                   string
}

// LoadDefaults populates Config with development defaults.
// NOTE: the default secret is insecure and must be overridden outside demos.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.StoreDSN = "memory://"
	c.SecretKey = DefaultSecretKey
	c.AccessTokenValidityDuration = 24 * time.Hour
	c.BcryptCost = 8
	c.LogLevel = "info"
	c.LogFormat = "json"
}

// UsesDefaultSecret reports whether tokens would be signed with the
// built-in fallback key.
func (c *Config) UsesDefaultSecret() bool {
	return c.SecretKey == "" || c.SecretKey == DefaultSecretKey
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment (optionally seeded from a .env
// file) and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
