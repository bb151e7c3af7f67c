package config

import (
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
	"github.com/joho/godotenv"
)

// Environment variable names. JWT_SECRET keeps the name deployments
// already use for the signing key.
const (
	EnvHTTPAddr   = "AUTH_HTTP_ADDR"
	EnvGRPCAddr   = "AUTH_GRPC_ADDR"
	EnvStoreDSN   = "AUTH_STORE_DSN"
	EnvSecretKey  = "JWT_SECRET"
	EnvTokenTTL   = "AUTH_TOKEN_TTL"
	EnvBcryptCost = "AUTH_BCRYPT_COST"
	EnvLogLevel   = "AUTH_LOG_LEVEL"
	EnvLogFormat  = "AUTH_LOG_FORMAT"
)

// parseEnv overlays config with environment variables. When -envfile is
// given, the file is read with godotenv and used for variables that are not
// set in the process environment. Unparsable numeric values panic.
func parseEnv(config *Config) {
	fileVars := map[string]string{}
	if path := flagx.EnvFileFlags(); path != "" {
		vars, err := godotenv.Read(path)
		if err != nil {
			panic(err)
		}
		fileVars = vars
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}

	applyEnv(config, lookup)
}

func applyEnv(config *Config, lookup func(string) (string, bool)) {
	strs := map[string]*string{
		EnvHTTPAddr:  &config.EndpointAddrHTTP,
		EnvGRPCAddr:  &config.EndpointAddrGRPC,
		EnvStoreDSN:  &config.StoreDSN,
		EnvLogLevel:  &config.LogLevel,
		EnvLogFormat: &config.LogFormat,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	// an empty JWT_SECRET counts as unset, keeping the fallback key
	if v, ok := lookup(EnvSecretKey); ok && v != "" {
		config.SecretKey = v
	}

	if v, ok := lookup(EnvTokenTTL); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		config.AccessTokenValidityDuration = d
	}

	if v, ok := lookup(EnvBcryptCost); ok {
		cost, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		config.BcryptCost = cost
	}
}
