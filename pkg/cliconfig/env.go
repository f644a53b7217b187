package cliconfig

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names
const (
	EnvBaseURL   = "BIDSTER_BASE_URL"
	EnvTimeout   = "BIDSTER_TIMEOUT"
	EnvLogLevel  = "BIDSTER_LOG_LEVEL"
	EnvLogFormat = "BIDSTER_LOG_FORMAT"
	EnvPageSize  = "BIDSTER_PAGE_SIZE"
	EnvJSON      = "BIDSTER_JSON"
	EnvConfigDir = "BIDSTER_CONFIG_DIR"
	EnvToken     = "BIDSTER_TOKEN"
)

// LoadEnvConfig loads configuration from environment variables.
// It only sets values that are present in the environment.
func LoadEnvConfig(cfg *CLIConfig) {
	if cfg.Sources == nil {
		cfg.Sources = make(map[string]string)
	}

	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
		cfg.Sources["baseUrl"] = SourceEnv
	}

	if v := os.Getenv(EnvTimeout); v != "" {
		if timeout, err := strconv.Atoi(v); err == nil {
			cfg.Timeout = timeout
			cfg.Sources["timeout"] = SourceEnv
		}
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
		cfg.Sources["logLevel"] = SourceEnv
	}

	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.LogFormat = v
		cfg.Sources["logFormat"] = SourceEnv
	}

	if v := os.Getenv(EnvPageSize); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			cfg.PageSize = size
			cfg.Sources["pageSize"] = SourceEnv
		}
	}

	if v := os.Getenv(EnvJSON); v != "" {
		cfg.JSON = parseBool(v)
		cfg.Sources["json"] = SourceEnv
	}
}

// TokenFromEnv returns BIDSTER_TOKEN, which takes precedence over the stored
// session token.
func TokenFromEnv() string {
	return strings.TrimSpace(os.Getenv(EnvToken))
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
