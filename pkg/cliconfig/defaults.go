package cliconfig

import (
	"strings"
	"time"
)

// DefaultBaseURL is the server root used when nothing else is configured.
const DefaultBaseURL = "http://localhost:8000"

// APIPrefix is appended to the base URL to reach the REST API.
const APIPrefix = "/api"

// DefaultTimeout is the default HTTP timeout in seconds.
const DefaultTimeout = 30

// DefaultLogLevel keeps the CLI quiet unless something goes wrong.
const DefaultLogLevel = "warn"

// DefaultLogFormat is the default log format.
const DefaultLogFormat = "text"

// DefaultPageSize matches the server's default listings page size.
const DefaultPageSize = 8

// NewDefault creates a new CLIConfig with default values.
func NewDefault() *CLIConfig {
	cfg := &CLIConfig{
		BaseURL:   DefaultBaseURL,
		Timeout:   DefaultTimeout,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
		PageSize:  DefaultPageSize,
		Sources:   make(map[string]string),
	}
	for _, key := range Keys {
		cfg.Sources[key] = SourceDefault
	}
	return cfg
}

// APIURL returns the REST API root.
func (c *CLIConfig) APIURL() string {
	return strings.TrimRight(c.BaseURL, "/") + APIPrefix
}

// TimeoutDuration returns Timeout as a duration. Zero disables the timeout.
func (c *CLIConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// Get returns the display value of a key.
func (c *CLIConfig) Get(key string) (any, bool) {
	switch key {
	case "baseUrl":
		return c.BaseURL, true
	case "timeout":
		return c.Timeout, true
	case "logLevel":
		return c.LogLevel, true
	case "logFormat":
		return c.LogFormat, true
	case "pageSize":
		return c.PageSize, true
	case "json":
		return c.JSON, true
	}
	return nil, false
}
