package cliconfig

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// MaxTimeout bounds the HTTP timeout in seconds.
const MaxTimeout = 3600

// MaxPageSize bounds the page size.
const MaxPageSize = 100

var validLogLevels = []string{"debug", "info", "warn", "warning", "error"}

// Validate checks the resolved configuration.
func (c *CLIConfig) Validate() error {
	var errs []error

	if c.BaseURL == "" {
		errs = append(errs, errors.New("baseUrl is required"))
	} else if u, err := url.Parse(c.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("baseUrl %q must be an absolute http(s) URL", c.BaseURL))
	}
	if c.Timeout < 0 || c.Timeout > MaxTimeout {
		errs = append(errs, fmt.Errorf("timeout %d is out of range (0-%d)", c.Timeout, MaxTimeout))
	}
	if c.PageSize < 1 || c.PageSize > MaxPageSize {
		errs = append(errs, fmt.Errorf("pageSize %d is out of range (1-%d)", c.PageSize, MaxPageSize))
	}
	if c.LogLevel != "" && !contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		errs = append(errs, fmt.Errorf("logLevel %q is not one of %s", c.LogLevel, strings.Join(validLogLevels, ", ")))
	}
	if f := strings.ToLower(c.LogFormat); f != "" && f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("logFormat %q must be text or json", c.LogFormat))
	}

	return errors.Join(errs...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
