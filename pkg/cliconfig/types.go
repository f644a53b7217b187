// Package cliconfig provides configuration types and loading for the bidster CLI.
package cliconfig

// CLIConfig represents the complete configuration for the bidster CLI.
// Configuration values can come from multiple sources with the following precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables
// 3. Local config file (.bidsterrc.yaml in current directory)
// 4. Global config file (~/.config/bidster/config.yaml)
// 5. Default values (lowest priority)
type CLIConfig struct {
	// BaseURL is the server root; the API lives under BaseURL + "/api".
	BaseURL string `yaml:"baseUrl" json:"baseUrl"`

	// Timeout is the HTTP transport timeout in seconds.
	Timeout int `yaml:"timeout" json:"timeout"`

	// Logging settings
	LogLevel  string `yaml:"logLevel" json:"logLevel"`
	LogFormat string `yaml:"logFormat" json:"logFormat"`

	// PageSize is the listings page size requested by list commands.
	PageSize int `yaml:"pageSize" json:"pageSize"`

	// JSON switches command output to JSON.
	JSON bool `yaml:"json" json:"json"`

	// Source tracks where each value came from (for `bidster config`).
	Sources map[string]string `yaml:"-" json:"-"`

	// SetFields records which keys were present in a loaded file, so an
	// explicit `json: false` can override an earlier true.
	SetFields map[string]bool `yaml:"-" json:"-"`
}

// ConfigSource identifies where a config value originated.
const (
	SourceDefault = "default"
	SourceEnv     = "env"
	SourceGlobal  = "global"
	SourceLocal   = "local"
	SourceFlag    = "flag"
)

// Keys lists the configuration keys in display order.
var Keys = []string{"baseUrl", "timeout", "logLevel", "logFormat", "pageSize", "json"}
