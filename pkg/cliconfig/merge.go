package cliconfig

// MergeConfig merges source config into target, updating sources tracking.
// Only non-zero values from source are applied.
func MergeConfig(target, source *CLIConfig, sourceType string) {
	if source == nil {
		return
	}
	if target.Sources == nil {
		target.Sources = make(map[string]string)
	}

	if source.BaseURL != "" {
		target.BaseURL = source.BaseURL
		target.Sources["baseUrl"] = sourceType
	}
	// timeout 0 disables the transport timeout, so it needs SetFields too.
	if source.Timeout != 0 || fieldIsSet(source, "timeout") {
		target.Timeout = source.Timeout
		target.Sources["timeout"] = sourceType
	}
	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
		target.Sources["logLevel"] = sourceType
	}
	if source.LogFormat != "" {
		target.LogFormat = source.LogFormat
		target.Sources["logFormat"] = sourceType
	}
	if source.PageSize != 0 {
		target.PageSize = source.PageSize
		target.Sources["pageSize"] = sourceType
	}
	// For booleans, checking `if source.X` cannot detect an explicit false.
	if boolIsSet(source, "json") {
		target.JSON = source.JSON
		target.Sources["json"] = sourceType
	}
}

func fieldIsSet(cfg *CLIConfig, yamlKey string) bool {
	return cfg.SetFields != nil && cfg.SetFields[yamlKey]
}

// boolIsSet reports whether a boolean field identified by its YAML key was
// explicitly set in the source config. Without SetFields (programmatic
// configs) only true counts as set.
func boolIsSet(cfg *CLIConfig, yamlKey string) bool {
	if cfg.SetFields != nil {
		return cfg.SetFields[yamlKey]
	}
	switch yamlKey {
	case "json":
		return cfg.JSON
	}
	return false
}
