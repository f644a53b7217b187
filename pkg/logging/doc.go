// Package logging configures the structured loggers used by the bidster CLI
// and its client libraries.
//
// It wraps log/slog. Libraries accept a *slog.Logger through an option and
// fall back to Nop when none is given; only cmd/bidster builds a real one
// from the resolved configuration:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.ParseLevel(cfg.LogLevel),
//	    Format: logging.ParseFormat(cfg.LogFormat),
//	})
//	logger.Debug("api request", "method", "GET", "path", "/listings")
//
// Attributes whose key names a credential (token, authorization, password)
// are replaced with "[REDACTED]" before they reach any handler.
//
// When Config.Trace is set, every record at debug level and above is also
// written as JSON to that writer, independent of the console level.
package logging
