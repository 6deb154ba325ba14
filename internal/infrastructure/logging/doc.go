// Package logging provides structured logging for the Gray Logic Autopilot service.
//
// It wraps log/slog so every package logs the same way:
//
//   - JSON output for production, text output for development
//   - Default fields (service, version) on all entries
//   - Level-based filtering (debug, info, warn, error)
//
// Configuration lives in the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Component("autopilot").Warn("parameter not found", "path", "size")
package logging
