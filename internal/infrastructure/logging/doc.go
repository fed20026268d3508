// Package logging provides structured logging for the bridge.
//
// It wraps log/slog so every component logs with the same handler,
// level and default fields (service, version).
//
// Logging is configured via the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("thermostat registered", "serial", serial)
//
// Never log MQTT passwords or InfluxDB tokens; the config types
// implement slog.LogValuer to redact them when logged whole.
package logging
