// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: console output for human readability
//
// The console driver owns the terminal, so logs normally go to a file
// (see config.LogConfig.Output) rather than stdout.
//
// Example Usage:
//
//	logger, err := logging.New(logging.Config{Level: "debug", Output: "/tmp/wincmd.log"})
//	logger.Named("process").Info("spawned", zap.String("bridge_id", id))
package logging
