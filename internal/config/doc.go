// Package config provides 12-factor configuration for wincmd.
//
// Configuration is loaded from environment variables with defaults, and an
// optional TOML file can be layered on top with LoadFile. CLI flags in
// cmd/wincmd override both.
//
// Configuration Sections:
//   - Session: retained buffer size, trim slack, output encoding
//   - Process: command interpreter override, PTY mode, drain grace
//   - Shell: startup command, prompt marker, input routing, restart breaker
//   - Logging: level, format, output path
//   - Metrics: optional Prometheus listener
//   - Console: frame rate, exit-with-child
//   - Behavior: display/input switches for the console driver
//
// Example Usage:
//
//	cfg, err := config.LoadFile("wincmd.toml")
//	if err != nil {
//	    cfg = config.LoadOrDefault()
//	}
//
// Environment Variables:
//   - WINCMD_MAX_CHARS, WINCMD_TRIM_SLACK, WINCMD_ENCODING
//   - WINCMD_INTERPRETER, WINCMD_INTERPRETER_FLAG, WINCMD_PTY, WINCMD_DRAIN_GRACE
//   - WINCMD_STARTUP, WINCMD_PROMPT_MARKER, WINCMD_EXCLUSIVE_INPUT
//   - WINCMD_RESTART_FAILURES, WINCMD_RESTART_COOLDOWN
//   - WINCMD_LOG_LEVEL, WINCMD_LOG_DEV, WINCMD_LOG_OUTPUT
//   - WINCMD_METRICS_ADDR
//   - WINCMD_FRAME_RATE, WINCMD_EXIT_WITH_CHILD
//   - WINCMD_LIMIT_DIGITS, WINCMD_SUBSTITUTE
package config
