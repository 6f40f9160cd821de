package process

import "errors"

// Sentinel errors for process package.
var (
	// ErrEmptyCommand is returned when there is nothing to run.
	ErrEmptyCommand = errors.New("empty command")

	// ErrPTYUnsupported is returned by the PTY starter on platforms without one.
	ErrPTYUnsupported = errors.New("pty not supported on this platform")
)
