package console

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// MakeRaw puts f into raw mode when it is a terminal and returns a function
// restoring the previous mode. raw is false, and restore a no-op, otherwise.
func MakeRaw(f *os.File) (restore func(), raw bool, err error) {
	if !IsTerminal(f) {
		return func() {}, false, nil
	}

	fd := int(f.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return func() {}, false, fmt.Errorf("enter raw mode: %w", err)
	}
	return func() { _ = term.Restore(fd, state) }, true, nil
}
