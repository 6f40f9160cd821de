//go:build !windows

package process

import (
	"os"
	"os/exec"

	"github.com/creack/pty"
)

// startPTY starts cmd with stdin and stdout on a new pseudo-terminal. Fields
// already set on cmd, stderr in particular, are left alone.
func startPTY(cmd *exec.Cmd) (*os.File, error) {
	return pty.Start(cmd)
}
