//go:build windows

package process

import (
	"os"
	"os/exec"
)

func startPTY(*exec.Cmd) (*os.File, error) {
	return nil, ErrPTYUnsupported
}
