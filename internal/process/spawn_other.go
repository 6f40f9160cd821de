//go:build !windows

package process

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

func defaultInterpreter() (name, flag string) {
	return "/bin/sh", "-c"
}

// configure puts the child in its own process group so Kill reaches
// anything the interpreter started. A PTY child gets its own session from
// the pty package instead; setpgid on a session leader fails.
func configure(cmd *exec.Cmd, _ string, pty bool) {
	if pty {
		return
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func rawCommandLine(_, _, _ string) string {
	return ""
}

func killProcess(p *os.Process) error {
	if err := unix.Kill(-p.Pid, unix.SIGKILL); err == nil {
		return nil
	}
	return p.Kill()
}

// isHangup reports the EIO a PTY master returns once the child side closes.
func isHangup(err error) bool {
	return errors.Is(err, unix.EIO)
}
