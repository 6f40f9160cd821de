//go:build windows

package process

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

func defaultInterpreter() (name, flag string) {
	return `C:\Windows\System32\cmd.exe`, "/C"
}

// configure starts the child without a console window. cmd.exe parses its
// own command line, so a shell line is passed through unquoted.
func configure(cmd *exec.Cmd, cmdLine string, _ bool) {
	attr := &syscall.SysProcAttr{CreationFlags: windows.CREATE_NO_WINDOW}
	if cmdLine != "" {
		attr.CmdLine = cmdLine
	}
	cmd.SysProcAttr = attr
}

func rawCommandLine(name, flag, line string) string {
	return syscall.EscapeArg(name) + " " + flag + " " + line
}

func killProcess(p *os.Process) error {
	return p.Kill()
}

func isHangup(error) bool {
	return false
}
