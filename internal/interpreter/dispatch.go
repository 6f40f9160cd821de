package interpreter

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/wincmd/internal/process"
	"github.com/GriffinCanCode/wincmd/internal/session"
	"github.com/GriffinCanCode/wincmd/internal/shared/paths"
)

// Dispatch runs cmd against s and reports whether a process was spawned.
// raw is the line as typed; pass-through commands run it unmodified.
func (it *Interpreter) Dispatch(s *session.Session, cmd Command, raw string) bool {
	name := cmd.Name()
	kind := name

	defer func() {
		it.metrics.RecordDispatch(kind)
	}()

	switch name {
	case "argv":
		it.argv(s, cmd.Args[1:])
	case "cls", "clear":
		s.Clear()
	case "exit":
		s.RequestExit()
	case "cd..":
		it.chdirParent()
	case "cd":
		it.chdir(cmd.Args[1:])
	case "":
		kind = "empty"
	default:
		if it.spawn(s, name, raw) {
			kind = "spawn"
			return true
		}
		kind = "spawn_failed"
	}
	return false
}

func (it *Interpreter) argv(s *session.Session, args []string) {
	var b strings.Builder
	for _, arg := range args {
		b.WriteString(arg)
		b.WriteByte('&')
	}
	b.WriteByte('\n')
	s.WriteString(b.String())
}

func (it *Interpreter) chdirParent() {
	cwd, err := it.wd.Getwd()
	if err != nil {
		it.log.Debug("getwd failed", zap.Error(err))
		return
	}
	if err := it.wd.Chdir(paths.Parent(cwd)); err != nil {
		it.log.Debug("cd.. failed", zap.Error(err))
	}
}

// chdir joins args with spaces so unquoted paths containing spaces work.
func (it *Interpreter) chdir(args []string) {
	arg := strings.Join(args, " ")
	if strings.ContainsRune(arg, 0) {
		it.log.Debug("cd rejected path with NUL")
		return
	}

	cwd, err := it.wd.Getwd()
	if err != nil {
		it.log.Debug("getwd failed", zap.Error(err))
		return
	}

	target, err := paths.Resolve(cwd, arg)
	if err != nil {
		it.log.Debug("cd rejected path", zap.Error(err))
		return
	}
	if err := it.wd.Chdir(target); err != nil {
		it.log.Debug("cd failed", zap.String("path", target), zap.Error(err))
	}
}

func (it *Interpreter) spawn(s *session.Session, name, raw string) bool {
	b, err := process.Spawn(raw, it.spawnOptions())
	if err != nil {
		it.log.Warn("spawn failed", zap.String("command", raw), zap.Error(err))
		s.WriteString(fmt.Sprintf("%s: could not start process\n", name))
		return false
	}
	s.Attach(b)
	return true
}
