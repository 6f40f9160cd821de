package interpreter

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/wincmd/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/wincmd/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/wincmd/internal/logging"
	"github.com/GriffinCanCode/wincmd/internal/process"
	"github.com/GriffinCanCode/wincmd/internal/session"
	"github.com/GriffinCanCode/wincmd/internal/shared/id"
)

// DefaultPromptMarker follows the working directory in the prompt.
const DefaultPromptMarker = ">"

// Options configures an Interpreter.
type Options struct {
	// WorkDir defaults to OSWorkDir.
	WorkDir      WorkDir
	PromptMarker string

	// StartupCommand is the shell started by Start without arguments and
	// by Restart. Empty means a bare prompt.
	StartupCommand string

	// ExclusiveInput sends a submitted line only to the attached process
	// while one is attached, instead of also interpreting it.
	ExclusiveInput bool

	// Process is the template for every spawn; Dir is replaced by the
	// working directory at spawn time.
	Process process.Options

	// RestartFailures and RestartCooldown configure the breaker guarding
	// startup command spawns.
	RestartFailures int
	RestartCooldown time.Duration

	Logger  *logging.Logger
	Metrics *monitoring.Metrics
}

// Interpreter dispatches submitted lines against a session. It holds only
// configuration and the identity of the last started shell; all session
// state lives in the session.
type Interpreter struct {
	wd        WorkDir
	marker    string
	startup   string
	exclusive bool
	spawnOpts process.Options
	breaker   *resilience.Breaker
	log       *logging.Logger
	metrics   *monitoring.Metrics

	shell id.BridgeID
}

// New creates an Interpreter.
func New(opts Options) *Interpreter {
	it := &Interpreter{
		wd:        opts.WorkDir,
		marker:    opts.PromptMarker,
		startup:   opts.StartupCommand,
		exclusive: opts.ExclusiveInput,
		spawnOpts: opts.Process,
		log:       logging.OrNop(opts.Logger).Named("interpreter"),
		metrics:   opts.Metrics,
	}
	if it.wd == nil {
		it.wd = OSWorkDir{}
	}
	if it.marker == "" {
		it.marker = DefaultPromptMarker
	}
	if it.spawnOpts.Logger == nil {
		it.spawnOpts.Logger = opts.Logger
	}
	if it.spawnOpts.Metrics == nil {
		it.spawnOpts.Metrics = opts.Metrics
	}

	failures := opts.RestartFailures
	if failures <= 0 {
		failures = 3
	}
	it.breaker = resilience.New("restart", resilience.Settings{
		MaxFailures: uint32(failures),
		Cooldown:    opts.RestartCooldown,
		OnStateChange: func(name string, from, to resilience.State) {
			it.metrics.RecordBreakerTransition(name, from.String(), to.String())
			it.log.Info("breaker state changed",
				zap.String("name", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	})

	return it
}

// Interpret handles one submitted line: it moves to a new line, flushes the
// input (which also reaches any attached process), dispatches it and writes
// a prompt unless a process was spawned.
func (it *Interpreter) Interpret(s *session.Session) {
	s.WriteString("\n")

	exclusive := it.exclusive && s.HasProcess()
	raw := s.FlushInput()
	if exclusive {
		it.metrics.RecordDispatch("forward")
		return
	}

	if !it.Dispatch(s, Tokenize(raw), raw) {
		it.Prompt(s)
	}
}

// Prompt writes the working directory, the marker and the pending input.
// After Interpret the input is always empty; the echo matters when a prompt
// follows a child exiting while the user was typing, so the line being
// edited reappears after the marker and PopInput still erases from it.
func (it *Interpreter) Prompt(s *session.Session) {
	cwd, err := it.wd.Getwd()
	if err != nil {
		it.log.Debug("getwd failed", zap.Error(err))
		cwd = ""
	}
	s.WriteString(cwd + it.marker + s.Input())
}

// Start runs argv directly when given, otherwise the startup command. With
// neither it writes a prompt. It reports whether a process was attached.
func (it *Interpreter) Start(s *session.Session, argv []string) bool {
	if len(argv) > 0 {
		b, err := process.SpawnArgs(argv, it.spawnOptions())
		if err != nil {
			it.log.Warn("start failed", zap.Strings("argv", argv), zap.Error(err))
			s.WriteString(fmt.Sprintf("%s: could not start process\n", argv[0]))
			it.Prompt(s)
			return false
		}
		it.adoptShell(s, b)
		return true
	}

	if it.startup == "" {
		it.Prompt(s)
		return false
	}

	if !it.spawnShell(s) {
		it.Prompt(s)
		return false
	}
	return true
}

// Restart replaces the attached process with a fresh startup command. With
// no startup command it only kills the attached process. Repeated spawn
// failures open a breaker; while it is open restarts are refused.
func (it *Interpreter) Restart(s *session.Session) bool {
	if it.startup == "" {
		s.KillProcess()
		return false
	}
	return it.spawnShell(s)
}

// IsShell reports whether bid is the process started by Start or Restart.
func (it *Interpreter) IsShell(bid id.BridgeID) bool {
	return it.shell != "" && it.shell == bid
}

func (it *Interpreter) spawnShell(s *session.Session) bool {
	var b *process.Bridge
	err := it.breaker.Do(func() error {
		var err error
		b, err = process.Spawn(it.startup, it.spawnOptions())
		return err
	})

	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrProbePending):
		it.metrics.RecordRestart("refused")
		it.log.Warn("restart refused", zap.String("command", it.startup), zap.Error(err))
		s.WriteString(fmt.Sprintf("%s keeps failing to start, not retrying yet\n", it.startup))
		return false
	case err != nil:
		it.metrics.RecordRestart("failed")
		s.WriteString(fmt.Sprintf("%s: could not start process\n", it.startup))
		return false
	}

	it.metrics.RecordRestart("ok")
	it.adoptShell(s, b)
	return true
}

func (it *Interpreter) adoptShell(s *session.Session, b *process.Bridge) {
	s.Attach(b)
	it.shell = b.ID()
	it.log.Info("shell started", zap.String("bridge_id", b.ID().String()), zap.String("command", b.Command()))
}

func (it *Interpreter) spawnOptions() process.Options {
	opts := it.spawnOpts
	if cwd, err := it.wd.Getwd(); err == nil {
		opts.Dir = cwd
	}
	return opts
}
