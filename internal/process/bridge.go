package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/wincmd/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/wincmd/internal/logging"
	"github.com/GriffinCanCode/wincmd/internal/shared/id"
)

// DefaultDrainGrace is how long a Bridge whose process has exited waits for
// its readers to reach end of stream before it is reported dead anyway.
const DefaultDrainGrace = 250 * time.Millisecond

const (
	streamStdout = "stdout"
	streamStderr = "stderr"
)

// Options configures a spawn.
type Options struct {
	// Dir is the child's working directory. Empty inherits ours.
	Dir string
	// Env is appended to the inherited environment.
	Env []string

	// Interpreter and InterpreterFlag replace the platform command
	// interpreter for Spawn. Empty keeps the default.
	Interpreter     string
	InterpreterFlag string

	PTY        bool
	DrainGrace time.Duration

	Logger  *logging.Logger
	Metrics *monitoring.Metrics
}

// Bridge is one running child process and its pending output.
//
// TakeStdout, TakeStderr, IsDead and Kill never block. WriteInput blocks
// only as long as the OS pipe write does.
type Bridge struct {
	id      id.BridgeID
	command string
	cmd     *exec.Cmd
	pty     bool
	grace   time.Duration
	log     *logging.Logger
	metrics *monitoring.Metrics

	inMu  sync.Mutex
	stdin io.WriteCloser // nil once closed

	stdout *stream
	stderr *stream

	done        chan struct{}
	exitedAt    time.Time // written before done is closed
	exitCode    atomic.Int32
	releaseOnce sync.Once
}

// Spawn runs line through the command interpreter with all three standard
// streams piped.
func Spawn(line string, opts Options) (*Bridge, error) {
	if strings.TrimSpace(line) == "" {
		return nil, ErrEmptyCommand
	}

	name, flag := defaultInterpreter()
	if opts.Interpreter != "" {
		name = opts.Interpreter
	}
	if opts.InterpreterFlag != "" {
		flag = opts.InterpreterFlag
	}

	cmd := exec.Command(name, flag, line)
	configure(cmd, rawCommandLine(name, flag, line), opts.PTY)
	return start(cmd, line, opts)
}

// SpawnArgs runs argv directly, without a command interpreter.
func SpawnArgs(argv []string, opts Options) (*Bridge, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, ErrEmptyCommand
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	configure(cmd, "", opts.PTY)
	return start(cmd, strings.Join(argv, " "), opts)
}

func start(cmd *exec.Cmd, command string, opts Options) (*Bridge, error) {
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	bid := id.NewBridgeID()
	log := logging.OrNop(opts.Logger).Named("process").With(zap.String("bridge_id", bid.String()))

	var (
		stdin          io.WriteCloser
		stdout, stderr io.ReadCloser
		err            error
		usePTY         = opts.PTY
	)
	if usePTY {
		stdin, stdout, stderr, err = startWithPTY(cmd)
		if errors.Is(err, ErrPTYUnsupported) {
			log.Warn("pty unavailable, falling back to pipes")
			usePTY = false
			stdin, stdout, stderr, err = startWithPipes(cmd)
		}
	} else {
		stdin, stdout, stderr, err = startWithPipes(cmd)
	}
	if err != nil {
		opts.Metrics.RecordSpawnFailure()
		log.Warn("spawn failed", zap.String("command", command), zap.Error(err))
		return nil, fmt.Errorf("spawn %q: %w", command, err)
	}

	grace := opts.DrainGrace
	if grace <= 0 {
		grace = DefaultDrainGrace
	}

	b := &Bridge{
		id:      bid,
		command: command,
		cmd:     cmd,
		pty:     usePTY,
		grace:   grace,
		log:     log,
		metrics: opts.Metrics,
		stdin:   stdin,
		stdout:  newStream(streamStdout, stdout),
		stderr:  newStream(streamStderr, stderr),
		done:    make(chan struct{}),
	}
	b.exitCode.Store(-1)

	opts.Metrics.RecordSpawn()
	log.Info("process started",
		zap.String("command", command),
		zap.Int("pid", cmd.Process.Pid),
		zap.Bool("pty", usePTY))

	go b.stdout.run(log, opts.Metrics)
	go b.stderr.run(log, opts.Metrics)
	go b.wait()

	return b, nil
}

// startWithPipes creates the three pipes by hand so waiting on the process
// never closes the read ends under the readers.
func startWithPipes(cmd *exec.Cmd) (io.WriteCloser, io.ReadCloser, io.ReadCloser, error) {
	inR, inW, err := os.Pipe()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("stdin pipe: %w", err)
	}
	outR, outW, err := os.Pipe()
	if err != nil {
		closeAll(inR, inW)
		return nil, nil, nil, fmt.Errorf("stdout pipe: %w", err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		closeAll(inR, inW, outR, outW)
		return nil, nil, nil, fmt.Errorf("stderr pipe: %w", err)
	}

	cmd.Stdin = inR
	cmd.Stdout = outW
	cmd.Stderr = errW

	if err := cmd.Start(); err != nil {
		closeAll(inR, inW, outR, outW, errR, errW)
		return nil, nil, nil, err
	}

	// Close child-side ends in the parent.
	closeAll(inR, outW, errW)

	return inW, outR, errR, nil
}

func startWithPTY(cmd *exec.Cmd) (io.WriteCloser, io.ReadCloser, io.ReadCloser, error) {
	errR, errW, err := os.Pipe()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("stderr pipe: %w", err)
	}
	cmd.Stderr = errW

	master, err := startPTY(cmd)
	_ = errW.Close()
	if err != nil {
		_ = errR.Close()
		cmd.Stderr = nil
		return nil, nil, nil, err
	}

	return ptyInput{master}, master, errR, nil
}

// ptyInput writes to the PTY master. Closing it sends EOF through the line
// discipline rather than closing the master, which the stdout reader owns.
type ptyInput struct {
	f *os.File
}

func (p ptyInput) Write(b []byte) (int, error) { return p.f.Write(b) }

func (p ptyInput) Close() error {
	_, err := p.f.Write([]byte{0x04})
	return err
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

func (b *Bridge) wait() {
	err := b.cmd.Wait()

	code := -1
	if b.cmd.ProcessState != nil {
		code = b.cmd.ProcessState.ExitCode()
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		b.log.Warn("wait failed", zap.Error(err))
	}

	b.exitCode.Store(int32(code))
	b.metrics.RecordExit(code)
	b.log.Info("process exited", zap.Int("exit_code", code))

	b.exitedAt = time.Now()
	close(b.done)
}

// ID returns the bridge identifier.
func (b *Bridge) ID() id.BridgeID {
	return b.id
}

// PID returns the OS process ID.
func (b *Bridge) PID() int {
	return b.cmd.Process.Pid
}

// Command returns the line or argv the bridge was started with.
func (b *Bridge) Command() string {
	return b.command
}

// PTY reports whether stdin and stdout are on a pseudo-terminal.
func (b *Bridge) PTY() bool {
	return b.pty
}

// WriteInput writes p followed by a newline to the child's stdin. It is a
// no-op once stdin is closed; a failed write closes it.
func (b *Bridge) WriteInput(p []byte) {
	b.inMu.Lock()
	defer b.inMu.Unlock()

	if b.stdin == nil {
		return
	}

	line := make([]byte, 0, len(p)+1)
	line = append(line, p...)
	line = append(line, '\n')

	if _, err := b.stdin.Write(line); err != nil {
		b.log.Warn("write to stdin failed", zap.Error(err))
		b.closeInputLocked()
	}
}

// CloseInput delivers end of input to the child.
func (b *Bridge) CloseInput() {
	b.inMu.Lock()
	defer b.inMu.Unlock()

	if b.stdin != nil {
		b.closeInputLocked()
	}
}

func (b *Bridge) closeInputLocked() {
	if err := b.stdin.Close(); err != nil {
		b.log.Debug("close stdin", zap.Error(err))
	}
	b.stdin = nil
}

// InputOpen reports whether WriteInput still reaches the child.
func (b *Bridge) InputOpen() bool {
	b.inMu.Lock()
	defer b.inMu.Unlock()
	return b.stdin != nil
}

// TakeStdout drains everything read from stdout so far.
func (b *Bridge) TakeStdout() []byte {
	return b.stdout.take()
}

// TakeStderr drains everything read from stderr so far.
func (b *Bridge) TakeStderr() []byte {
	return b.stderr.take()
}

// IsDead reports whether the process has exited and its output is final:
// both readers reached end of stream, or the drain grace since exit passed.
func (b *Bridge) IsDead() bool {
	select {
	case <-b.done:
	default:
		return false
	}

	if b.stdout.finished() && b.stderr.finished() {
		b.release()
		return true
	}
	if time.Since(b.exitedAt) < b.grace {
		return false
	}

	b.log.Debug("drain grace elapsed with streams open")
	b.stdout.abandon()
	b.stderr.abandon()
	b.release()
	return true
}

// release closes stdin once the process is gone. A PTY master is closed by
// its stdout reader.
func (b *Bridge) release() {
	b.releaseOnce.Do(func() {
		b.inMu.Lock()
		defer b.inMu.Unlock()

		if b.stdin != nil && !b.pty {
			_ = b.stdin.Close()
		}
		b.stdin = nil
	})
}

// Kill terminates the process without waiting for it.
func (b *Bridge) Kill() {
	select {
	case <-b.done:
		return
	default:
	}

	if err := killProcess(b.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
		b.log.Warn("kill failed", zap.Error(err))
		return
	}
	b.log.Debug("process killed")
}

// ExitCode returns the exit status once the process has exited, -1 before
// that or when it was terminated by a signal.
func (b *Bridge) ExitCode() int {
	return int(b.exitCode.Load())
}
