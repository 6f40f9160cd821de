package console

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/wincmd/internal/interpreter"
	"github.com/GriffinCanCode/wincmd/internal/logging"
	"github.com/GriffinCanCode/wincmd/internal/session"
)

// DefaultFrameRate is the number of session ticks per second.
const DefaultFrameRate = 30

const (
	keyCtrlC     = 0x03
	keyCtrlD     = 0x04
	keyBackspace = 0x08
	keyEscape    = 0x1b
	keyDelete    = 0x7f

	clearScreen = "\x1b[2J\x1b[H"
)

// Options configures a Driver.
type Options struct {
	In  io.Reader
	Out io.Writer

	// Raw means In delivers single keystrokes and Out needs CRLF line ends.
	Raw bool

	FrameRate int
	// ExitWithChild ends the driver when the startup shell exits.
	ExitWithChild bool

	Behavior Behavior
	Logger   *logging.Logger
}

// Driver connects a terminal to a session.
type Driver struct {
	s   *session.Session
	it  *interpreter.Interpreter
	in  io.Reader
	out io.Writer
	raw bool

	frame         time.Duration
	exitWithChild bool
	behavior      Behavior
	log           *logging.Logger

	rendered string
	inputEOF bool
}

// New creates a Driver for s.
func New(s *session.Session, it *interpreter.Interpreter, opts Options) *Driver {
	rate := opts.FrameRate
	if rate <= 0 {
		rate = DefaultFrameRate
	}
	return &Driver{
		s:             s,
		it:            it,
		in:            opts.In,
		out:           opts.Out,
		raw:           opts.Raw,
		frame:         time.Second / time.Duration(rate),
		exitWithChild: opts.ExitWithChild,
		behavior:      opts.Behavior,
		log:           logging.OrNop(opts.Logger).Named("console"),
	}
}

// Run ticks the session until it stops running or ctx is done.
func (d *Driver) Run(ctx context.Context) error {
	keys := make(chan []byte)
	go d.readKeys(ctx, keys)

	ticker := time.NewTicker(d.frame)
	defer ticker.Stop()

	d.render()

	for d.s.Running() {
		select {
		case <-ctx.Done():
			d.s.Detach()
			return nil

		case p, ok := <-keys:
			if !ok {
				keys = nil
				d.inputEOF = true
				d.endOfInput()
				continue
			}
			d.HandleInput(p)

		case <-ticker.C:
			d.Step()
		}
	}

	d.s.Detach()
	d.render()
	return nil
}

// Step runs one frame: tick, react to events, redraw.
func (d *Driver) Step() {
	d.s.Tick()

	for _, e := range d.s.DrainEvents() {
		if e.Type != session.EventChildExited {
			continue
		}
		d.log.Debug("child exited",
			zap.String("bridge_id", e.Bridge.String()),
			zap.Int("exit_code", e.ExitCode))

		if d.exitWithChild && d.it.IsShell(e.Bridge) {
			d.s.RequestExit()
			continue
		}
		d.it.Prompt(d.s)
	}

	// nothing left to read and nothing running
	if d.inputEOF && !d.s.HasProcess() {
		d.s.RequestExit()
	}

	d.render()
}

// HandleInput applies a chunk of keyboard input.
func (d *Driver) HandleInput(p []byte) {
	for len(p) > 0 {
		c := p[0]
		switch c {
		case '\r', '\n':
			d.it.Interpret(d.s)
			// swallow the LF of a CRLF pair
			if c == '\r' && len(p) > 1 && p[1] == '\n' {
				p = p[1:]
			}
		case keyBackspace, keyDelete:
			d.s.PopInput()
		case keyCtrlC:
			d.s.KillProcess()
		case keyCtrlD:
			d.endOfInput()
		case keyEscape:
			n := escapeLen(p)
			if n == 1 {
				d.it.Restart(d.s)
			}
			// sequences (arrow keys, Alt combos) are dropped
			p = p[n:]
			continue
		default:
			if c < 0x20 {
				break
			}
			r, size := utf8.DecodeRune(p)
			if d.behavior.accept(d.s.Input(), r) {
				d.s.PushInput(r)
			}
			p = p[size:]
			continue
		}
		p = p[1:]
	}
}

// escapeLen returns the length of the escape sequence at the start of p.
// A lone ESC has length 1; CSI runs to its final byte, SS3 is three bytes,
// ESC plus any other byte is an Alt combination. An unterminated CSI
// consumes the rest of p.
func escapeLen(p []byte) int {
	if len(p) < 2 {
		return 1
	}
	switch p[1] {
	case '[':
		for i := 2; i < len(p); i++ {
			if p[i] >= 0x40 && p[i] <= 0x7e {
				return i + 1
			}
		}
		return len(p)
	case 'O':
		return min(3, len(p))
	case keyEscape:
		return 1
	}
	return 2
}

func (d *Driver) endOfInput() {
	if b := d.s.Process(); b != nil {
		b.CloseInput()
		return
	}
	d.s.RequestExit()
}

func (d *Driver) readKeys(ctx context.Context, keys chan<- []byte) {
	defer close(keys)

	buf := make([]byte, 256)
	for {
		n, err := d.in.Read(buf)
		if n > 0 {
			p := make([]byte, n)
			copy(p, buf[:n])
			select {
			case keys <- p:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				d.log.Warn("keyboard read failed", zap.Error(err))
			}
			return
		}
	}
}

// render writes what changed since the last frame. Appends are written as
// is, deletions at the end are rubbed out, anything else redraws.
func (d *Driver) render() {
	text := d.behavior.display(d.s.Output())
	if text == d.rendered {
		return
	}

	var out string
	switch {
	case strings.HasPrefix(text, d.rendered):
		out = d.lineEnds(text[len(d.rendered):])
	case strings.HasPrefix(d.rendered, text) && !strings.Contains(d.rendered[len(text):], "\n"):
		n := utf8.RuneCountInString(d.rendered[len(text):])
		out = strings.Repeat("\b \b", n)
	default:
		out = clearScreen + d.lineEnds(text)
	}

	if _, err := io.WriteString(d.out, out); err != nil {
		d.log.Warn("render failed", zap.Error(err))
	}
	d.rendered = text
}

func (d *Driver) lineEnds(s string) string {
	if !d.raw {
		return s
	}
	return strings.ReplaceAll(s, "\n", "\r\n")
}
