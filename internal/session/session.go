package session

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/wincmd/internal/encoding"
	"github.com/GriffinCanCode/wincmd/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/wincmd/internal/logging"
	"github.com/GriffinCanCode/wincmd/internal/process"
	"github.com/GriffinCanCode/wincmd/internal/shared/id"
)

const (
	DefaultMaxChars  = 50000
	DefaultTrimSlack = 10000
)

// Options configures a Session. A non-positive MaxChars takes the default;
// a negative TrimSlack is treated as zero.
type Options struct {
	MaxChars  int
	TrimSlack int
	// Encoding names the normalizer for child output (see encoding.ByName).
	Encoding string
	// Normalizer, when set, replaces Encoding.
	Normalizer encoding.Func

	Logger  *logging.Logger
	Metrics *monitoring.Metrics
}

// DefaultOptions returns the retention bounds used by the shell.
func DefaultOptions() Options {
	return Options{
		MaxChars:  DefaultMaxChars,
		TrimSlack: DefaultTrimSlack,
		Encoding:  encoding.NamePlatform,
	}
}

// Session is the buffer, input line and event queue of one shell session.
// It is not safe for concurrent use.
type Session struct {
	id      id.SessionID
	log     *logging.Logger
	metrics *monitoring.Metrics

	maxChars  int
	trimSlack int
	encoding  string
	normalize encoding.Func

	output  []rune
	input   []rune
	events  []Event
	running bool

	bridge    *process.Bridge
	stdoutDec *encoding.Decoder
	stderrDec *encoding.Decoder
}

// New creates a running Session with an empty buffer.
func New(opts Options) *Session {
	sid := id.NewSessionID()
	s := &Session{
		id:        sid,
		log:       logging.OrNop(opts.Logger).Named("session").With(zap.String("session_id", sid.String())),
		metrics:   opts.Metrics,
		maxChars:  opts.MaxChars,
		trimSlack: opts.TrimSlack,
		encoding:  opts.Encoding,
		normalize: opts.Normalizer,
		running:   true,
	}

	if s.maxChars <= 0 {
		s.maxChars = DefaultMaxChars
	}
	if s.trimSlack < 0 {
		s.trimSlack = 0
	}
	if s.normalize == nil && !encoding.Valid(s.encoding) {
		s.log.Warn("unknown encoding, using platform default", zap.String("encoding", s.encoding))
		s.encoding = encoding.NamePlatform
	}

	return s
}

// ID returns the session identifier.
func (s *Session) ID() id.SessionID {
	return s.id
}

// Output returns the visible text.
func (s *Session) Output() string {
	return string(s.output)
}

// Len returns the visible text length in characters.
func (s *Session) Len() int {
	return len(s.output)
}

// Input returns the line being typed.
func (s *Session) Input() string {
	return string(s.input)
}

// PushInput appends r to the input line and mirrors it into the output.
func (s *Session) PushInput(r rune) {
	s.input = append(s.input, r)
	s.output = append(s.output, r)
	s.emit(Event{Type: EventOutputChanged})
}

// PopInput removes the last typed character from the input line and from
// the end of the output. It does nothing when the input line is empty.
func (s *Session) PopInput() {
	if len(s.input) == 0 {
		return
	}
	s.input = s.input[:len(s.input)-1]
	if len(s.output) > 0 {
		s.output = s.output[:len(s.output)-1]
	}
	s.emit(Event{Type: EventOutputChanged})
}

// FlushInput clears the input line and returns it. The line is also written
// to the attached process, if any.
func (s *Session) FlushInput() string {
	line := string(s.input)
	s.input = s.input[:0]

	if s.bridge != nil {
		s.bridge.WriteInput([]byte(line))
	}
	return line
}

// WriteString appends text to the output.
func (s *Session) WriteString(text string) {
	if text == "" {
		return
	}
	s.output = append(s.output, []rune(text)...)
	s.emit(Event{Type: EventOutputChanged})
}

// Write appends UTF-8 text to the output; invalid bytes become U+FFFD.
func (s *Session) Write(p []byte) (int, error) {
	s.WriteString(encoding.UTF8(p))
	return len(p), nil
}

// Clear empties the output. The input line is kept.
func (s *Session) Clear() {
	s.output = s.output[:0]
	s.emit(Event{Type: EventOutputChanged})
}

// DrainEvents returns the queued events in order and empties the queue.
func (s *Session) DrainEvents() []Event {
	events := s.events
	s.events = nil
	return events
}

// Running reports whether the consumer should keep driving the session.
func (s *Session) Running() bool {
	return s.running
}

// RequestExit marks the session finished.
func (s *Session) RequestExit() {
	s.running = false
}

// HasProcess reports whether a process is attached.
func (s *Session) HasProcess() bool {
	return s.bridge != nil
}

// Process returns the attached bridge or nil.
func (s *Session) Process() *process.Bridge {
	return s.bridge
}

// Attach makes b the active process. A previously attached bridge is killed
// and dropped without an exit event. Attach(nil) is Detach.
func (s *Session) Attach(b *process.Bridge) {
	if b == nil {
		s.Detach()
		return
	}
	if s.bridge == b {
		return
	}
	if s.bridge != nil {
		s.log.Info("replacing attached process", zap.String("old", s.bridge.ID().String()))
		s.bridge.Kill()
	}

	s.bridge = b
	s.stdoutDec = s.newDecoder()
	s.stderrDec = s.newDecoder()
	s.log.Debug("process attached", zap.String("bridge_id", b.ID().String()))
}

// Detach kills and releases the attached process, queueing one
// EventChildExited. It does nothing when no process is attached.
func (s *Session) Detach() {
	if s.bridge == nil {
		return
	}
	s.bridge.Kill()
	s.release()
}

// KillProcess terminates the attached process but keeps it attached; the
// next ticks collect its remaining output and release it.
func (s *Session) KillProcess() {
	if s.bridge != nil {
		s.bridge.Kill()
	}
}

// Tick pulls pending child output into the buffer, releases the child once
// it is dead and trims the buffer.
func (s *Session) Tick() {
	timer := monitoring.NewTimer(s.metrics)
	defer timer.ObserveTick()

	if s.bridge != nil {
		s.pump()
		if s.bridge.IsDead() {
			// output that arrived between the drain and the death check
			s.pump()
			s.WriteString(s.stdoutDec.Flush())
			s.WriteString(s.stderrDec.Flush())
			s.release()
		}
	}

	s.trim()
}

func (s *Session) pump() {
	if out := s.bridge.TakeStdout(); len(out) > 0 {
		s.WriteString(s.stdoutDec.Decode(out))
	}
	if out := s.bridge.TakeStderr(); len(out) > 0 {
		s.WriteString(s.stderrDec.Decode(out))
	}
}

func (s *Session) release() {
	b := s.bridge
	s.bridge = nil
	s.stdoutDec = nil
	s.stderrDec = nil

	code := b.ExitCode()
	s.log.Info("process released",
		zap.String("bridge_id", b.ID().String()),
		zap.Int("exit_code", code))
	s.emit(Event{Type: EventChildExited, Bridge: b.ID(), ExitCode: code})
}

// trim drops the oldest characters once the buffer is more than trimSlack
// over maxChars, leaving exactly maxChars.
func (s *Session) trim() {
	excess := len(s.output) - s.maxChars
	if excess <= s.trimSlack {
		return
	}
	n := copy(s.output, s.output[excess:])
	s.output = s.output[:n]

	s.metrics.RecordTrim(excess)
	s.emit(Event{Type: EventOutputChanged})
}

func (s *Session) newDecoder() *encoding.Decoder {
	if s.normalize != nil {
		return encoding.NewFuncDecoder(s.normalize)
	}
	dec, err := encoding.NewDecoder(s.encoding)
	if err != nil {
		dec, _ = encoding.NewDecoder(encoding.NamePlatform)
	}
	return dec
}

func (s *Session) emit(e Event) {
	s.events = append(s.events, e)
	s.metrics.RecordEvent(e.Type.String())
}
