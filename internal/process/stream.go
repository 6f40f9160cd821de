package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/wincmd/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/wincmd/internal/logging"
)

const readChunk = 4096

// stream is one child output stream: its read end, the pending bytes the
// reader has collected, and a channel closed when the reader stops.
type stream struct {
	name string
	src  io.ReadCloser

	mu      sync.Mutex
	pending []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newStream(name string, src io.ReadCloser) *stream {
	return &stream{
		name: name,
		src:  src,
		done: make(chan struct{}),
	}
}

// take drains and returns everything pending.
func (s *stream) take() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return nil
	}
	out := s.pending
	s.pending = nil
	return out
}

func (s *stream) append(p []byte) {
	s.mu.Lock()
	s.pending = append(s.pending, p...)
	s.mu.Unlock()
}

func (s *stream) finished() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// abandon closes the read end so a reader stuck behind a pipe held open by
// a grandchild returns.
func (s *stream) abandon() {
	s.closeOnce.Do(func() { _ = s.src.Close() })
}

// run copies src into pending until end of stream. Partial reads become
// visible immediately.
func (s *stream) run(log *logging.Logger, metrics *monitoring.Metrics) {
	defer close(s.done)
	defer s.abandon()
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordStreamError(s.name)
			log.Error("stream reader panicked",
				zap.String("stream", s.name),
				zap.Any("panic", r))
		}
	}()

	buf := make([]byte, readChunk)
	for {
		n, err := s.src.Read(buf)
		if n > 0 {
			s.append(buf[:n])
			metrics.RecordRead(s.name, n)
		}
		if err == nil {
			continue
		}
		if !isEndOfStream(err) {
			metrics.RecordStreamError(s.name)
			log.Warn("stream read failed",
				zap.String("stream", s.name),
				zap.Error(fmt.Errorf("read %s: %w", s.name, err)))
		}
		return
	}
}

func isEndOfStream(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) || isHangup(err)
}
