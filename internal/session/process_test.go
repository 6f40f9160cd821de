//go:build !windows

package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/wincmd/internal/process"
)

const waitFor = 5 * time.Second

func spawn(t *testing.T, line string) *process.Bridge {
	t.Helper()
	b, err := process.Spawn(line, process.Options{DrainGrace: 100 * time.Millisecond})
	require.NoError(t, err)
	return b
}

// tickUntilReleased ticks s until the attached process is released and
// returns every event seen on the way.
func tickUntilReleased(t *testing.T, s *Session) []Event {
	t.Helper()
	var events []Event
	require.Eventually(t, func() bool {
		s.Tick()
		events = append(events, s.DrainEvents()...)
		return !s.HasProcess()
	}, waitFor, 5*time.Millisecond)
	return events
}

func TestTickCollectsOutputAndReleasesOnce(t *testing.T) {
	s := New(Options{Encoding: "utf-8"})
	b := spawn(t, "echo hello; echo oops 1>&2")
	s.Attach(b)
	require.True(t, s.HasProcess())
	assert.Same(t, b, s.Process())

	events := tickUntilReleased(t, s)

	assert.Contains(t, s.Output(), "hello\n")
	assert.Contains(t, s.Output(), "oops\n")
	require.Equal(t, 1, countEvents(events, EventChildExited))

	var exit Event
	for _, e := range events {
		if e.Type == EventChildExited {
			exit = e
		}
	}
	assert.Equal(t, b.ID(), exit.Bridge)
	assert.Equal(t, 0, exit.ExitCode)

	// further ticks never repeat the exit
	for i := 0; i < 5; i++ {
		s.Tick()
	}
	assert.Zero(t, countEvents(s.DrainEvents(), EventChildExited))
}

func TestDeadProcessReleasedOnNextTick(t *testing.T) {
	s := New(Options{Encoding: "utf-8"})
	b := spawn(t, "printf done")
	s.Attach(b)
	require.Eventually(t, b.IsDead, waitFor, 5*time.Millisecond)

	s.Tick()

	events := s.DrainEvents()
	assert.Equal(t, 1, countEvents(events, EventChildExited))
	assert.False(t, s.HasProcess())
	assert.Nil(t, s.Process())
	assert.Equal(t, "done", s.Output())
}

func TestNoExitEventOnAttachTick(t *testing.T) {
	s := New(DefaultOptions())
	s.Attach(spawn(t, "sleep 5"))
	defer s.Detach()

	s.Tick()

	assert.True(t, s.HasProcess())
	assert.Zero(t, countEvents(s.DrainEvents(), EventChildExited))
}

func TestExitCodeReported(t *testing.T) {
	s := New(DefaultOptions())
	s.Attach(spawn(t, "exit 7"))

	events := tickUntilReleased(t, s)

	for _, e := range events {
		if e.Type == EventChildExited {
			assert.Equal(t, 7, e.ExitCode)
		}
	}
}

func TestFlushInputForwardsToProcess(t *testing.T) {
	s := New(Options{Encoding: "utf-8"})
	s.Attach(spawn(t, "read line; echo got:$line"))

	for _, r := range "abc" {
		s.PushInput(r)
	}
	assert.Equal(t, "abc", s.FlushInput())
	assert.Empty(t, s.Input())

	tickUntilReleased(t, s)
	assert.Contains(t, s.Output(), "got:abc")
}

func TestDetachEmitsExactlyOneExit(t *testing.T) {
	s := New(DefaultOptions())
	b := spawn(t, "sleep 30")
	s.Attach(b)

	s.Detach()
	s.Detach()

	assert.False(t, s.HasProcess())
	events := s.DrainEvents()
	require.Equal(t, 1, countEvents(events, EventChildExited))

	require.Eventually(t, b.IsDead, waitFor, 5*time.Millisecond)
}

func TestAttachNilDetaches(t *testing.T) {
	s := New(DefaultOptions())
	s.Attach(spawn(t, "sleep 30"))

	s.Attach(nil)

	assert.False(t, s.HasProcess())
	assert.Equal(t, 1, countEvents(s.DrainEvents(), EventChildExited))
}

func TestAttachReplacesAndKillsPrevious(t *testing.T) {
	s := New(DefaultOptions())
	first := spawn(t, "sleep 30")
	second := spawn(t, "sleep 30")
	defer second.Kill()

	s.Attach(first)
	s.Attach(second)

	assert.Same(t, second, s.Process())
	assert.Zero(t, countEvents(s.DrainEvents(), EventChildExited))
	require.Eventually(t, first.IsDead, waitFor, 5*time.Millisecond)
}

func TestKillProcessReleasedOnLaterTick(t *testing.T) {
	s := New(DefaultOptions())
	s.Attach(spawn(t, "sleep 30"))

	s.KillProcess()
	assert.True(t, s.HasProcess(), "kill does not detach")

	events := tickUntilReleased(t, s)
	assert.Equal(t, 1, countEvents(events, EventChildExited))
}

func TestCustomNormalizer(t *testing.T) {
	upper := func(b []byte) string {
		out := make([]byte, len(b))
		for i, c := range b {
			if c >= 'a' && c <= 'z' {
				c -= 'a' - 'A'
			}
			out[i] = c
		}
		return string(out)
	}

	s := New(Options{Normalizer: upper})
	s.Attach(spawn(t, "echo quiet"))
	tickUntilReleased(t, s)

	assert.Equal(t, "QUIET\n", s.Output())
}
