//go:build !windows

package process

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/wincmd/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/wincmd/internal/shared/id"
)

const waitFor = 5 * time.Second

// collector drains a bridge the way a session tick does.
type collector struct {
	mu     sync.Mutex
	stdout strings.Builder
	stderr strings.Builder
}

func (c *collector) drain(b *Bridge) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stdout.Write(b.TakeStdout())
	c.stderr.Write(b.TakeStderr())
}

func (c *collector) out() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stdout.String()
}

func (c *collector) err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stderr.String()
}

func untilDead(t *testing.T, b *Bridge, c *collector) {
	t.Helper()
	require.Eventually(t, func() bool {
		c.drain(b)
		return b.IsDead()
	}, waitFor, 5*time.Millisecond)
	c.drain(b)
}

func TestSpawnCapturesStdout(t *testing.T) {
	b, err := Spawn("echo hello", Options{})
	require.NoError(t, err)

	var c collector
	untilDead(t, b, &c)

	assert.Equal(t, "hello\n", c.out())
	assert.Empty(t, c.err())
	assert.Equal(t, 0, b.ExitCode())
}

func TestSpawnSeparatesStderr(t *testing.T) {
	b, err := Spawn("echo out; echo oops 1>&2; exit 3", Options{})
	require.NoError(t, err)

	var c collector
	untilDead(t, b, &c)

	assert.Equal(t, "out\n", c.out())
	assert.Equal(t, "oops\n", c.err())
	assert.Equal(t, 3, b.ExitCode())
}

func TestBridgeIdentity(t *testing.T) {
	b, err := Spawn("true", Options{})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(b.ID().String(), id.BridgePrefix+"_"))
	assert.Greater(t, b.PID(), 0)
	assert.Equal(t, "true", b.Command())

	var c collector
	untilDead(t, b, &c)
}

func TestTakeNeverBlocksAndEmptiesBuffer(t *testing.T) {
	b, err := Spawn("sleep 5", Options{})
	require.NoError(t, err)
	defer b.Kill()

	start := time.Now()
	assert.Nil(t, b.TakeStdout())
	assert.Nil(t, b.TakeStderr())
	assert.False(t, b.IsDead())
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, -1, b.ExitCode())
}

func TestWriteInputReachesChild(t *testing.T) {
	b, err := Spawn("cat", Options{})
	require.NoError(t, err)

	var c collector
	b.WriteInput([]byte("ping"))

	require.Eventually(t, func() bool {
		c.drain(b)
		return c.out() == "ping\n"
	}, waitFor, 5*time.Millisecond)

	assert.True(t, b.InputOpen())
	b.CloseInput()
	assert.False(t, b.InputOpen())

	// writes after close are ignored
	b.WriteInput([]byte("ignored"))

	untilDead(t, b, &c)
	assert.Equal(t, "ping\n", c.out())
}

func TestWriteInputAfterExitIsHarmless(t *testing.T) {
	b, err := Spawn("exit 0", Options{})
	require.NoError(t, err)

	var c collector
	untilDead(t, b, &c)

	assert.NotPanics(t, func() {
		b.WriteInput([]byte("late"))
		b.CloseInput()
	})
}

func TestKillEndsProcess(t *testing.T) {
	b, err := Spawn("sleep 30", Options{})
	require.NoError(t, err)

	b.Kill()

	var c collector
	untilDead(t, b, &c)
	assert.Equal(t, -1, b.ExitCode())

	// killing a dead bridge is a no-op
	assert.NotPanics(t, b.Kill)
}

func TestDrainGraceWhenGrandchildHoldsPipe(t *testing.T) {
	b, err := Spawn("sleep 10 & echo started", Options{DrainGrace: 50 * time.Millisecond})
	require.NoError(t, err)

	var c collector
	start := time.Now()
	untilDead(t, b, &c)

	assert.Equal(t, "started\n", c.out())
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSpawnUsesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker.txt"), nil, 0o600))

	b, err := Spawn("ls", Options{Dir: dir})
	require.NoError(t, err)

	var c collector
	untilDead(t, b, &c)
	assert.Equal(t, "marker.txt\n", c.out())
}

func TestSpawnEnv(t *testing.T) {
	b, err := Spawn(`printf %s "$WINCMD_TEST_VALUE"`, Options{Env: []string{"WINCMD_TEST_VALUE=42"}})
	require.NoError(t, err)

	var c collector
	untilDead(t, b, &c)
	assert.Equal(t, "42", c.out())
}

func TestSpawnArgsSkipsInterpreter(t *testing.T) {
	b, err := SpawnArgs([]string{"echo", "a  b", "$HOME"}, Options{})
	require.NoError(t, err)

	var c collector
	untilDead(t, b, &c)
	assert.Equal(t, "a  b $HOME\n", c.out())
}

func TestSpawnInterpreterOverride(t *testing.T) {
	b, err := Spawn("no newline", Options{Interpreter: "/bin/echo", InterpreterFlag: "-n"})
	require.NoError(t, err)

	var c collector
	untilDead(t, b, &c)
	assert.Equal(t, "no newline", c.out())
}

func TestSpawnFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	_, err := Spawn("   ", Options{})
	assert.ErrorIs(t, err, ErrEmptyCommand)

	_, err = SpawnArgs(nil, Options{})
	assert.ErrorIs(t, err, ErrEmptyCommand)

	_, err = SpawnArgs([]string{"wincmd-definitely-not-a-binary"}, Options{Metrics: metrics})
	assert.Error(t, err)

	_, err = Spawn("echo hi", Options{Interpreter: "/nonexistent/shell", Metrics: metrics})
	assert.Error(t, err)

	assert.Equal(t, int64(2), metrics.Snapshot().SpawnFailures)
}

func TestMetricsTrackLifecycle(t *testing.T) {
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())

	b, err := Spawn("echo counted", Options{Metrics: metrics})
	require.NoError(t, err)

	var c collector
	untilDead(t, b, &c)

	snap := metrics.Snapshot()
	assert.Equal(t, int64(1), snap.BridgesSpawned)
	assert.Equal(t, int64(0), snap.BridgesActive)
}

func TestPTYMode(t *testing.T) {
	b, err := Spawn("test -t 0 && echo tty; echo err 1>&2", Options{PTY: true})
	require.NoError(t, err)
	assert.True(t, b.PTY())

	var c collector
	untilDead(t, b, &c)

	assert.Contains(t, c.out(), "tty")
	assert.Equal(t, "err\n", c.err())
}
