package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	require.NotNil(t, m)

	m.RecordSpawn()
	m.RecordRead("stdout", 12)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "wincmd_bridges_spawned_total")
	assert.Contains(t, names, "wincmd_stream_bytes_total")
	assert.Contains(t, names, "wincmd_uptime_seconds")

	// a second collector on a fresh registry must not collide
	assert.NotPanics(t, func() { NewMetrics(prometheus.NewRegistry()) })
}

func TestBridgeLifecycleMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordSpawn()
	m.RecordSpawn()
	m.RecordSpawnFailure()
	m.RecordExit(0)
	m.RecordExit(-1)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.BridgesSpawned))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SpawnFailures))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.BridgesActive))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BridgeExits.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BridgeExits.WithLabelValues("killed")))

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.BridgesSpawned)
	assert.Equal(t, int64(1), snap.SpawnFailures)
	assert.Equal(t, int64(0), snap.BridgesActive)
}

func TestSessionMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	timer := NewTimer(m)
	time.Sleep(time.Millisecond)
	timer.ObserveTick()

	m.RecordEvent("output_changed")
	m.RecordEvent("child_exited")
	m.RecordTrim(150)
	m.RecordDispatch("cd")
	m.RecordRead("stderr", 0)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Ticks))
	assert.Equal(t, float64(150), testutil.ToFloat64(m.TrimmedChars))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Events.WithLabelValues("child_exited")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.StreamBytes.WithLabelValues("stderr")))

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.Ticks)
	assert.Equal(t, int64(2), snap.Events)
	assert.Equal(t, int64(1), snap.Trims)
	assert.Equal(t, int64(1), snap.Dispatches)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordSpawn()
		m.RecordSpawnFailure()
		m.RecordExit(1)
		m.RecordRead("stdout", 10)
		m.RecordStreamError("stdout")
		m.RecordTick(time.Millisecond)
		m.RecordEvent("output_changed")
		m.RecordTrim(1)
		m.RecordDispatch("spawn")
		m.RecordRestart("ok")
		m.RecordBreakerTransition("restart", "closed", "open")
		NewTimer(m).ObserveTick()
	})
	assert.Equal(t, Snapshot{}, m.Snapshot())
}
