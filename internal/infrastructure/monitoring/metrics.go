package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wincmd"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Bridge metrics
	BridgesSpawned prometheus.Counter
	SpawnFailures  prometheus.Counter
	BridgesActive  prometheus.Gauge
	BridgeExits    *prometheus.CounterVec

	// Stream metrics
	StreamBytes  *prometheus.CounterVec
	StreamErrors *prometheus.CounterVec

	// Session metrics
	Ticks        prometheus.Counter
	TickDuration prometheus.Histogram
	Events       *prometheus.CounterVec
	Trims        prometheus.Counter
	TrimmedChars prometheus.Counter

	// Interpreter metrics
	Dispatches         *prometheus.CounterVec
	Restarts           *prometheus.CounterVec
	BreakerTransitions *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	// Snapshot for the console status log - track current values
	snapshot Snapshot

	mu sync.RWMutex
}

// Snapshot holds current metric values without going through a registry.
type Snapshot struct {
	BridgesSpawned int64
	SpawnFailures  int64
	BridgesActive  int64
	Ticks          int64
	Events         int64
	Trims          int64
	Dispatches     int64
}

// NewMetrics creates a new metrics collector registered on reg. A nil reg
// creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{startTime: time.Now()}

	// Bridge metrics
	m.BridgesSpawned = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bridges_spawned_total",
		Help:      "Total number of child processes started",
	})
	m.SpawnFailures = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bridge_spawn_failures_total",
		Help:      "Total number of child processes that could not be started",
	})
	m.BridgesActive = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "bridges_active",
		Help:      "Number of child processes not yet observed dead",
	})
	m.BridgeExits = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bridge_exits_total",
		Help:      "Total number of child process exits by status",
	}, []string{"status"})

	// Stream metrics
	m.StreamBytes = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stream_bytes_total",
		Help:      "Bytes read from child output streams",
	}, []string{"stream"})
	m.StreamErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stream_errors_total",
		Help:      "Read errors and recovered reader panics per stream",
	}, []string{"stream"})

	// Session metrics
	m.Ticks = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ticks_total",
		Help:      "Total number of session ticks",
	})
	m.TickDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tick_duration_seconds",
		Help:      "Session tick duration in seconds",
		Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .033, .1},
	})
	m.Events = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Session events enqueued by type",
	}, []string{"type"})
	m.Trims = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "trims_total",
		Help:      "Times the output buffer was trimmed",
	})
	m.TrimmedChars = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "trimmed_chars_total",
		Help:      "Characters dropped from the front of the output buffer",
	})

	// Interpreter metrics
	m.Dispatches = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_total",
		Help:      "Interpreted command lines by kind",
	}, []string{"kind"})
	m.Restarts = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "restarts_total",
		Help:      "Shell restart attempts by result",
	}, []string{"result"})
	m.BreakerTransitions = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "breaker_transitions_total",
		Help:      "Circuit breaker state changes",
	}, []string{"name", "from", "to"})

	// System metrics
	m.Uptime = factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "uptime_seconds",
		Help:      "Process uptime in seconds",
	}, func() float64 {
		return time.Since(m.startTime).Seconds()
	})

	return m
}

// RecordSpawn records a started child process
func (m *Metrics) RecordSpawn() {
	if m == nil {
		return
	}
	m.BridgesSpawned.Inc()
	m.BridgesActive.Inc()

	m.mu.Lock()
	m.snapshot.BridgesSpawned++
	m.snapshot.BridgesActive++
	m.mu.Unlock()
}

// RecordSpawnFailure records a child process that could not start
func (m *Metrics) RecordSpawnFailure() {
	if m == nil {
		return
	}
	m.SpawnFailures.Inc()

	m.mu.Lock()
	m.snapshot.SpawnFailures++
	m.mu.Unlock()
}

// RecordExit records a child process observed dead
func (m *Metrics) RecordExit(code int) {
	if m == nil {
		return
	}
	status := "ok"
	switch {
	case code < 0:
		status = "killed"
	case code > 0:
		status = "error"
	}
	m.BridgeExits.WithLabelValues(status).Inc()
	m.BridgesActive.Dec()

	m.mu.Lock()
	m.snapshot.BridgesActive--
	m.mu.Unlock()
}

// RecordRead records bytes read from a child stream
func (m *Metrics) RecordRead(stream string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.StreamBytes.WithLabelValues(stream).Add(float64(n))
}

// RecordStreamError records a read error or recovered reader panic
func (m *Metrics) RecordStreamError(stream string) {
	if m == nil {
		return
	}
	m.StreamErrors.WithLabelValues(stream).Inc()
}

// RecordTick records one session tick
func (m *Metrics) RecordTick(duration time.Duration) {
	if m == nil {
		return
	}
	m.Ticks.Inc()
	m.TickDuration.Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.Ticks++
	m.mu.Unlock()
}

// RecordEvent records an enqueued session event
func (m *Metrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(eventType).Inc()

	m.mu.Lock()
	m.snapshot.Events++
	m.mu.Unlock()
}

// RecordTrim records a trim of the output buffer
func (m *Metrics) RecordTrim(dropped int) {
	if m == nil {
		return
	}
	m.Trims.Inc()
	m.TrimmedChars.Add(float64(dropped))

	m.mu.Lock()
	m.snapshot.Trims++
	m.mu.Unlock()
}

// RecordDispatch records an interpreted command line
func (m *Metrics) RecordDispatch(kind string) {
	if m == nil {
		return
	}
	m.Dispatches.WithLabelValues(kind).Inc()

	m.mu.Lock()
	m.snapshot.Dispatches++
	m.mu.Unlock()
}

// RecordRestart records a restart attempt
func (m *Metrics) RecordRestart(result string) {
	if m == nil {
		return
	}
	m.Restarts.WithLabelValues(result).Inc()
}

// RecordBreakerTransition records a circuit breaker state change
func (m *Metrics) RecordBreakerTransition(name, from, to string) {
	if m == nil {
		return
	}
	m.BreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// Snapshot returns a copy of the tracked values
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// Timer measures a tick
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer creates a new timer
func NewTimer(metrics *Metrics) *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: metrics,
	}
}

// ObserveTick stops the timer and records the tick duration
func (t *Timer) ObserveTick() {
	t.metrics.RecordTick(time.Since(t.start))
}
