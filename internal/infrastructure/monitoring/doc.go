/*
Package monitoring provides Prometheus metrics for the shell bridge.

# Overview

Metrics are registered on a caller-supplied prometheus.Registerer so tests
and embedders can keep separate registries. cmd/wincmd registers on the
default registry and serves it with promhttp when a metrics address is set.

All recording methods are safe on a nil *Metrics, so components can take an
optional collector without guarding every call.

# Metrics

  - wincmd_bridges_spawned_total, wincmd_bridge_spawn_failures_total
  - wincmd_bridges_active, wincmd_bridge_exits_total{status}
  - wincmd_stream_bytes_total{stream}, wincmd_stream_errors_total{stream}
  - wincmd_ticks_total, wincmd_tick_duration_seconds
  - wincmd_events_total{type}, wincmd_trims_total, wincmd_trimmed_chars_total
  - wincmd_dispatch_total{kind}
  - wincmd_restarts_total{result}, wincmd_breaker_transitions_total{name,from,to}
  - wincmd_uptime_seconds

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	timer := monitoring.NewTimer(metrics)
	sess.Tick()
	timer.ObserveTick()
*/
package monitoring
