/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package telemetry exposes the daemon's Prometheus metrics and optional
// OpenTelemetry tracing.
package telemetry

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the daemon's Prometheus collectors.
type Metrics struct {
	Ticks            prometheus.Counter
	TickDuration     prometheus.Histogram
	TicksSkipped     prometheus.Counter
	Commands         *prometheus.CounterVec
	ScheduleTriggers prometheus.Counter
	SessionActive    prometheus.Gauge
	RelayDegraded    prometheus.Gauge
}

// NewMetrics registers the daemon collectors on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		Ticks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "breakbell_ticks_total",
			Help: "Completed daemon poll loop ticks.",
		}),
		TickDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "breakbell_tick_duration_seconds",
			Help:    "Wall time spent per daemon tick.",
			Buckets: prometheus.DefBuckets,
		}),
		TicksSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "breakbell_ticks_skipped_total",
			Help: "Ticks abandoned after persistence retries were exhausted.",
		}),
		Commands: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "breakbell_commands_total",
			Help: "Processed commands by type and result.",
		}, []string{"type", "result"}),
		ScheduleTriggers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "breakbell_schedule_triggers_total",
			Help: "Play commands synthesized from schedules.",
		}),
		SessionActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "breakbell_session_active",
			Help: "1 while a playback session is running.",
		}),
		RelayDegraded: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "breakbell_relay_degraded",
			Help: "1 while relay hardware writes are failing.",
		}),
	}
}

// Router serves /metrics and /healthz for local scraping.
func Router() http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}
