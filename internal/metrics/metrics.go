// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package metrics exposes Prometheus metrics for persistence, the title
// uniqueness check, editor sessions and HTTP requests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"scapes/internal/scape"
)

const namespace = "scapes"

// Metrics owns a private registry and every collector registered on it.
type Metrics struct {
	registry *prometheus.Registry

	persistTotal    *prometheus.CounterVec
	persistDuration *prometheus.HistogramVec

	nameChecks *prometheus.CounterVec

	sessions prometheus.Gauge

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them, plus the Go runtime and
// process collectors, on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		persistTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persist_operations_total",
				Help:      "Save, publish and delete operations by outcome",
			},
			[]string{"op", "status"},
		),
		persistDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "persist_duration_seconds",
				Help:      "Duration of persistence operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),

		nameChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "name_checks_total",
				Help:      "Title uniqueness lookups by result",
			},
			[]string{"result"},
		),

		sessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "editor_sessions",
				Help:      "Editing sessions held in memory",
			},
		),

		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	registry.MustRegister(
		m.persistTotal,
		m.persistDuration,
		m.nameChecks,
		m.sessions,
		m.httpRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObservePersist implements publisher.Recorder.
func (m *Metrics) ObservePersist(op string, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.persistTotal.WithLabelValues(op, status).Inc()
	m.persistDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// NameCheckObserver returns a namecheck.Observer feeding the name check
// counter.
func (m *Metrics) NameCheckObserver() *NameCheckObserver {
	return &NameCheckObserver{counter: m.nameChecks}
}

// Sessions returns the gauge tracking in-memory editing sessions.
func (m *Metrics) Sessions() prometheus.Gauge {
	return m.sessions
}

// Middleware records request counts and latency by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// NameCheckObserver counts uniqueness lookups.
type NameCheckObserver struct {
	counter *prometheus.CounterVec
}

func (o *NameCheckObserver) CheckResolved(s scape.NameState) {
	o.counter.WithLabelValues(string(s)).Inc()
}

func (o *NameCheckObserver) CheckFailed(error) {
	o.counter.WithLabelValues("failed").Inc()
}

func (o *NameCheckObserver) CheckDiscarded() {
	o.counter.WithLabelValues("discarded").Inc()
}
