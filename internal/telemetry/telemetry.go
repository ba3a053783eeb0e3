package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus collectors for the dashboard backend.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	SnapshotsTotal   prometheus.Counter
	AnomalyEvents    *prometheus.CounterVec
	LiveSubscribers  prometheus.Gauge
	SynthesizeTiming prometheus.Histogram
}

// New creates the collectors on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "citypulse",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status code.",
		}, []string{"route", "code"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "citypulse",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		SnapshotsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "citypulse",
			Name:      "snapshots_computed_total",
			Help:      "Dashboard snapshots computed by the simulator.",
		}),
		AnomalyEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "citypulse",
			Name:      "anomaly_events_total",
			Help:      "Anomaly events emitted, by severity.",
		}, []string{"severity"}),
		LiveSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "citypulse",
			Name:      "live_subscribers",
			Help:      "Currently connected websocket subscribers.",
		}),
		SynthesizeTiming: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "citypulse",
			Name:      "series_synthesize_duration_seconds",
			Help:      "Time spent synthesizing the full metric catalog.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
	}
}

// Handler exposes the registry for the /metrics route.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Instrument wraps a handler with request counting and latency observation
// under a fixed route label.
func (m *Metrics) Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(recorder, r)
		m.RequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.code)).Inc()
		m.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}
