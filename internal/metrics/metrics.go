// Package metrics holds the Prometheus collectors exported by the gateway.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every collector the gateway records.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestSeconds  *prometheus.HistogramVec
	UpstreamCallsTotal  *prometheus.CounterVec
	UpstreamCallSeconds *prometheus.HistogramVec
	CacheLookupsTotal   *prometheus.CounterVec
	RecordingsActive    prometheus.Gauge
	UploadsTotal        *prometheus.CounterVec
	UploadBytesTotal    prometheus.Counter
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_http_requests_total",
				Help: "HTTP requests served, by route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_http_request_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		UpstreamCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_upstream_calls_total",
				Help: "Calls to the meetings backend, by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		UpstreamCallSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_upstream_call_seconds",
				Help:    "Latency of calls to the meetings backend",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),
		CacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_cache_lookups_total",
				Help: "Cache lookups, by kind and result",
			},
			[]string{"kind", "result"},
		),
		RecordingsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "gateway_recordings_active",
				Help: "Recording sessions currently held in memory",
			},
		),
		UploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_audio_uploads_total",
				Help: "Audio uploads to blob storage, by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		UploadBytesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "gateway_audio_upload_bytes_total",
				Help: "Bytes uploaded to blob storage",
			},
		),
	}
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestSeconds.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveUpstream records one backend call.
func (m *Metrics) ObserveUpstream(operation string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.UpstreamCallsTotal.WithLabelValues(operation, outcome).Inc()
	m.UpstreamCallSeconds.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveCache records a cache hit or miss.
func (m *Metrics) ObserveCache(kind string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(kind, result).Inc()
}

// ObserveUpload records a finished upload.
func (m *Metrics) ObserveUpload(source string, size int, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.UploadsTotal.WithLabelValues(source, outcome).Inc()
	if err == nil {
		m.UploadBytesTotal.Add(float64(size))
	}
}
