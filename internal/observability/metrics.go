package observability

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors fed by the dispatch loop.
type Metrics struct {
	registry *prometheus.Registry

	cyclesTotal        *prometheus.CounterVec
	dueVideos          prometheus.Gauge
	uploadsSentTotal   *prometheus.CounterVec
	uploadsFailedTotal *prometheus.CounterVec
	publishDuration    *prometheus.HistogramVec
	enabledServices    prometheus.Gauge
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		cyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "uploader",
				Name:      "cycles_total",
				Help:      "Total number of dispatch cycles by outcome.",
			},
			[]string{"outcome"},
		),
		dueVideos: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "uploader",
				Name:      "due_videos",
				Help:      "Number of due videos selected in the last cycle.",
			},
		),
		uploadsSentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "uploader",
				Name:      "uploads_sent_total",
				Help:      "Total number of successful video publishes by service.",
			},
			[]string{"service"},
		),
		uploadsFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "uploader",
				Name:      "uploads_failed_total",
				Help:      "Total number of failed video publishes by service and reason.",
			},
			[]string{"service", "reason"},
		),
		publishDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "uploader",
				Name:      "publish_duration_seconds",
				Help:      "Platform publish call duration in seconds grouped by service.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
			},
			[]string{"service"},
		),
		enabledServices: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "uploader",
				Name:      "enabled_services",
				Help:      "Number of services with enabling credentials present in the last cycle.",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.cyclesTotal,
		m.dueVideos,
		m.uploadsSentTotal,
		m.uploadsFailedTotal,
		m.publishDuration,
		m.enabledServices,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncCycle(outcome string) {
	if m == nil {
		return
	}
	outcomeLabel := strings.TrimSpace(strings.ToLower(outcome))
	if outcomeLabel == "" {
		outcomeLabel = "unknown"
	}
	m.cyclesTotal.WithLabelValues(outcomeLabel).Inc()
}

func (m *Metrics) SetDueVideos(count int) {
	if m == nil {
		return
	}
	m.dueVideos.Set(float64(count))
}

func (m *Metrics) SetEnabledServices(count int) {
	if m == nil {
		return
	}
	m.enabledServices.Set(float64(count))
}

func (m *Metrics) IncUploadSent(service string) {
	if m == nil {
		return
	}
	m.uploadsSentTotal.WithLabelValues(normalizeService(service)).Inc()
}

func (m *Metrics) IncUploadFailed(service string, reason string) {
	if m == nil {
		return
	}
	reasonLabel := strings.TrimSpace(strings.ToLower(reason))
	if reasonLabel == "" {
		reasonLabel = "unknown"
	}
	m.uploadsFailedTotal.WithLabelValues(normalizeService(service), reasonLabel).Inc()
}

func (m *Metrics) ObservePublishDuration(service string, duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.publishDuration.WithLabelValues(normalizeService(service)).Observe(seconds)
}

func normalizeService(service string) string {
	normalized := strings.ToLower(strings.TrimSpace(service))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
