package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	images      *prometheus.CounterVec
	runs        *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
}

// NewMetrics registers the collectors on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		images: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pixelpure",
			Name:      "images_processed_total",
			Help:      "Images handled by the pipeline, by site and outcome.",
		}, []string{"site", "status"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pixelpure",
			Name:      "runs_total",
			Help:      "Pipeline runs, by site and terminal state.",
		}, []string{"site", "state"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pixelpure",
			Name:      "run_duration_seconds",
			Help:      "Wall time of pipeline runs.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"site"}),
	}
	m.registry.MustRegister(m.images, m.runs, m.runDuration)
	return m
}

// ObserveItem counts one processed image
func (m *Metrics) ObserveItem(site StockSite, status ProcessingStatus) {
	if m == nil {
		return
	}
	m.images.WithLabelValues(string(site), string(status)).Inc()
}

// ObserveRun counts a finished run and its duration
func (m *Metrics) ObserveRun(result *RunResult) {
	if m == nil || result == nil {
		return
	}
	m.runs.WithLabelValues(string(result.Site), string(result.State)).Inc()
	m.runDuration.WithLabelValues(string(result.Site)).Observe(result.FinishedAt.Sub(result.StartedAt).Seconds())
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
