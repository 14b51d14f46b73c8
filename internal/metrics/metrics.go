// Package metrics exposes prometheus instrumentation for the radar
// pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all radar metrics. It implements radar.Metrics.
type Registry struct {
	registry *prometheus.Registry

	scanDuration       prometheus.Histogram
	scansTotal         prometheus.Counter
	activeScans        prometheus.Gauge
	recordsScanned     *prometheus.CounterVec
	recordsFiltered    prometheus.Counter
	opportunitiesFound prometheus.Counter
	sourceErrors       *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		scanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "flowradar_scan_duration_seconds",
				Help:    "Duration of one full scan cycle in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
		),
		scansTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "flowradar_scans_total",
				Help: "Total number of scans executed",
			},
		),
		activeScans: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "flowradar_active_scans",
				Help: "Number of scans currently in flight",
			},
		),
		recordsScanned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowradar_records_scanned_total",
				Help: "Raw records fetched, by source",
			},
			[]string{"source"},
		),
		recordsFiltered: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "flowradar_records_filtered_total",
				Help: "Records dropped at normalization or admission",
			},
		),
		opportunitiesFound: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "flowradar_opportunities_found_total",
				Help: "Opportunities surviving ranking",
			},
		),
		sourceErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowradar_source_errors_total",
				Help: "Upstream fetch failures, by source",
			},
			[]string{"source"},
		),
	}

	r.registry.MustRegister(
		r.scanDuration,
		r.scansTotal,
		r.activeScans,
		r.recordsScanned,
		r.recordsFiltered,
		r.opportunitiesFound,
		r.sourceErrors,
	)
	return r
}

// Handler returns the /metrics HTTP handler.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// radar.Metrics implementation.

func (r *Registry) ScanStarted() {
	r.activeScans.Inc()
}

func (r *Registry) ScanCompleted(duration time.Duration, opportunities int) {
	r.activeScans.Dec()
	r.scansTotal.Inc()
	r.scanDuration.Observe(duration.Seconds())
	r.opportunitiesFound.Add(float64(opportunities))
}

func (r *Registry) RecordsScanned(source string, count int) {
	r.recordsScanned.WithLabelValues(source).Add(float64(count))
}

func (r *Registry) RecordsFiltered(count int) {
	r.recordsFiltered.Add(float64(count))
}

func (r *Registry) SourceError(source string) {
	r.sourceErrors.WithLabelValues(source).Inc()
}
