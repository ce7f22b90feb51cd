// Package metrics exposes Prometheus instrumentation for sync runs and the scheduler.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
)

const namespace = "asset_sync"

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	syncRuns       *prometheus.CounterVec
	syncDuration   *prometheus.HistogramVec
	records        *prometheus.CounterVec
	schedulerTicks *prometheus.CounterVec
	dueConfigs     prometheus.Gauge
}

// New creates the collectors and registers them, with the Go and process
// collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Sync runs by trigger source and final status.",
		}, []string{"source", "status"}),
		syncDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Wall time of sync runs.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"source"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_records_total",
			Help:      "Records processed by outcome.",
		}, []string{"outcome"}),
		schedulerTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_ticks_total",
			Help:      "Scheduler ticks by result.",
		}, []string{"result"}),
		dueConfigs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_due_integrations",
			Help:      "Integrations found due on the last tick.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.syncRuns,
		m.syncDuration,
		m.records,
		m.schedulerTicks,
		m.dueConfigs,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRun records a finished run. Runs rejected before a log was created
// are not observed.
func (m *Metrics) ObserveRun(log *domain.SyncLog, elapsed time.Duration) {
	if m == nil || log == nil {
		return
	}
	source := string(log.SyncDetails.Source)
	m.syncRuns.WithLabelValues(source, string(log.Status)).Inc()
	m.syncDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	m.records.WithLabelValues("success").Add(float64(log.SuccessfulSyncs))
	m.records.WithLabelValues("failed").Add(float64(log.FailedSyncs))
	m.records.WithLabelValues("skipped").Add(float64(log.SkippedRecords))
}

// ObserveTick records one scheduler tick. result is one of
// "ran", "idle", "locked" or "error".
func (m *Metrics) ObserveTick(result string, due int) {
	if m == nil {
		return
	}
	m.schedulerTicks.WithLabelValues(result).Inc()
	m.dueConfigs.Set(float64(due))
}
