package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector exports wizard and board metrics on its own registry and
// mirrors the counters into a Monitor snapshot.
type MetricsCollector struct {
	registry *prometheus.Registry
	monitor  *Monitor

	extractions      *prometheus.CounterVec
	extractedItems   *prometheus.HistogramVec
	committedRecords *prometheus.CounterVec
	assignments      *prometheus.CounterVec
	autoAssignRuns   *prometheus.CounterVec
	boardLoad        prometheus.Histogram
	sessionsOpen     prometheus.Gauge
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(monitor *Monitor) *MetricsCollector {
	if monitor == nil {
		monitor = NewMonitor()
	}
	c := &MetricsCollector{
		registry: prometheus.NewRegistry(),
		monitor:  monitor,
		extractions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hotelops_extractions_total",
				Help: "Extraction requests by source mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		extractedItems: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hotelops_extracted_items",
				Help:    "Candidate records returned per successful extraction",
				Buckets: prometheus.LinearBuckets(0, 10, 10),
			},
			[]string{"mode"},
		),
		committedRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hotelops_committed_records_total",
				Help: "Menu records attempted by the commit batcher",
			},
			[]string{"result"},
		),
		assignments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hotelops_assignments_total",
				Help: "Task assignment calls by mode and result",
			},
			[]string{"mode", "result"},
		),
		autoAssignRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hotelops_auto_assign_runs_total",
				Help: "Bulk auto-assign runs by outcome",
			},
			[]string{"outcome"},
		),
		boardLoad: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hotelops_board_load_seconds",
			Help:    "Time taken to list and classify tasks",
			Buckets: prometheus.DefBuckets,
		}),
		sessionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hotelops_extraction_sessions_open",
			Help: "Extraction sessions currently held by the server",
		}),
	}

	c.registry.MustRegister(
		c.extractions,
		c.extractedItems,
		c.committedRecords,
		c.assignments,
		c.autoAssignRuns,
		c.boardLoad,
		c.sessionsOpen,
		collectors.NewGoCollector(),
	)
	return c
}

func (c *MetricsCollector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *MetricsCollector) Monitor() *Monitor {
	return c.monitor
}

// Handler serves the registry in the Prometheus text format.
func (c *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *MetricsCollector) ObserveExtraction(mode, outcome string, items int) {
	c.extractions.WithLabelValues(mode, outcome).Inc()
	if outcome == "success" {
		c.extractedItems.WithLabelValues(mode).Observe(float64(items))
	}
	c.monitor.Add("extractions_"+outcome, 1)
}

func (c *MetricsCollector) ObserveCommit(saved, failed int) {
	c.committedRecords.WithLabelValues("saved").Add(float64(saved))
	c.committedRecords.WithLabelValues("failed").Add(float64(failed))
	c.monitor.Add("menu_items_saved", saved)
	c.monitor.Add("menu_items_failed", failed)
}

func (c *MetricsCollector) ObserveAssignment(mode, result string) {
	c.assignments.WithLabelValues(mode, result).Inc()
	c.monitor.Add("assignments_"+result, 1)
}

func (c *MetricsCollector) ObserveAutoAssign(outcome string, succeeded, failed int) {
	c.autoAssignRuns.WithLabelValues(outcome).Inc()
	c.monitor.RecordMetric("auto_assign_last_outcome", outcome)
	c.monitor.RecordMetric("auto_assign_last_succeeded", succeeded)
	c.monitor.RecordMetric("auto_assign_last_failed", failed)
}

func (c *MetricsCollector) ObserveBoardLoad(d time.Duration) {
	c.boardLoad.Observe(d.Seconds())
}

// SetSessionsOpen reports the number of live wizard sessions.
func (c *MetricsCollector) SetSessionsOpen(n int) {
	c.sessionsOpen.Set(float64(n))
	c.monitor.RecordMetric("sessions_open", n)
}
