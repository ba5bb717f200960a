package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5, 30}

// Metrics provides observability for the dashboard.
// Tracks fact table loads, view builds, and the pivot's silent data-quality events.
type Metrics struct {
	Loads           *prometheus.CounterVec
	LoadDuration    prometheus.Histogram
	FactRows        prometheus.Gauge
	BuildDuration   prometheus.Histogram
	Collisions      prometheus.Counter
	UnorderedLabels *prometheus.CounterVec
	DroppedColumns  prometheus.Counter
	Exports         *prometheus.CounterVec
}

// New registers all dashboard metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Loads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "scoregaps_fact_loads_total",
			Help: "Fact table load attempts by result",
		}, []string{"result"}),
		LoadDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "scoregaps_fact_load_duration_seconds",
			Help:    "Duration of fact table loads including retries",
			Buckets: durationBuckets,
		}),
		FactRows: f.NewGauge(prometheus.GaugeOpts{
			Name: "scoregaps_fact_rows",
			Help: "Rows in the loaded fact table",
		}),
		BuildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "scoregaps_view_build_duration_seconds",
			Help:    "Duration of filter, pivot and format for one selection",
			Buckets: durationBuckets,
		}),
		Collisions: f.NewCounter(prometheus.CounterOpts{
			Name: "scoregaps_pivot_collisions_total",
			Help: "Fact rows discarded because their pivot cell was already filled",
		}),
		UnorderedLabels: f.NewCounterVec(prometheus.CounterOpts{
			Name: "scoregaps_unordered_labels_total",
			Help: "Assessments or groupings missing from the ordering registry",
		}, []string{"kind"}),
		DroppedColumns: f.NewCounter(prometheus.CounterOpts{
			Name: "scoregaps_dropped_columns_total",
			Help: "Grid columns dropped for having no non-zero Cohen's d",
		}),
		Exports: f.NewCounterVec(prometheus.CounterOpts{
			Name: "scoregaps_exports_total",
			Help: "Table exports by format",
		}, []string{"format"}),
	}
}

// ObserveLoad records a load outcome and its duration.
// Call with time.Now() at the start of the load.
func (m *Metrics) ObserveLoad(start time.Time, rows int, err error) {
	m.LoadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.Loads.WithLabelValues("error").Inc()
		return
	}
	m.Loads.WithLabelValues("ok").Inc()
	m.FactRows.Set(float64(rows))
}

// ObserveBuild records the duration of one view build
func (m *Metrics) ObserveBuild(start time.Time) {
	m.BuildDuration.Observe(time.Since(start).Seconds())
}

// RecordPivot adds the pivot's data-quality counts
func (m *Metrics) RecordPivot(collisions, unorderedAssessments, unorderedGroupings, dropped int) {
	m.Collisions.Add(float64(collisions))
	m.UnorderedLabels.WithLabelValues("assessment").Add(float64(unorderedAssessments))
	m.UnorderedLabels.WithLabelValues("grouping").Add(float64(unorderedGroupings))
	m.DroppedColumns.Add(float64(dropped))
}

// IncrementExport records a download in the given format
func (m *Metrics) IncrementExport(format string) {
	m.Exports.WithLabelValues(format).Inc()
}
