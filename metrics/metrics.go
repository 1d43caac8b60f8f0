// Package metrics provides Prometheus observability metrics for the forecast batch.
// It includes Critical and Important metrics for data-quality and model visibility.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for our application
var Registry = prometheus.NewRegistry()

// factory allows us to register metrics to our custom Registry directly
var factory = promauto.With(Registry)

// =============================================================================
// CRITICAL METRICS - Data Loss and Model Quality
// =============================================================================

// JoinDroppedRows tracks rows lost to inner joins against the lookup table.
// Non-zero values mean labels in the exports are missing from IDs.
var JoinDroppedRows = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "forecast",
	Name:      "join_dropped_rows",
	Help:      "Rows dropped by dimension resolution, by segment and lookup dimension",
}, []string{"segment", "dimension"})

// SkippedRowsTotal tracks source rows the loader could not use.
var SkippedRowsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "parser",
	Name:      "skipped_rows_total",
	Help:      "Source rows skipped because their request timestamp is missing or invalid",
}, []string{"table"})

// ModelScore tracks held-out evaluation scores of the trained models.
var ModelScore = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "forecast",
	Name:      "model_score",
	Help:      "Held-out score per model, variant (baseline, final) and metric (rmse, r2, precision, recall, f1, accuracy)",
}, []string{"model", "variant", "metric"})

// UnbalanceableSegmentsTotal tracks segments trained without class balancing.
var UnbalanceableSegmentsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "forecast",
	Name:      "unbalanceable_segments_total",
	Help:      "Count of segments missing an effectiveness class at balancing time",
})

// RunFailuresTotal tracks runs that ended with an error.
var RunFailuresTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "forecast",
	Name:      "run_failures_total",
	Help:      "Count of pipeline runs that terminated with an error",
})

// =============================================================================
// IMPORTANT METRICS - Operational Health
// =============================================================================

// StageRows tracks rows entering and leaving each pipeline stage.
var StageRows = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "forecast",
	Name:      "stage_rows",
	Help:      "Rows seen by a pipeline stage, by direction (in, out)",
}, []string{"stage", "direction"})

// RepairedTimestampsTotal tracks lifecycle timestamps filled or clamped.
var RepairedTimestampsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "repair",
	Name:      "timestamps_total",
	Help:      "Lifecycle timestamps filled or clamped by the repair engine",
}, []string{"segment", "field", "action"})

// ParserRecordsTotal tracks total records successfully parsed.
var ParserRecordsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "parser",
	Name:      "records_total",
	Help:      "Total source records successfully parsed",
}, []string{"table"})

// ParserDurationSeconds tracks time to read and parse input files.
var ParserDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "parser",
	Name:      "duration_seconds",
	Help:      "Time taken to read and parse one input file",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5},
})

// StageDurationSeconds tracks time spent in each pipeline stage.
var StageDurationSeconds = factory.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "forecast",
	Name:      "stage_duration_seconds",
	Help:      "Time taken by a pipeline stage",
	Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 60, 300, 900},
}, []string{"stage"})

// GridCandidatesEvaluated tracks hyperparameter candidates scored per search.
var GridCandidatesEvaluated = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "forecast",
	Name:      "grid_candidates_evaluated",
	Help:      "Number of parameter candidates cross-validated by the last grid search",
})

// =============================================================================
// Helper Functions
// =============================================================================

// ResetRunGauges resets all per-run gauges before a new pipeline run.
// Call this at the start of a run.
func ResetRunGauges() {
	JoinDroppedRows.Reset()
	ModelScore.Reset()
	StageRows.Reset()
	GridCandidatesEvaluated.Set(0)
}
