// Package observability provides Prometheus metrics and the metrics server.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics must be global for registration
var (
	// PipelineRunsTotal tracks pipeline invocations by trigger and outcome
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadsync_pipeline_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"trigger", "status"}, // trigger: scheduled, manual; status: success, error
	)

	// PipelineRunDuration measures pipeline run duration in seconds
	PipelineRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leadsync_pipeline_run_duration_seconds",
			Help:    "Pipeline run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s to ~100s
		},
	)

	// MessagesTotal tracks per-message outcomes within pipeline runs
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadsync_messages_total",
			Help: "Total number of messages handled by the pipeline",
		},
		[]string{"outcome"}, // outcome: committed, skipped, failed
	)

	// RowsCommittedTotal counts canonical rows committed downstream
	RowsCommittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadsync_rows_committed_total",
			Help: "Total number of canonical rows committed to storage",
		},
	)

	// ScheduleEvaluationsTotal counts dueNow evaluations by result
	ScheduleEvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadsync_schedule_evaluations_total",
			Help: "Total number of schedule evaluations",
		},
		[]string{"result"}, // result: due, not_due, error
	)

	// LedgerSize tracks ledger entries written by this process
	LedgerSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leadsync_ledger_entries",
			Help: "Number of ledger entries written by this process",
		},
	)
)

// RecordRun records one pipeline run with its duration.
func RecordRun(trigger, status string, started time.Time) {
	PipelineRunsTotal.WithLabelValues(trigger, status).Inc()
	PipelineRunDuration.Observe(time.Since(started).Seconds())
}

// RecordMessages records per-message outcome counts for a run.
func RecordMessages(committed, skipped, failed int) {
	MessagesTotal.WithLabelValues("committed").Add(float64(committed))
	MessagesTotal.WithLabelValues("skipped").Add(float64(skipped))
	MessagesTotal.WithLabelValues("failed").Add(float64(failed))
}

// RecordScheduleEvaluation records one dueNow evaluation.
func RecordScheduleEvaluation(result string) {
	ScheduleEvaluationsTotal.WithLabelValues(result).Inc()
}

// RecordRowsCommitted records rows confirmed committed downstream.
func RecordRowsCommitted(rows int) {
	RowsCommittedTotal.Add(float64(rows))
}

// RecordLedgerEntry tracks one new ledger entry.
func RecordLedgerEntry() {
	LedgerSize.Inc()
}
