package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Routing metrics
	RoutingDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routegate_routing_decisions_total",
			Help: "Total number of routing decisions by task type and selected model",
		},
		[]string{"task_type", "model", "policy"},
	)

	RoutingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "routegate_routing_duration_seconds",
			Help:    "Time spent classifying and ranking a prompt",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
		},
	)

	// Execution metrics
	ExecutionAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routegate_execution_attempts_total",
			Help: "Total number of per-model execution attempts",
		},
		[]string{"model", "outcome"},
	)

	ExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "routegate_execution_duration_ms",
			Help:    "Per-attempt model execution latency in milliseconds",
			Buckets: []float64{100, 500, 1000, 2000, 5000, 10000, 30000},
		},
		[]string{"model"},
	)

	FallbacksUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routegate_fallbacks_used_total",
			Help: "Requests served by a fallback model",
		},
		[]string{"primary", "served_by"},
	)

	ExecutionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routegate_execution_failures_total",
			Help: "Requests that ended without any model producing a response",
		},
		[]string{"code"},
	)

	ExecutionTokens = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "routegate_execution_tokens",
			Help:    "Total tokens per successful request",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000},
		},
	)

	// Evaluation metrics
	EvaluationImports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routegate_evaluation_imports_total",
			Help: "Evaluation imports by source and status",
		},
		[]string{"source", "status"},
	)

	EvaluationUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "routegate_evaluation_updates_total",
			Help: "Evaluation upserts applied to the store",
		},
	)

	EvaluationEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "routegate_evaluation_entries",
			Help: "Number of (model, task type) evaluations currently stored",
		},
	)
)
