package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "promptlab_api_request_duration_seconds",
			Help:    "API request duration in seconds by model",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s to ~100s
		},
		[]string{"model", "status"},
	)

	apiRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptlab_api_retries_total",
			Help: "Number of retried model calls by call kind",
		},
		[]string{"call"}, // "generation" or "judge"
	)

	variantOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptlab_variant_outcomes_total",
			Help: "Variant pipeline outcomes by variant",
		},
		[]string{"variant", "status"}, // status: "success"/"error"
	)

	judgeParseFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "promptlab_judge_parse_failures_total",
			Help: "Judge responses that could not be parsed into metrics",
		},
	)

	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "promptlab_run_duration_seconds",
			Help:    "Wall-clock duration of complete experiment runs",
			Buckets: prometheus.ExponentialBuckets(5, 2, 8), // 5s to ~10m
		},
	)
)

// Collector provides convenience methods for recording metrics
type Collector struct{}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{}
}

// RecordAPIRequest records an API request duration
func (c *Collector) RecordAPIRequest(model string, duration time.Duration, success bool) {
	if c == nil {
		return
	}
	apiRequestDuration.WithLabelValues(model, statusLabel(success)).Observe(duration.Seconds())
}

// IncrementRetry counts one retry of a model call
func (c *Collector) IncrementRetry(call string) {
	if c == nil {
		return
	}
	apiRetries.WithLabelValues(call).Inc()
}

// RecordVariant records the outcome of one variant pipeline
func (c *Collector) RecordVariant(variant string, success bool) {
	if c == nil {
		return
	}
	variantOutcomes.WithLabelValues(variant, statusLabel(success)).Inc()
}

// IncrementJudgeParseFailure counts one unparseable judge response
func (c *Collector) IncrementJudgeParseFailure() {
	if c == nil {
		return
	}
	judgeParseFailures.Inc()
}

// RecordRun records the duration of a complete run
func (c *Collector) RecordRun(duration time.Duration) {
	if c == nil {
		return
	}
	runDuration.Observe(duration.Seconds())
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
