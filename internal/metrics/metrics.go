// Package metrics provides Prometheus instrumentation for the riskgate pipeline.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riskgate",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "riskgate",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// DecisionsTotal counts assembled decisions by recommended action.
	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riskgate",
			Name:      "decisions_total",
			Help:      "Total decisions assembled, by recommended action.",
		},
		[]string{"action"},
	)

	// HardBlocksTotal counts decisions carrying at least one hard block.
	HardBlocksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "riskgate",
			Name:      "hard_blocks_total",
			Help:      "Total decisions with at least one hard block.",
		},
	)

	// GuardrailRejectionsTotal counts guardrail rejections by check.
	GuardrailRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riskgate",
			Name:      "guardrail_rejections_total",
			Help:      "Total capability invocations rejected by a guardrail check.",
		},
		[]string{"check"},
	)

	// CapabilityFailuresTotal counts external capability failures after retry.
	CapabilityFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riskgate",
			Name:      "capability_failures_total",
			Help:      "Total external capability failures after retries were exhausted.",
		},
		[]string{"capability"},
	)

	// PipelineStageDuration observes per-stage pipeline latency.
	PipelineStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "riskgate",
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Decision pipeline stage duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// RateLimitedTotal counts requests rejected by the rate limiter.
	RateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "riskgate",
			Name:      "rate_limited_total",
			Help:      "Total requests rejected by the rate limiter.",
		},
	)

	// BatchLinesTotal counts processed batch lines by result.
	BatchLinesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riskgate",
			Name:      "batch_lines_total",
			Help:      "Total batch input lines processed, by result (scored, malformed, failed).",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		DecisionsTotal,
		HardBlocksTotal,
		GuardrailRejectionsTotal,
		CapabilityFailuresTotal,
		PipelineStageDuration,
		RateLimitedTotal,
		BatchLinesTotal,
	)
}

// StageTimer returns a prometheus timer for one pipeline stage.
func StageTimer(stage string) *prometheus.Timer {
	return prometheus.NewTimer(PipelineStageDuration.WithLabelValues(stage))
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the /metrics endpoint handler.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// statusBucket reduces status codes to class buckets (2xx, 4xx, ...).
func statusBucket(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
