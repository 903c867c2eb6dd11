// Package observability provides Prometheus metrics instrumentation for
// the DATEX runtime.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// COMPILER METRICS
// =============================================================================

var (
	compilationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datex_compilations_total",
			Help: "Total number of AST-to-DXB compilations",
		},
		[]string{"status"}, // status: success, error
	)

	compiledBodyBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datex_compiled_body_bytes",
			Help:    "Size in bytes of compiled DXB bodies",
			Buckets: prometheus.ExponentialBuckets(16, 4, 8),
		},
		[]string{"context"}, // context: outer, embedded
	)
)

// =============================================================================
// EXECUTION ENGINE METRICS
// =============================================================================

var (
	executionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datex_executions_total",
			Help: "Total number of Execute calls, by terminal status",
		},
		[]string{"status"}, // status: success, error, cancelled
	)

	executionDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datex_execution_duration_seconds",
			Help:    "Execute call duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"status"},
	)

	interruptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datex_engine_interrupts_total",
			Help: "Total number of engine interrupts raised, by kind",
		},
		[]string{"kind"},
	)
)

// =============================================================================
// ROUTING / COMHUB METRICS
// =============================================================================

var (
	blocksRoutedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datex_blocks_routed_total",
			Help: "Total number of blocks routed through the ComHub, by direction and type",
		},
		[]string{"direction", "block_type"}, // direction: inbound, outbound
	)

	blocksDedupedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datex_blocks_deduped_total",
			Help: "Total number of inbound blocks dropped as duplicates",
		},
	)

	responseResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datex_response_resolutions_total",
			Help: "Total number of SendAndAwait settlements, by kind",
		},
		[]string{"kind"}, // kind: exact, resolved, unspecified, timeout, not_reachable, early_abort
	)
)

// =============================================================================
// GRPC TRANSPORT METRICS
// =============================================================================

var (
	grpcRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datex_grpc_requests_total",
			Help: "Total gRPC requests served by the block-transport interface",
		},
		[]string{"method", "status"},
	)

	grpcRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datex_grpc_request_duration_seconds",
			Help:    "gRPC request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method"},
	)
)

// =============================================================================
// PUBLIC API
// =============================================================================

// RecordCompilation records one AST-to-DXB compilation outcome and, on
// success, the resulting body's size.
func RecordCompilation(status string, outerContext bool, bodyBytes int) {
	compilationsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		ctx := "embedded"
		if outerContext {
			ctx = "outer"
		}
		compiledBodyBytes.WithLabelValues(ctx).Observe(float64(bodyBytes))
	}
}

// RecordExecution records one Execute call's terminal status and wall
// time.
func RecordExecution(status string, durationSeconds float64) {
	executionsTotal.WithLabelValues(status).Inc()
	executionDurationSeconds.WithLabelValues(status).Observe(durationSeconds)
}

// RecordInterrupt records one engine interrupt, by its InterruptKind
// string.
func RecordInterrupt(kind string) {
	interruptsTotal.WithLabelValues(kind).Inc()
}

// RecordBlockRouted records one block passing through the ComHub.
func RecordBlockRouted(direction, blockType string) {
	blocksRoutedTotal.WithLabelValues(direction, blockType).Inc()
}

// RecordBlockDeduped records one inbound block dropped as a duplicate.
func RecordBlockDeduped() {
	blocksDedupedTotal.Inc()
}

// RecordResponseResolution records one SendAndAwait settlement kind
// (exact/resolved/unspecified on success, timeout/not_reachable/
// early_abort on failure).
func RecordResponseResolution(kind string) {
	responseResolutionsTotal.WithLabelValues(kind).Inc()
}

// RecordGRPCRequest records gRPC request metrics, called from the
// transport/grpc interceptors.
func RecordGRPCRequest(method string, status string, durationMS int) {
	grpcRequestsTotal.WithLabelValues(method, status).Inc()
	grpcRequestDurationSeconds.WithLabelValues(method).Observe(float64(durationMS) / 1000.0)
}
