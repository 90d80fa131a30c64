package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics centralizes the Prometheus instrumentation for the dispatch and
// tool-orchestration engine: HTTP surface, model router, provider calls,
// tool executions, and the SSE stream adapter.
//
// Usage:
//
//	metrics := observability.NewMetrics()
//	metrics.RecordRoutingDecision("PERCENTAGE", "", "remote")
//	metrics.RecordProviderRequest("remote", "gpt-4o-mini", "success", elapsed.Seconds(), 120, 340)
type Metrics struct {
	// RoutingDecisions counts routing decisions by strategy, business type
	// (empty for PERCENTAGE), and the model id selected.
	RoutingDecisions *prometheus.CounterVec

	// ProviderRequestDuration measures a provider's Complete call latency in
	// seconds. Labels: provider (local|remote|anthropic), model.
	// Buckets: 0.1s, 0.5s, 1s, 2s, 5s, 10s, 30s, 60s, 120s
	ProviderRequestDuration *prometheus.HistogramVec

	// ProviderRequestsTotal counts provider calls by provider, model, and
	// outcome (success|error).
	ProviderRequestsTotal *prometheus.CounterVec

	// ProviderTokensTotal tracks token usage by provider, model, and
	// direction (input|output).
	ProviderTokensTotal *prometheus.CounterVec

	// ToolExecutionsTotal counts tool invocations by tool name and outcome
	// (success|error).
	ToolExecutionsTotal *prometheus.CounterVec

	// ToolExecutionDuration measures tool execution latency in seconds.
	// Labels: tool_name.
	ToolExecutionDuration *prometheus.HistogramVec

	// VectorSearchDuration measures nearest-neighbour lookups against the
	// vector store in seconds. Labels: collection.
	VectorSearchDuration *prometheus.HistogramVec

	// StreamSegmentsTotal counts SSE message segments emitted across all
	// turns.
	StreamSegmentsTotal prometheus.Counter

	// HTTPRequestsTotal counts HTTP requests by method, route pattern, and
	// status code.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration measures HTTP request latency in seconds. Labels:
	// method, route, status.
	// Buckets: 0.001s, 0.005s, 0.01s, 0.05s, 0.1s, 0.5s, 1s, 5s, 30s, 120s
	HTTPRequestDuration *prometheus.HistogramVec

	// StoreErrorsTotal counts conversation-store failures by operation
	// (append|tail|history|conversations_for|delete|delete_older_than).
	StoreErrorsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus collectors against the
// default registry. Call once at process start.
func NewMetrics() *Metrics {
	return &Metrics{
		RoutingDecisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragagent_routing_decisions_total",
				Help: "Total number of routing decisions by strategy, business type, and selected model",
			},
			[]string{"strategy", "business_type", "model"},
		),

		ProviderRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ragagent_provider_request_duration_seconds",
				Help:    "Duration of chat provider completion calls in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"provider", "model"},
		),

		ProviderRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragagent_provider_requests_total",
				Help: "Total number of chat provider completion calls by provider, model, and outcome",
			},
			[]string{"provider", "model", "status"},
		),

		ProviderTokensTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragagent_provider_tokens_total",
				Help: "Total tokens exchanged with chat providers by provider, model, and direction",
			},
			[]string{"provider", "model", "direction"},
		),

		ToolExecutionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragagent_tool_executions_total",
				Help: "Total number of tool executions by tool name and outcome",
			},
			[]string{"tool_name", "status"},
		),

		ToolExecutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ragagent_tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"tool_name"},
		),

		VectorSearchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ragagent_vector_search_duration_seconds",
				Help:    "Duration of vector store nearest-neighbour searches in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"collection"},
		),

		StreamSegmentsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ragagent_stream_segments_total",
				Help: "Total number of SSE message segments emitted across all turns",
			},
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragagent_http_requests_total",
				Help: "Total number of HTTP requests by method, route, and status code",
			},
			[]string{"method", "route", "status"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ragagent_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
			},
			[]string{"method", "route", "status"},
		),

		StoreErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragagent_store_errors_total",
				Help: "Total number of conversation-store failures by operation",
			},
			[]string{"operation"},
		),
	}
}

// RecordRoutingDecision increments the routing-decision counter. businessType
// is empty for the PERCENTAGE strategy, which never classifies a message.
func (m *Metrics) RecordRoutingDecision(strategy, businessType, model string) {
	if m == nil {
		return
	}
	m.RoutingDecisions.WithLabelValues(strategy, businessType, model).Inc()
}

// RecordProviderRequest records the outcome of one provider completion call.
func (m *Metrics) RecordProviderRequest(provider, model, status string, durationSeconds float64, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	m.ProviderRequestsTotal.WithLabelValues(provider, model, status).Inc()
	m.ProviderRequestDuration.WithLabelValues(provider, model).Observe(durationSeconds)
	if inputTokens > 0 {
		m.ProviderTokensTotal.WithLabelValues(provider, model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.ProviderTokensTotal.WithLabelValues(provider, model, "output").Add(float64(outputTokens))
	}
}

// RecordToolExecution records the outcome of one tool invocation.
func (m *Metrics) RecordToolExecution(toolName, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.ToolExecutionsTotal.WithLabelValues(toolName, status).Inc()
	m.ToolExecutionDuration.WithLabelValues(toolName).Observe(durationSeconds)
}

// RecordVectorSearch records one nearest-neighbour lookup's latency.
func (m *Metrics) RecordVectorSearch(collection string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.VectorSearchDuration.WithLabelValues(collection).Observe(durationSeconds)
}

// RecordStreamSegment increments the SSE segment counter by one.
func (m *Metrics) RecordStreamSegment() {
	if m == nil {
		return
	}
	m.StreamSegmentsTotal.Inc()
}

// RecordHTTPRequest records one completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(durationSeconds)
}

// RecordStoreError increments the store-error counter for operation.
func (m *Metrics) RecordStoreError(operation string) {
	if m == nil {
		return
	}
	m.StoreErrorsTotal.WithLabelValues(operation).Inc()
}
