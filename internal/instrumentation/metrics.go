package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrBackend   = "backend"
	attrResult    = "result"
	attrTool      = "tool"
	attrAction    = "action"
	attrKind      = "kind"
	attrOutcome   = "outcome"
	attrSession   = "session"
)

var latencyBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}

// Metrics provides methods for recording observability metrics.
// The zero value is a valid no-op recorder.
type Metrics struct {
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram
	activeSessions      metric.Int64UpDownCounter

	gatewayOperationsTotal   metric.Int64Counter
	gatewayOperationDuration metric.Float64Histogram

	intentsTotal     metric.Int64Counter
	intentDuration   metric.Float64Histogram
	negotiationTotal metric.Int64Counter
	freeSlotsFound   metric.Int64Histogram

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// detailedLabels controls whether high-cardinality labels are included
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all instruments initialized.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{detailedLabels: detailedLabels}

	var err error
	if m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	if m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	); err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	if m.activeSessions, err = meter.Int64UpDownCounter(
		"active_sessions",
		metric.WithDescription("Number of live conversation sessions"),
		metric.WithUnit("{session}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create active_sessions gauge: %w", err)
	}

	if m.gatewayOperationsTotal, err = meter.Int64Counter(
		"calendar_gateway_operations_total",
		metric.WithDescription("Total number of remote calendar operations"),
		metric.WithUnit("{operation}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create calendar_gateway_operations_total counter: %w", err)
	}

	if m.gatewayOperationDuration, err = meter.Float64Histogram(
		"calendar_gateway_operation_duration_seconds",
		metric.WithDescription("Remote calendar operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create calendar_gateway_operation_duration_seconds histogram: %w", err)
	}

	if m.intentsTotal, err = meter.Int64Counter(
		"assistant_intents_total",
		metric.WithDescription("Total number of dispatched intents by action and result type"),
		metric.WithUnit("{intent}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create assistant_intents_total counter: %w", err)
	}

	if m.intentDuration, err = meter.Float64Histogram(
		"assistant_intent_duration_seconds",
		metric.WithDescription("Intent handling duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create assistant_intent_duration_seconds histogram: %w", err)
	}

	if m.negotiationTotal, err = meter.Int64Counter(
		"assistant_negotiations_total",
		metric.WithDescription("Negotiation state transitions by kind and outcome"),
		metric.WithUnit("{transition}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create assistant_negotiations_total counter: %w", err)
	}

	if m.freeSlotsFound, err = meter.Int64Histogram(
		"assistant_free_slots_found",
		metric.WithDescription("Number of free slots returned per availability search"),
		metric.WithUnit("{slot}"),
		metric.WithExplicitBucketBoundaries(0, 1, 3, 5, 10, 20, 50),
	); err != nil {
		return nil, fmt.Errorf("failed to create assistant_free_slots_found histogram: %w", err)
	}

	if m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	if m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordGatewayOperation records a remote calendar operation.
//
// Parameters:
//   - backend: calendar backend (google, caldav)
//   - operation: gateway operation (get_events, update_event, free_busy, ...)
//   - status: "success" or "error"
//   - duration: time taken for the call
func (m *Metrics) RecordGatewayOperation(ctx context.Context, backend, operation, status string, duration time.Duration) {
	if m == nil || m.gatewayOperationsTotal == nil || m.gatewayOperationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := metric.WithAttributes(
		attribute.String(attrBackend, backend),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.gatewayOperationsTotal.Add(ctx, 1, attrs)
	m.gatewayOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordIntent records one dispatched intent and the type of result it produced.
func (m *Metrics) RecordIntent(ctx context.Context, action, result string, duration time.Duration) {
	if m == nil || m.intentsTotal == nil || m.intentDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := metric.WithAttributes(
		attribute.String(attrAction, action),
		attribute.String(attrResult, result),
	)
	m.intentsTotal.Add(ctx, 1, attrs)
	m.intentDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordNegotiation records a negotiation transition such as opened or committed.
func (m *Metrics) RecordNegotiation(ctx context.Context, kind, outcome string) {
	if m == nil || m.negotiationTotal == nil {
		return // Instrumentation not initialized
	}

	m.negotiationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrKind, kind),
		attribute.String(attrOutcome, outcome),
	))
}

// RecordFreeSlots records how many free slots an availability search returned.
func (m *Metrics) RecordFreeSlots(ctx context.Context, count int) {
	if m == nil || m.freeSlotsFound == nil {
		return // Instrumentation not initialized
	}

	m.freeSlotsFound.Record(ctx, int64(count))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
// The session label is only attached when detailed labels are enabled.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status, session string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels && session != "" {
		attrs = append(attrs, attribute.String(attrSession, session))
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// IncrementActiveSessions increments the active sessions counter.
func (m *Metrics) IncrementActiveSessions(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return // Instrumentation not initialized
	}
	m.activeSessions.Add(ctx, 1)
}

// DecrementActiveSessions decrements the active sessions counter.
func (m *Metrics) DecrementActiveSessions(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return // Instrumentation not initialized
	}
	m.activeSessions.Add(ctx, -1)
}
