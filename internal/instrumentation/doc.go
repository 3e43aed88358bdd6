// Package instrumentation provides OpenTelemetry instrumentation for calmate.
//
// # Metrics
//
// Server/HTTP:
//   - http_requests_total, http_request_duration_seconds
//   - active_sessions: live conversation sessions
//
// Remote calendar:
//   - calendar_gateway_operations_total{backend,operation,status}
//   - calendar_gateway_operation_duration_seconds
//
// Assistant:
//   - assistant_intents_total{action,result}, assistant_intent_duration_seconds
//   - assistant_negotiations_total{kind,outcome}
//   - assistant_free_slots_found
//
// MCP tools:
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds
//
// # Tracing
//
// Spans are created for tool calls (tool.<name>), gateway calls
// (calendar.<operation>), availability searches and intent dispatch.
//
// # Configuration
//
// Instrumentation is configured from the environment:
//   - INSTRUMENTATION_ENABLED (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_TRACES_SAMPLER_ARG (default: 0.1)
//   - OTEL_SERVICE_NAME (default: calmate)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordGatewayOperation(ctx, instrumentation.BackendGoogle,
//		instrumentation.OperationGetEvents, instrumentation.StatusSuccess, time.Since(start))
package instrumentation
