package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/calmate/internal/instrumentation"
	"github.com/teemow/calmate/internal/logging"
	"github.com/teemow/calmate/internal/server"
)

type invocationKey struct{}

// InstrumentedToolHandler wraps a tool handler with metrics and audit logging.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(
	toolName string,
	sc *server.ServerContext,
	handler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error),
) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		if metrics == nil && auditLogger == nil {
			result, err := handler(ctx, request)
			logFailure(ctx, sc, toolName, err)
			return result, err
		}

		ctx, span := instrumentation.StartToolSpan(ctx, toolName)
		start := time.Now()
		sessionID := GetSessionFromArgs(ctx, request.GetArguments())
		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx).
			WithSession(sessionID)

		result, err := handler(context.WithValue(ctx, invocationKey{}, invocation), request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		if err != nil || (result != nil && result.IsError) {
			status = instrumentation.StatusError
			invocation.Complete(false, err)
		} else {
			invocation.Complete(true, nil)
		}
		instrumentation.EndSpan(span, err)
		logFailure(ctx, sc, toolName, err)

		metrics.RecordToolInvocation(ctx, toolName, status, instrumentation.SessionLabel(sessionID), duration)
		auditLogger.LogToolInvocation(invocation)

		return result, err
	}
}

// logFailure logs handler errors. Error results are not logged; they are
// answers for the client.
func logFailure(ctx context.Context, sc *server.ServerContext, toolName string, err error) {
	if err == nil {
		return
	}
	logging.WithTool(sc.Logger(), toolName).WarnContext(ctx, "tool handler failed", logging.Err(err))
}

// Annotate records the intent action and result type on the invocation
// being audited. It is a no-op outside InstrumentedToolHandler.
func Annotate(ctx context.Context, action, resultType string) {
	if ti, ok := ctx.Value(invocationKey{}).(*instrumentation.ToolInvocation); ok {
		ti.WithAction(action, resultType)
	}
}
