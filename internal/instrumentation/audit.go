package instrumentation

import (
	"context"
	"log/slog"
	"time"
)

// ToolInvocation captures the information about one MCP tool call for audit logging.
type ToolInvocation struct {
	Tool string

	// SessionID identifies the conversation session the call belongs to.
	SessionID string

	// Action is the intent action for assistant_handle_intent calls.
	Action string

	// ResultType is the dispatcher result type (success, message, error, suggestions).
	ResultType string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewToolInvocation creates a new ToolInvocation with timing started.
// Call Complete when the tool operation finishes.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithSession sets the session identifier.
func (ti *ToolInvocation) WithSession(sessionID string) *ToolInvocation {
	ti.SessionID = sessionID
	return ti
}

// WithAction sets the intent action and the result type it produced.
func (ti *ToolInvocation) WithAction(action, resultType string) *ToolInvocation {
	ti.Action = action
	ti.ResultType = resultType
	return ti
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	ti.TraceID = GetTraceID(ctx)
	ti.SpanID = GetSpanID(ctx)
	return ti
}

// Complete marks the invocation as completed and calculates duration.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// Status returns "success" or "error" based on the Success field.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes for the invocation.
// Session ids are shortened unless fullSession is set.
func (ti *ToolInvocation) LogAttrs(fullSession bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}

	if ti.SessionID != "" {
		session := ti.SessionID
		if !fullSession {
			session = SessionLabel(session)
		}
		attrs = append(attrs, slog.String("session", session))
	}
	if ti.Action != "" {
		attrs = append(attrs, slog.String("action", ti.Action))
	}
	if ti.ResultType != "" {
		attrs = append(attrs, slog.String("result", ti.ResultType))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.SpanID != "" && fullSession {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}

	return attrs
}

// AuditLogger writes one structured line per tool invocation.
type AuditLogger struct {
	logger      *slog.Logger
	fullSession bool
	enabled     bool
}

// NewAuditLogger creates a new AuditLogger with the given configuration.
func NewAuditLogger(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:      logger,
		fullSession: config.IncludeSessionIDs,
		enabled:     config.Enabled,
	}
}

// LogToolInvocation logs a tool invocation. Failures are logged at warn level.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}

	attrs := ti.LogAttrs(al.fullSession)
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if ti.Success {
		al.logger.Info("tool_executed", args...)
	} else {
		al.logger.Warn("tool_failed", args...)
	}
}
