package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/teemow/calmate/internal/instrumentation"
	"github.com/teemow/calmate/internal/logging"
	"github.com/teemow/calmate/internal/session"
)

// ServerContext holds the state shared by all MCP tool handlers.
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	sessions    *session.Manager
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	logger      *slog.Logger
	mu          sync.RWMutex
	shutdown    bool
}

// NewServerContext creates a server context owning sessions.
func NewServerContext(ctx context.Context, sessions *session.Manager, logger *slog.Logger) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		sessions: sessions,
		logger:   logging.Default(logger),
	}
}

// Context returns the server context. It is cancelled on Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Sessions returns the conversation sessions.
func (sc *ServerContext) Sessions() *session.Manager {
	return sc.sessions
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// SetMetrics sets the metrics recorder used by tool handlers.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// Metrics returns the metrics recorder, or nil when instrumentation is off.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetAuditLogger sets the tool invocation audit logger.
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

// AuditLogger returns the audit logger, or nil when auditing is off.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown stops session expiry and cancels the context. It is safe to
// call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	if sc.sessions != nil {
		sc.sessions.Stop()
	}
	sc.cancel()
	return nil
}

func (sc *ServerContext) metricsOrNil() *instrumentation.Metrics {
	if sc == nil {
		return nil
	}
	return sc.Metrics()
}
