package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calmate/internal/logging"
)

// MCPEndpoint is the path of the streamable HTTP transport.
const MCPEndpoint = "/mcp"

// HTTPServerConfig configures the streamable HTTP transport.
type HTTPServerConfig struct {
	Addr             string
	Version          string
	DisableStreaming bool
	Logger           *slog.Logger
}

// HTTPServer exposes an MCP server over streamable HTTP together with the
// health endpoints. Transport session ids are issued by the session
// Manager, so every MCP session owns one conversation.
type HTTPServer struct {
	mcpServer     *mcpserver.MCPServer
	serverContext *ServerContext
	health        *HealthChecker
	config        HTTPServerConfig
	httpServer    *http.Server
	logger        *slog.Logger
}

// NewHTTPServer creates the HTTP transport for mcpServer.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, sc *ServerContext, config HTTPServerConfig) *HTTPServer {
	s := &HTTPServer{
		mcpServer:     mcpServer,
		serverContext: sc,
		health:        NewHealthChecker(sc, config.Version),
		config:        config,
		logger:        logging.WithOperation(config.Logger, "http_server"),
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Health returns the server's health checker.
func (s *HTTPServer) Health() *HealthChecker {
	return s.health
}

// Handler returns the routed handler: /mcp plus the health endpoints,
// all wrapped in request metrics.
func (s *HTTPServer) Handler() http.Handler {
	opts := []mcpserver.StreamableHTTPOption{
		mcpserver.WithEndpointPath(MCPEndpoint),
	}
	if s.serverContext != nil && s.serverContext.Sessions() != nil {
		opts = append(opts, mcpserver.WithSessionIdManager(s.serverContext.Sessions()))
	}
	if s.config.DisableStreaming {
		opts = append(opts, mcpserver.WithDisableStreaming(true))
	}

	mux := http.NewServeMux()
	mux.Handle(MCPEndpoint, mcpserver.NewStreamableHTTPServer(s.mcpServer, opts...))
	s.health.RegisterHealthEndpoints(mux)

	return s.withMetrics(mux)
}

// Start listens on the configured address and serves until Shutdown.
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}

	s.logger.Info("Starting MCP HTTP server", "addr", ln.Addr().String(), "endpoint", MCPEndpoint)
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown marks the server not ready and drains open requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	return s.httpServer.Shutdown(ctx)
}

func (s *HTTPServer) withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics := s.serverContext.metricsOrNil()
		if metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streamed MCP responses working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
