package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/calmate/internal/instrumentation"
	"github.com/teemow/calmate/internal/server"
	"github.com/teemow/calmate/internal/session"
	"github.com/teemow/calmate/internal/tools/assistant_tools"
)

// Transport types.
const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

// MetricsConfig holds configuration for the dedicated metrics server.
type MetricsConfig struct {
	Enabled bool
	Addr    string
}

type serveOptions struct {
	transport        string
	httpAddr         string
	disableStreaming bool
	metrics          MetricsConfig
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server exposing the scheduling assistant tools.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP on /mcp, with /healthz and /readyz

Every MCP session gets its own conversation; idle conversations expire
after session.timeout_minutes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("metrics-enabled") {
				if v := os.Getenv("METRICS_ENABLED"); v != "" {
					opts.metrics.Enabled = v == "true"
				}
			}
			if !cmd.Flags().Changed("metrics-addr") {
				if addr := os.Getenv("METRICS_ADDR"); addr != "" {
					opts.metrics.Addr = addr
				}
			}
			return runServe(opts)
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&opts.disableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")
	cmd.Flags().BoolVar(&opts.metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(opts serveOptions) error {
	if opts.transport != transportStdio && opts.transport != transportStreamableHTTP {
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.transport)
	}

	shutdownCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// stdout carries the stdio protocol; logs always go to stderr.
	logger := newLogger(os.Stderr, debugMode)
	slog.SetDefault(logger)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	if err := instrConfig.Validate(); err != nil {
		return fmt.Errorf("invalid instrumentation config: %w", err)
	}

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("Error during instrumentation shutdown", "error", err)
		}
	}()

	var metrics *instrumentation.Metrics
	if provider.Enabled() {
		metrics = provider.Metrics()
	}

	a, err := newApp(shutdownCtx, metrics, logger)
	if err != nil {
		return err
	}

	sessions := session.NewManager(a.sessionFactory(), a.cfg.SessionTimeout(), metrics, logger)
	serverContext := server.NewServerContext(shutdownCtx, sessions, logger)
	if provider.Enabled() {
		serverContext.SetMetrics(metrics)
		serverContext.SetAuditLogger(instrumentation.NewAuditLogger(logger, instrConfig.AuditLogging))
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("Error during server context shutdown", "error", err)
		}
	}()

	if opts.transport != transportStdio && opts.metrics.Enabled && provider.Enabled() {
		metricsServer, err := startMetricsServer(opts.metrics, provider, logger)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("Error during metrics server shutdown", "error", err)
			}
		}()
	}

	mcpSrv := mcpserver.NewMCPServer("calmate", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)
	if err := assistant_tools.RegisterAssistantTools(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register assistant tools: %w", err)
	}

	switch opts.transport {
	case transportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, opts, logger)
	default:
		return runStdioServer(mcpSrv)
	}
}

// startMetricsServer starts the metrics server and waits until it listens.
func startMetricsServer(cfg MetricsConfig, provider *instrumentation.Provider, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    cfg.Addr,
		InstrumentationProvider: provider,
		Logger:                  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	select {
	case <-metricsReady:
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, opts serveOptions, logger *slog.Logger) error {
	httpServer := server.NewHTTPServer(mcpSrv, sc, server.HTTPServerConfig{
		Addr:             opts.httpAddr,
		Version:          version,
		DisableStreaming: opts.disableStreaming,
		Logger:           logger,
	})

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
