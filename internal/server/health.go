package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
)

// HealthChecker serves liveness and readiness probes.
type HealthChecker struct {
	ready         atomic.Bool
	serverContext *ServerContext
	version       string
	startTime     time.Time
}

// NewHealthChecker creates a HealthChecker that starts out ready.
func NewHealthChecker(sc *ServerContext, version string) *HealthChecker {
	h := &HealthChecker{
		serverContext: sc,
		version:       version,
		startTime:     time.Now(),
	}
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state of the server.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the server is ready to receive traffic.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// isServerShuttingDown is false for a nil server context.
func (h *HealthChecker) isServerShuttingDown() bool {
	return h.serverContext != nil && h.serverContext.IsShutdown()
}

func (h *HealthChecker) activeSessions() int {
	if h.serverContext == nil || h.serverContext.Sessions() == nil {
		return 0
	}
	return len(h.serverContext.Sessions().List())
}

// HealthResponse is the body of /healthz and /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse is the body of /healthz/detailed.
type DetailedHealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Uptime   string `json:"uptime"`
	Sessions int    `json:"sessions"`
}

// LivenessHandler reports that the process is running.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler reports whether the server accepts conversations.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		checks := map[string]string{
			"ready":    healthStatusOK,
			"shutdown": healthStatusOK,
		}
		allOk := true

		if !h.ready.Load() {
			checks["ready"] = healthStatusNotReady
			allOk = false
		}
		if h.isServerShuttingDown() {
			checks["shutdown"] = healthStatusShuttingDown
			allOk = false
		}

		if allOk {
			writeJSON(w, http.StatusOK, HealthResponse{Status: healthStatusOK, Checks: checks})
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: healthStatusNotReady, Checks: checks})
	})
}

// DetailedHealthHandler adds uptime, version and the live session count.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response := DetailedHealthResponse{
			Status:   healthStatusOK,
			Version:  h.version,
			Uptime:   time.Since(h.startTime).Truncate(time.Second).String(),
			Sessions: h.activeSessions(),
		}

		code := http.StatusOK
		switch {
		case !h.ready.Load():
			response.Status = healthStatusNotReady
			code = http.StatusServiceUnavailable
		case h.isServerShuttingDown():
			response.Status = healthStatusShuttingDown
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, response)
	})
}

// RegisterHealthEndpoints registers health check endpoints on the given mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
