// Package server hosts the calmate MCP server.
//
// ServerContext carries what every tool handler needs: the conversation
// sessions, the metrics recorder and the audit logger. HTTPServer exposes
// the MCP server over streamable HTTP on /mcp, using the session Manager
// as the transport's session id manager so each MCP session gets its own
// negotiation and undo ledger. HealthChecker serves /healthz, /readyz and
// /healthz/detailed, and MetricsServer serves Prometheus metrics on a
// separate port.
package server
