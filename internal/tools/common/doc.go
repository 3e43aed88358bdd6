// Package common provides helpers shared by the MCP tool packages: session
// resolution and the instrumented handler wrapper that records tool
// metrics and audit log lines.
package common
