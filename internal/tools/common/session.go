package common

import (
	"context"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

// SessionArg is the optional tool argument naming a conversation.
const SessionArg = "session"

// GetSessionFromArgs returns the conversation a tool call belongs to.
//
// Priority order:
//  1. Explicit "session" argument in request
//  2. The MCP transport session
//  3. "" (the session Manager's default conversation)
func GetSessionFromArgs(ctx context.Context, args map[string]any) string {
	if id, ok := args[SessionArg].(string); ok && id != "" {
		return id
	}
	if cs := mcpserver.ClientSessionFromContext(ctx); cs != nil {
		return cs.SessionID()
	}
	return ""
}
