// Package assistant_tools exposes the scheduling assistant as MCP tools.
//
// Every tool call is routed to one conversation: the "session" argument
// when given, otherwise the MCP transport session. A conversation keeps
// its pending proposals and its undo record between calls, so a client
// runs assistant_handle_intent, then answers with assistant_reply, and may
// take the result back with assistant_undo.
package assistant_tools
