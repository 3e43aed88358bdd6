package common

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/teemow/calmate/internal/instrumentation"
	"github.com/teemow/calmate/internal/server"
)

func newServerContext(t *testing.T) *server.ServerContext {
	t.Helper()
	sc := server.NewServerContext(context.Background(), nil, nil)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func requestWith(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestInstrumentedToolHandler_WithoutInstrumentation(t *testing.T) {
	sc := newServerContext(t)

	called := false
	wrapped := InstrumentedToolHandler("test_tool", sc, func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		Annotate(ctx, "move", "success")
		return mcp.NewToolResultText("ok"), nil
	})

	result, err := wrapped(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, called)
	assert.NotNil(t, result)
}

func TestInstrumentedToolHandler_PropagatesErrors(t *testing.T) {
	sc := newServerContext(t)
	metrics, err := instrumentation.NewMetrics(noop.NewMeterProvider().Meter("test"), false)
	require.NoError(t, err)
	sc.SetMetrics(metrics)

	expectedErr := errors.New("gateway down")
	wrapped := InstrumentedToolHandler("test_tool", sc, func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, expectedErr
	})

	_, err = wrapped(context.Background(), mcp.CallToolRequest{})
	assert.ErrorIs(t, err, expectedErr)

	wrapped = InstrumentedToolHandler("test_tool", sc, func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("bad input"), nil
	})
	result, err := wrapped(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestInstrumentedToolHandler_RegistersWithServer(t *testing.T) {
	sc := newServerContext(t)
	s := mcpserver.NewMCPServer("calmate", "test", mcpserver.WithToolCapabilities(true))

	var handler mcpserver.ToolHandlerFunc = InstrumentedToolHandler("echo", sc,
		func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("ok"), nil
		})
	s.AddTool(mcp.NewTool("echo"), handler)

	assert.Contains(t, s.ListTools(), "echo")
}

func TestInstrumentedToolHandler_LogsFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	sc := server.NewServerContext(context.Background(), nil, logger)
	t.Cleanup(func() { _ = sc.Shutdown() })

	wrapped := InstrumentedToolHandler("assistant_undo", sc, func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, errors.New("session store closed")
	})
	_, err := wrapped(context.Background(), mcp.CallToolRequest{})
	require.Error(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "tool handler failed", line["msg"])
	assert.Equal(t, "assistant_undo", line["tool"])
	assert.Equal(t, "session store closed", line["error"])
}

func TestInstrumentedToolHandler_AuditLog(t *testing.T) {
	sc := newServerContext(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	sc.SetAuditLogger(instrumentation.NewAuditLogger(logger, instrumentation.AuditLoggingConfig{Enabled: true}))

	wrapped := InstrumentedToolHandler("assistant_handle_intent", sc, func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		Annotate(ctx, "move", "suggestions")
		return mcp.NewToolResultText("ok"), nil
	})

	_, err := wrapped(context.Background(), requestWith(map[string]any{
		SessionArg: "3f2b8c1e-4d5a-4b6c-8d7e-9f0a1b2c3d4e",
	}))
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "tool_executed", line["msg"])
	assert.Equal(t, "assistant_handle_intent", line["tool"])
	assert.Equal(t, "3f2b8c1e", line["session"])
	assert.Equal(t, "move", line["action"])
	assert.Equal(t, "suggestions", line["result"])
}

func TestGetSessionFromArgs(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		args     map[string]any
		expected string
	}{
		{"no session", map[string]any{}, ""},
		{"nil args", nil, ""},
		{"explicit session", map[string]any{SessionArg: "work"}, "work"},
		{"empty session", map[string]any{SessionArg: ""}, ""},
		{"non-string session", map[string]any{SessionArg: 42}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetSessionFromArgs(ctx, tt.args))
		})
	}
}
