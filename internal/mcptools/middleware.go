package mcptools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"kifu/internal/metrics"
)

// ToolHandler is the function signature for MCP tool handlers.
type ToolHandler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Middleware logs tool calls and records their metrics.
type Middleware struct {
	log     *zap.SugaredLogger
	metrics *metrics.Collector
}

func NewMiddleware(log *zap.SugaredLogger, m *metrics.Collector) *Middleware {
	return &Middleware{log: log, metrics: m}
}

// WrapTool wraps a tool handler with logging and metrics.
func (m *Middleware) WrapTool(toolName string, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		m.log.Debugw("tool request received", "tool", toolName)

		result, err := handler(ctx, request)

		status := "success"
		switch {
		case err != nil:
			status = "error"
			m.log.Errorw("tool request failed", "tool", toolName, "error", err, "duration", time.Since(start))
		case result != nil && result.IsError:
			status = "tool_error"
			m.log.Infow("tool request rejected", "tool", toolName, "duration", time.Since(start))
		default:
			m.log.Debugw("tool request completed", "tool", toolName, "duration", time.Since(start))
		}
		if m.metrics != nil {
			m.metrics.RecordToolCall(toolName, status, time.Since(start))
		}
		return result, err
	}
}
