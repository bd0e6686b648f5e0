package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"kifu/internal/render"
	"kifu/internal/service"
	"kifu/pkg/kifu"
)

// ToolsHandler serves the KIF tools. Every tool takes the record text
// itself, so the handler keeps no state between calls.
type ToolsHandler struct {
	log        *zap.SugaredLogger
	display    render.Options
	middleware *Middleware
}

func NewToolsHandler(log *zap.SugaredLogger, display render.Options) *ToolsHandler {
	return &ToolsHandler{log: log, display: display}
}

// SetMiddleware sets the middleware for the tools handler.
func (h *ToolsHandler) SetMiddleware(middleware *Middleware) {
	h.middleware = middleware
}

func (h *ToolsHandler) wrap(name string, handler ToolHandler) ToolHandler {
	if h.middleware == nil {
		return handler
	}
	return h.middleware.WrapTool(name, handler)
}

// RegisterTools registers all tools with the MCP server.
func (h *ToolsHandler) RegisterTools(s *server.MCPServer) {
	parseTool := mcp.NewTool("parseKif",
		mcp.WithDescription("Parse a KIF shogi game record: header, players, result, variation lines and skipped lines"),
		mcp.WithString("kif",
			mcp.Description("KIF record text"),
			mcp.Required(),
		),
	)
	s.AddTool(parseTool, h.wrap("parseKif", h.HandleParseKif))

	positionTool := mcp.NewTool("positionAt",
		mcp.WithDescription("Replay a line of a KIF record and return the board, hands, SFEN and branches at that point"),
		mcp.WithString("kif",
			mcp.Description("KIF record text"),
			mcp.Required(),
		),
		mcp.WithNumber("line",
			mcp.Description("Variation line ID (default: 0, the main line)"),
		),
		mcp.WithNumber("moves",
			mcp.Description("Number of moves of the line to play (default: all)"),
		),
	)
	s.AddTool(positionTool, h.wrap("positionAt", h.HandlePositionAt))

	treeTool := mcp.NewTool("variationTree",
		mcp.WithDescription("Show the variation tree of a KIF record with the given cursor highlighted"),
		mcp.WithString("kif",
			mcp.Description("KIF record text"),
			mcp.Required(),
		),
		mcp.WithNumber("line",
			mcp.Description("Variation line ID of the cursor (default: 0)"),
		),
		mcp.WithNumber("moves",
			mcp.Description("Moves played on that line (default: 0)"),
		),
		mcp.WithBoolean("expandAll",
			mcp.Description("Unfold every variation instead of only the active one"),
		),
	)
	s.AddTool(treeTool, h.wrap("variationTree", h.HandleVariationTree))

	findTool := mcp.NewTool("findMove",
		mcp.WithDescription("Find the first line, depth first, that contains a move number and return the position after it"),
		mcp.WithString("kif",
			mcp.Description("KIF record text"),
			mcp.Required(),
		),
		mcp.WithNumber("moveNumber",
			mcp.Description("Move number to find"),
			mcp.Required(),
		),
	)
	s.AddTool(findTool, h.wrap("findMove", h.HandleFindMove))
}

// HandleParseKif handles the parseKif tool.
func (h *ToolsHandler) HandleParseKif(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rec, errResult := parseArgs(request)
	if errResult != nil {
		return errResult, nil
	}
	return jsonResult(service.Describe(rec))
}

// HandlePositionAt handles the positionAt tool.
func (h *ToolsHandler) HandlePositionAt(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rec, errResult := parseArgs(request)
	if errResult != nil {
		return errResult, nil
	}
	args := arguments(request)
	lineID, err := intArg(args, "line", 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	line, ok := rec.Line(lineID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("line %d does not exist; the record has %d lines", lineID, len(rec.Lines()))), nil
	}
	moves, err := intArg(args, "moves", len(line.Moves))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(service.DescribePosition(rec, line, moves, h.display))
}

// HandleVariationTree handles the variationTree tool.
func (h *ToolsHandler) HandleVariationTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rec, errResult := parseArgs(request)
	if errResult != nil {
		return errResult, nil
	}
	args := arguments(request)
	lineID, err := intArg(args, "line", 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	line, ok := rec.Line(lineID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("line %d does not exist; the record has %d lines", lineID, len(rec.Lines()))), nil
	}
	moves, err := intArg(args, "moves", 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	exp := render.Expansion{}
	if expand, _ := args["expandAll"].(bool); expand {
		for _, l := range rec.Lines() {
			exp[l.ID] = true
		}
	}
	tree := service.DescribeTree(rec, line, moves, exp)
	return mcp.NewToolResultText(tree.Text), nil
}

// HandleFindMove handles the findMove tool.
func (h *ToolsHandler) HandleFindMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rec, errResult := parseArgs(request)
	if errResult != nil {
		return errResult, nil
	}
	n, err := intArg(arguments(request), "moveNumber", 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	line, idx, ok := kifu.FindMoveNumber(rec.Root, n)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("move %d is not in any line", n)), nil
	}
	return jsonResult(service.DescribePosition(rec, line, idx+1, h.display))
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	return args
}

// parseArgs parses the required kif argument. A non-nil result is the error
// to return to the client.
func parseArgs(request mcp.CallToolRequest) (*kifu.Record, *mcp.CallToolResult) {
	text, ok := arguments(request)["kif"].(string)
	if !ok || text == "" {
		return nil, mcp.NewToolResultError("kif must be a non-empty string")
	}
	return kifu.Parse(text), nil
}

// intArg reads an integer argument. JSON numbers arrive as float64.
func intArg(args map[string]interface{}, name string, def int) (int, error) {
	val, ok := args[name]
	if !ok || val == nil {
		return def, nil
	}
	switch v := val.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number", name)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be a number", name)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
