package mcptools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kifu/internal/metrics"
	"kifu/internal/render"
	"kifu/internal/service"
	"kifu/pkg/kifu"
)

const testKIF = `先手：Alice
後手：Bob
   1 ７六歩(77)
   2 ３四歩(33)
   3 ２二角成(88)
   4 同　銀(31)
   5 投了

変化：3手
   3 ２六歩(27)
`

func newHandler() *ToolsHandler {
	h := NewToolsHandler(zap.NewNop().Sugar(), render.DefaultOptions())
	h.SetMiddleware(NewMiddleware(zap.NewNop().Sugar(), metrics.NewCollector()))
	return h
}

func call(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestRegisterTools(t *testing.T) {
	s := server.NewMCPServer("kifu-test", "1.0.0")
	h := newHandler()
	assert.NotPanics(t, func() { h.RegisterTools(s) })
}

func TestHandleParseKif(t *testing.T) {
	h := newHandler()
	result, err := h.HandleParseKif(context.Background(), call("parseKif", map[string]interface{}{"kif": testKIF}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var summary service.RecordSummary
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &summary))
	assert.Equal(t, 4, summary.Moves)
	assert.Equal(t, 2, summary.Lines)
	assert.Equal(t, "Alice", summary.Sente.Name)
	assert.Equal(t, kifu.OutcomeGoteWin, summary.Outcome)
	require.Len(t, summary.Variations, 1)
	assert.Equal(t, 3, summary.Variations[0].StartMoveNumber)
}

func TestHandleParseKifMissingText(t *testing.T) {
	h := newHandler()
	result, err := h.HandleParseKif(context.Background(), call("parseKif", map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "kif")
}

func TestHandlePositionAt(t *testing.T) {
	h := newHandler()
	tests := []struct {
		name    string
		args    map[string]interface{}
		index   int
		sfen    string
		wantErr string
	}{
		{
			name:  "main line end by default",
			args:  map[string]interface{}{"kif": testKIF},
			index: 4,
			sfen:  "lnsgkg1nl/1r5s1/pppppp1pp/6p2/9/2P6/PP1PPPPPP/7R1/LNSGKGSNL b Bb 5",
		},
		{
			name:  "variation start",
			args:  map[string]interface{}{"kif": testKIF, "line": float64(1), "moves": float64(1)},
			index: 1,
			sfen:  "lnsgkgsnl/1r5b1/pppppp1pp/6p2/9/2P4P1/PP1PPPP1P/1B5R1/LNSGKGSNL w - 4",
		},
		{
			name:    "unknown line",
			args:    map[string]interface{}{"kif": testKIF, "line": float64(7)},
			wantErr: "line 7 does not exist",
		},
		{
			name:    "bad moves",
			args:    map[string]interface{}{"kif": testKIF, "moves": true},
			wantErr: "moves must be a number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandlePositionAt(context.Background(), call("positionAt", tt.args))
			require.NoError(t, err)
			text := resultText(t, result)
			if tt.wantErr != "" {
				assert.True(t, result.IsError)
				assert.Contains(t, text, tt.wantErr)
				return
			}
			var view service.PositionView
			require.NoError(t, json.Unmarshal([]byte(text), &view))
			assert.Equal(t, tt.index, view.Index)
			assert.Equal(t, tt.sfen, view.SFEN)
		})
	}
}

func TestHandleVariationTree(t *testing.T) {
	h := newHandler()

	result, err := h.HandleVariationTree(context.Background(), call("variationTree", map[string]interface{}{"kif": testKIF}))
	require.NoError(t, err)
	folded := resultText(t, result)
	assert.Contains(t, folded, "[変化 1]")
	assert.NotContains(t, folded, "▲２六歩(27)\n")

	result, err = h.HandleVariationTree(context.Background(), call("variationTree", map[string]interface{}{
		"kif":       testKIF,
		"expandAll": true,
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "▲２六歩(27)")
}

func TestHandleFindMove(t *testing.T) {
	h := newHandler()

	result, err := h.HandleFindMove(context.Background(), call("findMove", map[string]interface{}{
		"kif":        testKIF,
		"moveNumber": float64(2),
	}))
	require.NoError(t, err)
	var view service.PositionView
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &view))
	assert.Equal(t, 0, view.LineID)
	assert.Equal(t, 2, view.Index)
	require.NotNil(t, view.Move)
	assert.Equal(t, "△３四歩(33)", view.Move.Label)

	result, err = h.HandleFindMove(context.Background(), call("findMove", map[string]interface{}{
		"kif":        testKIF,
		"moveNumber": float64(30),
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "move 30")
}

func TestIntArg(t *testing.T) {
	args := map[string]interface{}{"a": float64(3), "b": "12", "c": "x", "d": nil}

	n, err := intArg(args, "a", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = intArg(args, "b", 0)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = intArg(args, "c", 0)
	assert.Error(t, err)

	n, err = intArg(args, "d", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = intArg(args, "missing", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}
