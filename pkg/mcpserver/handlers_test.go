package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ca65lsp/ca65lsp/pkg/engine"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.s"),
		[]byte(".export Shared\nShared: .res 1\n  inc Shared\nDead: .res 1\n"), 0o644))

	eng := engine.New([]string{dir}, nil, nil)
	require.NoError(t, eng.Init(context.Background(), nil))
	return New(eng)
}

func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

func mainURI(t *testing.T, s *Server) string {
	t.Helper()
	uris := s.engine.URIs()
	require.Len(t, uris, 1)
	return uris[0]
}

func TestHandleDefinitionFindsSymbol(t *testing.T) {
	s := testServer(t)
	uri := mainURI(t, s)

	result, err := s.handleDefinition(context.Background(), makeRequest(map[string]any{
		"uri": uri, "line": float64(2), "col": float64(6),
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), uri)
}

func TestHandleReferencesFindsUseSite(t *testing.T) {
	s := testServer(t)
	uri := mainURI(t, s)

	result, err := s.handleReferences(context.Background(), makeRequest(map[string]any{
		"uri": uri, "line": float64(1), "col": float64(0),
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), uri)
}

func TestHandleDocumentSymbolsListsSymbols(t *testing.T) {
	s := testServer(t)
	uri := mainURI(t, s)

	result, err := s.handleDocumentSymbols(context.Background(), makeRequest(map[string]any{"uri": uri}))
	require.NoError(t, err)
	text := resultText(t, result)
	assert.True(t, strings.Contains(text, "Shared"))
	assert.True(t, strings.Contains(text, "Dead"))
}

func TestHandleUnusedSymbolsFlagsDeadSymbol(t *testing.T) {
	s := testServer(t)
	uri := mainURI(t, s)

	result, err := s.handleUnusedSymbols(context.Background(), makeRequest(map[string]any{"uri": uri}))
	require.NoError(t, err)
	text := resultText(t, result)
	assert.True(t, strings.Contains(text, "Dead"))
	assert.False(t, strings.Contains(text, " Shared\n"))
}

func TestHandleDumpSymbolTablesListsEveryFile(t *testing.T) {
	s := testServer(t)
	uri := mainURI(t, s)

	result, err := s.handleDumpSymbolTables(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), uri)
}

func TestHandleDumpPerformanceStatsReportsCounters(t *testing.T) {
	s := testServer(t)

	result, err := s.handleDumpPerformanceStats(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "optimal_pool_size=")
}

func TestHandleDefinitionMissingArgReturnsToolError(t *testing.T) {
	s := testServer(t)

	result, err := s.handleDefinition(context.Background(), makeRequest(map[string]any{"line": float64(0), "col": float64(0)}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
