package mcpserver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ca65lsp/ca65lsp/pkg/model"
)

func posArgs(req mcp.CallToolRequest) (string, model.Pos, error) {
	uri, err := req.RequireString("uri")
	if err != nil {
		return "", model.Pos{}, err
	}
	line, err := req.RequireFloat("line")
	if err != nil {
		return "", model.Pos{}, err
	}
	col, err := req.RequireFloat("col")
	if err != nil {
		return "", model.Pos{}, err
	}
	return uri, model.Pos{Line: int(line), Col: uint32(col)}, nil
}

func (s *Server) handleDefinition(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uri, pos, err := posArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	loc, ok := s.engine.Query().Definition(uri, pos)
	if !ok {
		return mcp.NewToolResultText("no definition found"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s:%d:%d", loc.URI, loc.Span.Start.Line, loc.Span.Start.Col)), nil
}

func (s *Server) handleReferences(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uri, pos, err := posArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	locs, ok := s.engine.Query().References(uri, pos)
	if !ok {
		return mcp.NewToolResultText("no references found"), nil
	}
	var b strings.Builder
	for _, l := range locs {
		fmt.Fprintf(&b, "%s:%d:%d\n", l.URI, l.Span.Start.Line, l.Span.Start.Col)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleHover(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uri, pos, err := posArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, ok := s.engine.Query().Hover(uri, pos)
	if !ok {
		return mcp.NewToolResultText(""), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleDocumentSymbols(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uri, err := req.RequireString("uri")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	syms := s.engine.Query().DocumentSymbols(uri)
	var b strings.Builder
	for _, sym := range syms {
		fmt.Fprintf(&b, "%s %s:%d\n", sym.Kind, sym.Name, sym.Span.Start.Line)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleWorkspaceSymbols(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	syms := s.engine.Query().WorkspaceSymbols(query)
	var b strings.Builder
	for _, sym := range syms {
		fmt.Fprintf(&b, "%s %s %s:%d\n", sym.Kind, sym.Name, sym.URI, sym.Span.Start.Line)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleUnusedSymbols(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uri, err := req.RequireString("uri")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	unused := s.engine.Query().UnusedSymbols(uri)
	var b strings.Builder
	for _, u := range unused {
		fmt.Fprintf(&b, "%s:%d %s\n", uri, u.Span.Start.Line, u.Name)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleDumpSymbolTables(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uris := s.engine.URIs()
	sort.Strings(uris)
	var b strings.Builder
	for _, uri := range uris {
		tbl, ok := s.engine.Table(uri)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s: %d entities\n", uri, len(tbl.Entities()))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleDumpIncludesGraph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uris := s.engine.URIs()
	sort.Strings(uris)
	var b strings.Builder
	for _, uri := range uris {
		fmt.Fprintf(&b, "%s -> %v\n", uri, s.engine.Query().Graph.Includes(uri))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleDumpExportsMap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	syms := s.engine.Query().WorkspaceSymbols("")
	var b strings.Builder
	for _, sym := range syms {
		if sym.Kind != "export" && sym.Kind != "global" {
			continue
		}
		fmt.Fprintf(&b, "%s (%s) %s:%d\n", sym.Name, sym.Kind, sym.URI, sym.Span.Start.Line)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleDumpPerformanceStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := s.engine.Query().Files.Stats()
	return mcp.NewToolResultText(fmt.Sprintf(
		"cache_hits=%d cache_misses=%d mmap_failures=%d optimal_pool_size=%d",
		stats.Hits, stats.Misses, stats.MmapFailures, optimalPoolSizeHint(),
	)), nil
}
