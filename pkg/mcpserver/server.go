// Package mcpserver exposes the engine's query adapters and dump-*
// debug requests as MCP tools, grounded on the teacher's pkg/mcp
// server/tool/middleware split.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ca65lsp/ca65lsp/pkg/ca65util"
	"github.com/ca65lsp/ca65lsp/pkg/engine"
)

const serverVersion = "0.1.0-dev"

// Server implements the MCP server surface over a *engine.Engine: the
// query adapters (definition, references, hover, ...) plus the four
// dump-* debug requests (spec §6).
type Server struct {
	mcpServer *server.MCPServer
	engine    *engine.Engine
}

// New builds an MCP server backed by eng. Callers must have already
// run eng.Init: tool handlers query eng directly and do not wait on
// its gate.
func New(eng *engine.Engine) *Server {
	s := &Server{engine: eng}

	s.mcpServer = server.NewMCPServer("ca65lsp", serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: definitionTool(), Handler: s.handleDefinition},
		server.ServerTool{Tool: referencesTool(), Handler: s.handleReferences},
		server.ServerTool{Tool: hoverTool(), Handler: s.handleHover},
		server.ServerTool{Tool: documentSymbolsTool(), Handler: s.handleDocumentSymbols},
		server.ServerTool{Tool: workspaceSymbolsTool(), Handler: s.handleWorkspaceSymbols},
		server.ServerTool{Tool: unusedSymbolsTool(), Handler: s.handleUnusedSymbols},
		server.ServerTool{Tool: dumpSymbolTablesTool(), Handler: s.handleDumpSymbolTables},
		server.ServerTool{Tool: dumpIncludesGraphTool(), Handler: s.handleDumpIncludesGraph},
		server.ServerTool{Tool: dumpExportsMapTool(), Handler: s.handleDumpExportsMap},
		server.ServerTool{Tool: dumpPerformanceStatsTool(), Handler: s.handleDumpPerformanceStats},
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// optimalPoolSizeHint surfaces ca65util's pool-sizing choice in the
// dump-performance-stats payload, for operators tuning worker counts.
func optimalPoolSizeHint() int {
	return ca65util.OptimalPoolSize()
}
