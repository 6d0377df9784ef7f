package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

func definitionTool() mcp.Tool {
	return mcp.NewTool("definition",
		mcp.WithDescription("Resolve the symbol at a file position to its definition location"),
		mcp.WithString("uri", mcp.Required(), mcp.Description("Source file URI")),
		mcp.WithNumber("line", mcp.Required(), mcp.Description("0-based line")),
		mcp.WithNumber("col", mcp.Required(), mcp.Description("0-based column")),
	)
}

func referencesTool() mcp.Tool {
	return mcp.NewTool("references",
		mcp.WithDescription("List every reference resolving to the symbol at a file position"),
		mcp.WithString("uri", mcp.Required(), mcp.Description("Source file URI")),
		mcp.WithNumber("line", mcp.Required(), mcp.Description("0-based line")),
		mcp.WithNumber("col", mcp.Required(), mcp.Description("0-based column")),
	)
}

func hoverTool() mcp.Tool {
	return mcp.NewTool("hover",
		mcp.WithDescription("Reconstruct the definition block and leading comments for a symbol"),
		mcp.WithString("uri", mcp.Required(), mcp.Description("Source file URI")),
		mcp.WithNumber("line", mcp.Required(), mcp.Description("0-based line")),
		mcp.WithNumber("col", mcp.Required(), mcp.Description("0-based column")),
	)
}

func documentSymbolsTool() mcp.Tool {
	return mcp.NewTool("document_symbols",
		mcp.WithDescription("Outline a file's scope tree"),
		mcp.WithString("uri", mcp.Required(), mcp.Description("Source file URI")),
	)
}

func workspaceSymbolsTool() mcp.Tool {
	return mcp.NewTool("workspace_symbols",
		mcp.WithDescription("Search every file's entities by substring"),
		mcp.WithString("query", mcp.Description("Substring filter; empty matches everything")),
	)
}

func unusedSymbolsTool() mcp.Tool {
	return mcp.NewTool("unused_symbols",
		mcp.WithDescription("List defined entities with no reference beyond their own definition"),
		mcp.WithString("uri", mcp.Required(), mcp.Description("Source file URI")),
	)
}

func dumpSymbolTablesTool() mcp.Tool {
	return mcp.NewTool("dump-symbol-tables",
		mcp.WithDescription("Dump every workspace file's entity count, for debugging"),
	)
}

func dumpIncludesGraphTool() mcp.Tool {
	return mcp.NewTool("dump-includes-graph",
		mcp.WithDescription("Dump the includes graph's edges, for debugging"),
	)
}

func dumpExportsMapTool() mcp.Tool {
	return mcp.NewTool("dump-exports-map",
		mcp.WithDescription("Dump the workspace exports map, for debugging"),
	)
}

func dumpPerformanceStatsTool() mcp.Tool {
	return mcp.NewTool("dump-performance-stats",
		mcp.WithDescription("Dump file-cache and worker-pool statistics, for debugging"),
	)
}
