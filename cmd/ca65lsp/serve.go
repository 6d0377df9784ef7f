package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ca65lsp/ca65lsp/pkg/ca65util"
	"github.com/ca65lsp/ca65lsp/pkg/diagnostics"
	"github.com/ca65lsp/ca65lsp/pkg/engine"
	"github.com/ca65lsp/ca65lsp/pkg/mcpserver"
)

func runServe(args []string) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	settings, err := loadWorkspaceConfig(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load workspace config: %v\n", err)
		os.Exit(1)
	}

	logger := ca65util.NewLogger(ca65util.DefaultLoggerConfig())

	var runner diagnostics.Runner = diagnostics.NopRunner{}
	if settings.EnableStderrDiagnostics {
		runner = diagnostics.CA65Runner{}
	}

	eng := engine.New([]string{root}, runner, logger)
	eng.SetSettings("", settings)

	if err := eng.Init(context.Background(), settings.AdditionalExtensions); err != nil {
		fmt.Fprintf(os.Stderr, "initial scan failed: %v\n", err)
		os.Exit(1)
	}

	srv := mcpserver.New(eng)
	if err := srv.ServeStdio(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
