package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/ca65lsp/ca65lsp/pkg/ca65util"
	"github.com/ca65lsp/ca65lsp/pkg/diagnostics"
	"github.com/ca65lsp/ca65lsp/pkg/engine"
)

func runScan(args []string) {
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
		fmt.Fprintf(os.Stderr, "scan failed: %v\n", err)
		os.Exit(1)
	}

	uris := eng.URIs()
	sort.Strings(uris)

	totalEntities := 0
	for _, uri := range uris {
		tbl, ok := eng.Table(uri)
		if !ok {
			continue
		}
		n := len(tbl.Entities())
		totalEntities += n
		fmt.Printf("%s: %d entities\n", uri, n)
	}
	fmt.Printf("\n%d files, %d entities\n", len(uris), totalEntities)
}
