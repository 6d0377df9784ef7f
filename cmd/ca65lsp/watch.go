package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ca65lsp/ca65lsp/pkg/ca65util"
	"github.com/ca65lsp/ca65lsp/pkg/diagnostics"
	"github.com/ca65lsp/ca65lsp/pkg/engine"
)

// runWatch scans root once, then watches it and reindexes changed
// files incrementally via Engine.HandleEdit/HandleDelete — the CLI
// side of the fs-watching spec.md deliberately places outside the
// core's HandleEdit(file, newText) contract.
func runWatch(args []string) {
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

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create watcher: %v\n", err)
		os.Exit(1)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to watch %s: %v\n", root, err)
		os.Exit(1)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	logger.Info("watching", "root", root)
	for {
		select {
		case <-stop:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			handleWatchEvent(eng, logger, ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Error("watch error", "error", err)
		}
	}
}

func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

func handleWatchEvent(eng *engine.Engine, logger interface {
	Warn(string, ...any)
	Debug(string, ...any)
}, ev fsnotify.Event) {
	switch {
	case ev.Op&(fsnotify.Write|fsnotify.Create) != 0:
		content, err := os.ReadFile(ev.Name)
		if err != nil {
			logger.Warn("failed to read changed file", "file", ev.Name, "error", err)
			return
		}
		eng.HandleEdit(ev.Name, string(content))
		logger.Debug("reindexed", "file", ev.Name, "at", time.Now())

	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		eng.HandleDelete(ev.Name)
		logger.Debug("removed", "file", ev.Name)
	}
}
