package main

import (
	"os"
	"path/filepath"

	"github.com/ca65lsp/ca65lsp/pkg/config"
)

// loadWorkspaceConfig reads "ca65lsp.yaml" from root, if present, and
// overlays it onto config.Default(). Absence of the file is not an
// error — root workspaces need no configuration to scan.
func loadWorkspaceConfig(root string) (config.Settings, error) {
	data, err := os.ReadFile(filepath.Join(root, "ca65lsp.yaml"))
	if os.IsNotExist(err) {
		return config.Default(), nil
	}
	if err != nil {
		return config.Settings{}, err
	}
	return config.Load(data)
}
