// Package config models the per-document settings the engine and its
// external collaborators observe, plus workspace-level YAML defaults.
package config

import "gopkg.in/yaml.v3"

// Settings is the full per-document settings list from spec §6. A
// zero Settings is valid but is not the default configuration:
// Default() supplies the defaults (cl65 as the executable, stderr
// diagnostics and both inlay-hint kinds on).
type Settings struct {
	ExecutablePath                string   `yaml:"executable-path"`
	EnableStderrDiagnostics       bool     `yaml:"enable-stderr-diagnostics"`
	EnableUnusedSymbolDiagnostics bool     `yaml:"enable-unused-symbol-diagnostics"`
	IncludeDirs                   []string `yaml:"include-dirs"`
	BinIncludeDirs                []string `yaml:"bin-include-dirs"`
	AutoIncludeExtensions         []string `yaml:"auto-include-extensions"`
	AdditionalExtensions          []string `yaml:"additional-extensions"`
	AnonymousLabelIndexHints      bool     `yaml:"anonymous-label-index-hints"`
	ImportFromHints               bool     `yaml:"import-from-hints"`
	SmartFolding                  bool     `yaml:"smart-folding"`
	ImplicitImports               bool     `yaml:"implicit-imports"`
}

// Default returns the settings a document observes absent any
// workspace or client configuration.
func Default() Settings {
	return Settings{
		ExecutablePath:           "cl65",
		EnableStderrDiagnostics:  true,
		AutoIncludeExtensions:    []string{".inc", ".s", ".asm"},
		AnonymousLabelIndexHints: true,
		ImportFromHints:          true,
	}
}

// Load parses workspace-level defaults from a YAML document (e.g. a
// `ca65lsp.yaml` at the workspace root), overlaying them onto
// Default(). Missing keys keep their Default() value.
func Load(data []byte) (Settings, error) {
	s := Default()
	if len(data) == 0 {
		return s, nil
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Cache holds the most recently observed Settings per document URI,
// cleared wholesale on a configuration-change notification (spec
// §4.10's "clear per-document settings cache" step).
type Cache struct {
	byURI map[string]Settings
}

// NewCache returns an empty settings cache.
func NewCache() *Cache {
	return &Cache{byURI: make(map[string]Settings)}
}

// Get returns uri's cached settings, or ok=false if never set.
func (c *Cache) Get(uri string) (Settings, bool) {
	s, ok := c.byURI[uri]
	return s, ok
}

// Set records uri's settings.
func (c *Cache) Set(uri string, s Settings) {
	c.byURI[uri] = s
}

// Clear discards every cached entry.
func (c *Cache) Clear() {
	c.byURI = make(map[string]Settings)
}
