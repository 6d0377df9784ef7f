package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	s := Default()
	assert.Equal(t, "cl65", s.ExecutablePath)
	assert.True(t, s.EnableStderrDiagnostics)
	assert.False(t, s.EnableUnusedSymbolDiagnostics)
	assert.ElementsMatch(t, []string{".inc", ".s", ".asm"}, s.AutoIncludeExtensions)
}

func TestLoadOverlaysOntoDefaults(t *testing.T) {
	data := []byte(`
executable-path: /usr/local/bin/cl65
include-dirs:
  - vendor/inc
enable-unused-symbol-diagnostics: true
`)
	s, err := Load(data)
	require.NoError(t, err)

	assert.Equal(t, "/usr/local/bin/cl65", s.ExecutablePath)
	assert.Equal(t, []string{"vendor/inc"}, s.IncludeDirs)
	assert.True(t, s.EnableUnusedSymbolDiagnostics)
	// Unset keys keep their Default() value.
	assert.True(t, s.AnonymousLabelIndexHints)
}

func TestLoadEmptyDataReturnsDefaults(t *testing.T) {
	s, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoadInvalidYAMLErrors(t *testing.T) {
	_, err := Load([]byte("executable-path: [unterminated"))
	assert.Error(t, err)
}

func TestCacheGetSetClear(t *testing.T) {
	c := NewCache()

	_, ok := c.Get("main.s")
	assert.False(t, ok)

	c.Set("main.s", Default())
	got, ok := c.Get("main.s")
	require.True(t, ok)
	assert.Equal(t, Default(), got)

	c.Clear()
	_, ok = c.Get("main.s")
	assert.False(t, ok)
}
