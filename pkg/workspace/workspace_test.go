package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestDiscoverFiltersByExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.s"), "")
	writeFile(t, filepath.Join(root, "README.md"), "")
	writeFile(t, filepath.Join(root, "lib", "header.inc"), "")

	files, rootOf, err := Discover([]string{root}, nil)
	require.NoError(t, err)

	assert.Len(t, files, 2)
	for _, f := range files {
		assert.Equal(t, root, rootOf[f])
	}
}

func TestDiscoverAssignsDeepestRoot(t *testing.T) {
	outer := t.TempDir()
	inner := filepath.Join(outer, "vendor")
	writeFile(t, filepath.Join(inner, "lib.s"), "")

	files, rootOf, err := Discover([]string{outer, inner}, nil)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, inner, rootOf[files[0]])
}

func TestResolveIncludeRelativeToContainingFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "header.inc"), "")
	main := filepath.Join(root, "main.s")

	resolved, ok := ResolveInclude(main, "header.inc", root, nil, nil, false, nil)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "header.inc"), resolved)
}

func TestResolveIncludePrefersKnownSourceOverStat(t *testing.T) {
	root := t.TempDir()
	main := filepath.Join(root, "main.s")
	known := filepath.Join(root, "header.inc")

	resolved, ok := ResolveInclude(main, "header.inc", root, nil, nil, false,
		map[string]struct{}{known: {}})
	require.True(t, ok)
	assert.Equal(t, known, resolved)
}

func TestResolveIncludeSearchesIncludeDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "inc", "zeropage.inc"), "")
	main := filepath.Join(root, "src", "main.s")

	resolved, ok := ResolveInclude(main, "zeropage.inc", root, []string{"inc"}, nil, false, nil)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "inc", "zeropage.inc"), resolved)
}

func TestResolveIncludeNotFound(t *testing.T) {
	root := t.TempDir()
	main := filepath.Join(root, "main.s")

	_, ok := ResolveInclude(main, "missing.inc", root, nil, nil, false, nil)
	assert.False(t, ok)
}
