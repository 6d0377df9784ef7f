package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ca65lsp/ca65lsp/pkg/filecache"
)

func TestScanPoolScansEverySubmittedFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.s")
	b := filepath.Join(dir, "b.s")
	require.NoError(t, os.WriteFile(a, []byte("Counter: .res 1\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("Other: .res 1\n"), 0o644))

	pool := newScanPool(2, filecache.New(), nil)
	pool.start()

	go func() {
		pool.submit(a)
		pool.submit(b)
		pool.finishSubmitting()
	}()

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		res := <-pool.Results()
		require.NoError(t, res.err)
		seen[res.uri] = true
	}
	pool.wait()

	assert.True(t, seen[a])
	assert.True(t, seen[b])
}

func TestScanPoolReportsReadErrors(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.s")

	pool := newScanPool(1, filecache.New(), nil)
	pool.start()

	go func() {
		pool.submit(missing)
		pool.finishSubmitting()
	}()

	res := <-pool.Results()
	assert.Error(t, res.err)
	pool.wait()
}
