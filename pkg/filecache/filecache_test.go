package filecache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLinesSplitsOnLF(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.s", "Start:\n  lda #1\n  rts\n")

	c := New()
	lines, err := c.Lines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Start:", "  lda #1", "  rts"}, lines)
}

func TestLinesStripsCR(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.s", "Start:\r\n  rts\r\n")

	c := New()
	lines, err := c.Lines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Start:", "  rts"}, lines)
}

func TestLinesEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "empty.s", "")

	c := New()
	lines, err := c.Lines(path)
	require.NoError(t, err)
	assert.Nil(t, lines)
}

func TestFetchTextSlicesByOffset(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.s", "Start: lda #1\n")

	c := New()
	text, err := c.FetchText(path, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, "Start", text)
}

func TestFetchTextRejectsOutOfRange(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.s", "short\n")

	c := New()
	_, err := c.FetchText(path, 0, 100)
	assert.Error(t, err)
}

func TestLineOffsets(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.s", "ab\ncd\n")

	c := New()
	offsets, err := c.LineOffsets(path)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 3, 6}, offsets)
}

func TestCacheHitAfterFirstLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.s", "Start:\n")

	c := New()
	_, err := c.Lines(path)
	require.NoError(t, err)
	_, err = c.Lines(path)
	require.NoError(t, err)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Hits)
}

func TestInvalidateForcesReload(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.s", "Start:\n")

	c := New()
	_, err := c.Lines(path)
	require.NoError(t, err)

	c.Invalidate(path)
	require.NoError(t, os.WriteFile(path, []byte("Changed:\n"), 0644))

	lines, err := c.Lines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Changed:"}, lines)
}
