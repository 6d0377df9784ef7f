// Package filecache provides memory-mapped, byte-offset access to
// workspace source files. Spans recorded by pkg/scanner are byte
// offsets into a line; the engine's initial scan and hover (pkg/query)
// read source lines through this cache, so a file is read or mapped
// once rather than on every request.
package filecache

import (
	"fmt"
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"
)

// Cache maps file paths to their memory-mapped contents. Safe for
// concurrent use: reads take the read lock, loads take the write lock
// with double-check.
type Cache struct {
	mu       sync.RWMutex
	mapped   map[string]*mappedFile
	fallback map[string][]byte

	stats   Stats
	statsMu sync.Mutex
}

type mappedFile struct {
	data mmap.MMap
	file *os.File
}

// Stats tracks cache effectiveness for dump-performance-stats.
type Stats struct {
	Hits         int64
	Misses       int64
	MmapFailures int64
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{
		mapped:   make(map[string]*mappedFile),
		fallback: make(map[string][]byte),
	}
}

// Lines returns path's content as a lazily-loaded slice of lines
// (without trailing newlines), for the scanner's initial pass.
func (c *Cache) Lines(path string) ([]string, error) {
	data, err := c.bytes(path)
	if err != nil {
		return nil, err
	}
	return splitLines(data), nil
}

// FetchText slices path's content between two byte offsets on a
// single line. startByte and endByte are offsets into the full file,
// not just the line — callers compute them from a model.Span plus a
// precomputed line-start table such as the one LineOffsets returns.
func (c *Cache) FetchText(path string, startByte, endByte uint32) (string, error) {
	data, err := c.bytes(path)
	if err != nil {
		return "", err
	}
	if endByte > uint32(len(data)) || startByte > endByte {
		return "", fmt.Errorf("filecache: invalid range [%d,%d) for %q (size %d)", startByte, endByte, path, len(data))
	}
	return string(data[startByte:endByte]), nil
}

// LineOffsets returns the byte offset of the start of each line in
// path, so callers can convert a model.Pos (line, column) into an
// absolute byte offset for FetchText.
func (c *Cache) LineOffsets(path string) ([]uint32, error) {
	data, err := c.bytes(path)
	if err != nil {
		return nil, err
	}
	offsets := []uint32{0}
	for i, b := range data {
		if b == '\n' {
			offsets = append(offsets, uint32(i+1))
		}
	}
	return offsets, nil
}

func (c *Cache) bytes(path string) ([]byte, error) {
	c.mu.RLock()
	if mf, ok := c.mapped[path]; ok {
		c.mu.RUnlock()
		c.recordHit()
		return mf.data, nil
	}
	if data, ok := c.fallback[path]; ok {
		c.mu.RUnlock()
		c.recordHit()
		return data, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if mf, ok := c.mapped[path]; ok {
		c.recordHit()
		return mf.data, nil
	}
	if data, ok := c.fallback[path]; ok {
		c.recordHit()
		return data, nil
	}

	c.recordMiss()
	return c.load(path)
}

func (c *Cache) load(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("filecache: open %q: %w", path, err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("filecache: stat %q: %w", path, err)
	}
	if stat.Size() == 0 {
		f.Close()
		c.fallback[path] = nil
		return nil, nil
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		c.recordMmapFailure()
		f.Close()
		raw, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, fmt.Errorf("filecache: mmap and read both failed for %q: %w", path, readErr)
		}
		c.fallback[path] = raw
		return raw, nil
	}

	c.mapped[path] = &mappedFile{data: data, file: f}
	return data, nil
}

// Invalidate drops any cached mapping for path, forcing the next
// access to re-read the file. pkg/engine calls this on every rescan.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if mf, ok := c.mapped[path]; ok {
		mf.data.Unmap()
		mf.file.Close()
		delete(c.mapped, path)
	}
	delete(c.fallback, path)
}

// Close unmaps every cached file.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var firstErr error
	for path, mf := range c.mapped {
		if err := mf.data.Unmap(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("filecache: unmap %q: %w", path, err)
		}
		mf.file.Close()
	}
	c.mapped = make(map[string]*mappedFile)
	c.fallback = make(map[string][]byte)
	return firstErr
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

func (c *Cache) recordHit()         { c.statsMu.Lock(); c.stats.Hits++; c.statsMu.Unlock() }
func (c *Cache) recordMiss()        { c.statsMu.Lock(); c.stats.Misses++; c.statsMu.Unlock() }
func (c *Cache) recordMmapFailure() { c.statsMu.Lock(); c.stats.MmapFailures++; c.statsMu.Unlock() }

func splitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	var lines []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			end := i
			if end > start && data[end-1] == '\r' {
				end--
			}
			lines = append(lines, string(data[start:end]))
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, string(data[start:]))
	}
	return lines
}
