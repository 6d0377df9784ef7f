package query

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ca65lsp/ca65lsp/pkg/exports"
	"github.com/ca65lsp/ca65lsp/pkg/filecache"
	"github.com/ca65lsp/ca65lsp/pkg/includegraph"
	"github.com/ca65lsp/ca65lsp/pkg/model"
	"github.com/ca65lsp/ca65lsp/pkg/resolver"
	"github.com/ca65lsp/ca65lsp/pkg/scanner"
	"github.com/ca65lsp/ca65lsp/pkg/symtab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWorkspace backs query.Service in tests with an in-memory table
// map, mirroring pkg/resolver's own fakeTables fixture.
type fakeWorkspace struct {
	m map[string]*symtab.Table
}

func (f *fakeWorkspace) Table(uri string) (*symtab.Table, bool) {
	t, ok := f.m[uri]
	return t, ok
}

func (f *fakeWorkspace) URIs() []string {
	out := make([]string, 0, len(f.m))
	for uri := range f.m {
		out = append(out, uri)
	}
	return out
}

// writeSource writes lines to a temp file and scans it, so spans
// recorded against the table line up with a file filecache.Cache can
// actually read (needed for Hover's leading-comment lookback).
func writeSource(t *testing.T, dir, name string, lines []string) (uri string, tbl *symtab.Table) {
	t.Helper()
	uri = filepath.Join(dir, name)
	content := ""
	for i, l := range lines {
		if i > 0 {
			content += "\n"
		}
		content += l
	}
	require.NoError(t, os.WriteFile(uri, []byte(content), 0o644))
	return uri, scanner.Scan(uri, lines)
}

func newService(t *testing.T, tables map[string]*symtab.Table, graph *includegraph.Graph, implicitImports bool) *Service {
	t.Helper()
	ws := &fakeWorkspace{m: tables}
	if graph == nil {
		graph = includegraph.New()
	}
	exp := exports.New()
	for uri, tbl := range tables {
		var entries []exports.Entry
		for _, e := range tbl.Entities() {
			if e.Kind != model.EntityExport {
				continue
			}
			entries = append(entries, exports.Entry{Name: e.Name, File: uri, Entity: e.ID, EnclosingScope: e.Scope})
		}
		exp.UpdateExports(uri, entries)
	}
	res := resolver.New(ws, graph, exp)
	return New(ws, graph, exp, res, filecache.New(), implicitImports)
}

func TestDefinitionResolvesToSymbolDefSpan(t *testing.T) {
	dir := t.TempDir()
	lines := []string{
		"Counter: .res 1",
		"  inc Counter",
	}
	uri, tbl := writeSource(t, dir, "main.s", lines)

	svc := newService(t, map[string]*symtab.Table{uri: tbl}, nil, false)

	ref, ok := tbl.FindReferenceAt(model.Pos{Line: 1, Col: 6})
	require.True(t, ok)
	assert.Equal(t, "Counter", ref.Name)

	loc, ok := svc.Definition(uri, model.Pos{Line: 1, Col: 6})
	require.True(t, ok)
	assert.Equal(t, uri, loc.URI)
	assert.Equal(t, 0, loc.Span.Start.Line)
}

func TestReferencesCrossFileThroughExport(t *testing.T) {
	dir := t.TempDir()
	libLines := []string{
		".export Shared",
		"Shared: .res 1",
	}
	libURI, lib := writeSource(t, dir, "lib.s", libLines)

	mainLines := []string{
		".import Shared",
		"  inc Shared",
	}
	mainURI, main := writeSource(t, dir, "main.s", mainLines)

	graph := includegraph.New()
	graph.UpdateIncludes(mainURI, []string{libURI})

	svc := newService(t, map[string]*symtab.Table{libURI: lib, mainURI: main}, graph, false)

	locs, ok := svc.References(libURI, model.Pos{Line: 1, Col: 0})
	require.True(t, ok)

	var sawMain bool
	for _, l := range locs {
		if l.URI == mainURI {
			sawMain = true
		}
	}
	assert.True(t, sawMain)
}

func TestHoverIncludesLeadingComment(t *testing.T) {
	dir := t.TempDir()
	lines := []string{
		"; increments the frame counter",
		"Counter: .res 1",
		"  inc Counter",
	}
	uri, tbl := writeSource(t, dir, "main.s", lines)

	svc := newService(t, map[string]*symtab.Table{uri: tbl}, nil, false)

	text, ok := svc.Hover(uri, model.Pos{Line: 2, Col: 6})
	require.True(t, ok)
	assert.Contains(t, text, "increments the frame counter")
	assert.Contains(t, text, "Counter")
}

func TestDocumentSymbolsNestsProcUnderRoot(t *testing.T) {
	dir := t.TempDir()
	lines := []string{
		".proc Routine",
		"  rts",
		".endproc",
	}
	uri, tbl := writeSource(t, dir, "main.s", lines)

	svc := newService(t, map[string]*symtab.Table{uri: tbl}, nil, false)

	syms := svc.DocumentSymbols(uri)
	require.Len(t, syms, 1)
	assert.Equal(t, "Routine", syms[0].Name)
	assert.Equal(t, "proc", syms[0].Kind)
}

func TestWorkspaceSymbolsSearchesEveryFile(t *testing.T) {
	dir := t.TempDir()
	uri1, tbl1 := writeSource(t, dir, "a.s", []string{"Counter: .res 1"})
	uri2, tbl2 := writeSource(t, dir, "b.s", []string{"OtherCounter: .res 1"})

	svc := newService(t, map[string]*symtab.Table{uri1: tbl1, uri2: tbl2}, nil, false)

	syms := svc.WorkspaceSymbols("Counter")
	assert.Len(t, syms, 2)

	none := svc.WorkspaceSymbols("NoSuchName")
	assert.Empty(t, none)
}

func TestUnusedSymbolsFlagsNeverReferenced(t *testing.T) {
	dir := t.TempDir()
	lines := []string{
		"Used: .res 1",
		"Dead: .res 1",
		"  inc Used",
	}
	uri, tbl := writeSource(t, dir, "main.s", lines)

	svc := newService(t, map[string]*symtab.Table{uri: tbl}, nil, false)

	unused := svc.UnusedSymbols(uri)
	require.Len(t, unused, 1)
	assert.Equal(t, "Dead", unused[0].Name)
}

func TestReferencesIncludesProcDeclarationAndCallSite(t *testing.T) {
	dir := t.TempDir()
	lines := []string{
		".proc foo",
		"  rts",
		".endproc",
		"  jsr foo",
	}
	uri, tbl := writeSource(t, dir, "main.s", lines)

	svc := newService(t, map[string]*symtab.Table{uri: tbl}, nil, false)

	locs, ok := svc.References(uri, model.Pos{Line: 3, Col: 6})
	require.True(t, ok)
	assert.Len(t, locs, 2)

	var sawDecl bool
	for _, l := range locs {
		if l.Span.Start.Line == 0 {
			sawDecl = true
		}
	}
	assert.True(t, sawDecl, "expected the .proc keyword's own name token among the locations")
}

func TestReferencesIncludesExportSiteProcAndCallSite(t *testing.T) {
	dir := t.TempDir()
	lines := []string{
		".export bar",
		".proc bar",
		"  rts",
		".endproc",
		"  jsr bar",
	}
	uri, tbl := writeSource(t, dir, "main.s", lines)

	svc := newService(t, map[string]*symtab.Table{uri: tbl}, nil, false)

	locs, ok := svc.References(uri, model.Pos{Line: 4, Col: 6})
	require.True(t, ok)
	assert.Len(t, locs, 3)

	seenLines := map[int]bool{}
	for _, l := range locs {
		seenLines[l.Span.Start.Line] = true
	}
	assert.True(t, seenLines[0], "export site")
	assert.True(t, seenLines[1], "proc keyword")
	assert.True(t, seenLines[4], "call site")
}

func TestRenameEditsProcDeclarationAndCallSite(t *testing.T) {
	dir := t.TempDir()
	lines := []string{
		".proc foo",
		"  rts",
		".endproc",
		"  jsr foo",
	}
	uri, tbl := writeSource(t, dir, "main.s", lines)

	svc := newService(t, map[string]*symtab.Table{uri: tbl}, nil, false)

	edits, ok := svc.Rename(uri, model.Pos{Line: 3, Col: 6}, "baz")
	require.True(t, ok)
	require.Contains(t, edits, uri)
	assert.Len(t, edits[uri], 2)

	var sawDecl bool
	for _, e := range edits[uri] {
		if e.Span.Start.Line == 0 {
			sawDecl = true
			assert.Equal(t, "baz", e.NewText)
		}
	}
	assert.True(t, sawDecl, "expected an edit at the .proc declaration's own name token")
}

func TestDocumentHighlightsRestrictedToRequestingFile(t *testing.T) {
	dir := t.TempDir()
	lines := []string{
		"Counter: .res 1",
		"  inc Counter",
		"  inc Counter",
	}
	uri, tbl := writeSource(t, dir, "main.s", lines)

	svc := newService(t, map[string]*symtab.Table{uri: tbl}, nil, false)

	spans, ok := svc.DocumentHighlights(uri, model.Pos{Line: 1, Col: 6})
	require.True(t, ok)
	// The declaration's own name token counts as a location too, same
	// as the two "inc Counter" use sites.
	assert.Len(t, spans, 3)
}
