package resolver

import (
	"testing"

	"github.com/ca65lsp/ca65lsp/pkg/exports"
	"github.com/ca65lsp/ca65lsp/pkg/includegraph"
	"github.com/ca65lsp/ca65lsp/pkg/model"
	"github.com/ca65lsp/ca65lsp/pkg/symtab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTables struct {
	m map[string]*symtab.Table
}

func (f *fakeTables) Table(uri string) (*symtab.Table, bool) {
	t, ok := f.m[uri]
	return t, ok
}

func TestResolveLocalSymbolInSameScope(t *testing.T) {
	main := symtab.New("main.s")
	sym := main.AddSymbol(main.Root(), "Counter", model.SymbolKindLabel, model.Span{}, "CODE")

	tables := &fakeTables{m: map[string]*symtab.Table{"main.s": main}}
	r := New(tables, includegraph.New(), exports.New())

	ref := model.Reference{File: "main.s", Name: "Counter", Context: model.RefContextSymbol, EnclosingScope: main.Root()}
	got, ok := r.Resolve(ref, true)
	require.True(t, ok)
	assert.Equal(t, sym, got)
}

func TestResolveImportFallsBackToWorkspaceExport(t *testing.T) {
	main := symtab.New("main.s")
	main.AddImport(main.Root(), "Shared", model.ImportKindImport, model.Span{})

	lib := symtab.New("lib.s")
	libSym := lib.AddSymbol(lib.Root(), "Shared", model.SymbolKindConstant, model.Span{}, "CODE")

	tables := &fakeTables{m: map[string]*symtab.Table{"main.s": main, "lib.s": lib}}
	exp := exports.New()
	exp.UpdateExports("lib.s", []exports.Entry{{Name: "Shared", File: "lib.s", Entity: libSym, EnclosingScope: lib.Root()}})

	r := New(tables, includegraph.New(), exp)

	ref := model.Reference{File: "main.s", Name: "Shared", Context: model.RefContextSymbol, EnclosingScope: main.Root()}
	got, ok := r.Resolve(ref, true)
	require.True(t, ok)
	assert.Equal(t, libSym, got)
}

func TestResolveImportWithNoExportReturnsImportItself(t *testing.T) {
	main := symtab.New("main.s")
	imp := main.AddImport(main.Root(), "Missing", model.ImportKindImport, model.Span{})

	tables := &fakeTables{m: map[string]*symtab.Table{"main.s": main}}
	r := New(tables, includegraph.New(), exports.New())

	ref := model.Reference{File: "main.s", Name: "Missing", Context: model.RefContextSymbol, EnclosingScope: main.Root()}
	got, ok := r.Resolve(ref, true)
	require.True(t, ok)
	assert.Equal(t, imp, got)
}

func TestResolveImplicitImportFallback(t *testing.T) {
	main := symtab.New("main.s")
	lib := symtab.New("lib.s")
	libSym := lib.AddSymbol(lib.Root(), "Util", model.SymbolKindConstant, model.Span{}, "CODE")

	tables := &fakeTables{m: map[string]*symtab.Table{"main.s": main, "lib.s": lib}}
	exp := exports.New()
	exp.UpdateExports("lib.s", []exports.Entry{{Name: "Util", File: "lib.s", Entity: libSym, EnclosingScope: lib.Root()}})

	r := New(tables, includegraph.New(), exp)

	ref := model.Reference{File: "main.s", Name: "Util", Context: model.RefContextSymbol, EnclosingScope: main.Root()}
	got, ok := r.Resolve(ref, true)
	require.True(t, ok)
	assert.Equal(t, libSym, got)

	got, ok = r.Resolve(ref, false)
	assert.False(t, ok)
	assert.Equal(t, model.NoEntity, got)
}

func TestResolveImplicitImportOnlyAtRootScope(t *testing.T) {
	main := symtab.New("main.s")
	proc := main.AddScope(main.Root(), "Routine", model.ScopeKindProc, "CODE", model.Span{})
	lib := symtab.New("lib.s")
	libSym := lib.AddSymbol(lib.Root(), "Util", model.SymbolKindConstant, model.Span{}, "CODE")

	tables := &fakeTables{m: map[string]*symtab.Table{"main.s": main, "lib.s": lib}}
	exp := exports.New()
	exp.UpdateExports("lib.s", []exports.Entry{{Name: "Util", File: "lib.s", Entity: libSym, EnclosingScope: lib.Root()}})

	r := New(tables, includegraph.New(), exp)

	ref := model.Reference{File: "main.s", Name: "Util", Context: model.RefContextSymbol, EnclosingScope: proc}
	_, ok := r.Resolve(ref, true)
	assert.False(t, ok)
}

func TestResolveMacroUsesFlatTableAcrossTranslationUnit(t *testing.T) {
	main := symtab.New("main.s")
	lib := symtab.New("lib.s")
	macro := lib.AddMacro("PushAll", model.MacroKindMacro, model.Span{})

	tables := &fakeTables{m: map[string]*symtab.Table{"main.s": main, "lib.s": lib}}
	graph := includegraph.New()
	graph.UpdateIncludes("main.s", []string{"lib.s"})

	r := New(tables, graph, exports.New())

	ref := model.Reference{File: "main.s", Name: "PushAll", Context: model.RefContextMacro, EnclosingScope: main.Root()}
	got, ok := r.Resolve(ref, false)
	require.True(t, ok)
	assert.Equal(t, macro, got)
}

func TestInvalidateFileForcesRewalk(t *testing.T) {
	main := symtab.New("main.s")
	sym := main.AddSymbol(main.Root(), "Counter", model.SymbolKindLabel, model.Span{}, "CODE")

	tables := &fakeTables{m: map[string]*symtab.Table{"main.s": main}}
	r := New(tables, includegraph.New(), exports.New())

	ref := model.Reference{File: "main.s", Name: "Counter", Context: model.RefContextSymbol, EnclosingScope: main.Root()}
	got, ok := r.Resolve(ref, true)
	require.True(t, ok)
	assert.Equal(t, sym, got)

	// Simulate a rescan that drops the symbol, without invalidating yet:
	// the memoized result should still be served.
	tables.m["main.s"] = symtab.New("main.s")
	got, ok = r.Resolve(ref, true)
	require.True(t, ok)
	assert.Equal(t, sym, got)

	r.InvalidateFile("main.s")
	_, ok = r.Resolve(ref, true)
	assert.False(t, ok)
}
