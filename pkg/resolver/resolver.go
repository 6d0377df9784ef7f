// Package resolver maps a reference to the entity it names, walking
// the translation-unit local scope chain, the workspace exports map,
// and an implicit-import fallback, with per-file memoized results
// invalidated on rescan.
package resolver

import (
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ca65lsp/ca65lsp/pkg/exports"
	"github.com/ca65lsp/ca65lsp/pkg/includegraph"
	"github.com/ca65lsp/ca65lsp/pkg/model"
	"github.com/ca65lsp/ca65lsp/pkg/symtab"
)

// defaultCacheSize bounds each per-file memoization cache. A file
// rarely carries more than a few hundred distinct reference shapes.
const defaultCacheSize = 512

// Tables resolves a file URI to its symbol table. pkg/engine supplies
// the live implementation backed by its workspace map.
type Tables interface {
	Table(uri string) (*symtab.Table, bool)
}

// Resolver is not safe for concurrent use; the engine's single-writer
// model (spec §5) serializes all calls.
type Resolver struct {
	tables  Tables
	graph   *includegraph.Graph
	exports *exports.Map

	localCache  map[string]*lru.Cache[localKey, localResult]
	exportCache map[string]*lru.Cache[string, exportResult]
}

// New builds a resolver over the given collaborators.
func New(tables Tables, graph *includegraph.Graph, exportsMap *exports.Map) *Resolver {
	return &Resolver{
		tables:      tables,
		graph:       graph,
		exports:     exportsMap,
		localCache:  make(map[string]*lru.Cache[localKey, localResult]),
		exportCache: make(map[string]*lru.Cache[string, exportResult]),
	}
}

type localKey struct {
	Scope model.EntityID
	Quals string
	Name  string
	Ctx   model.RefContext
}

type localResult struct {
	ID   model.EntityID
	Kind localKind
}

type localKind int

const (
	localNone localKind = iota
	localConcrete
	localImport
)

type exportResult struct {
	ID    model.EntityID
	Found bool
}

// Resolve implements spec §4.7: translation-unit local walk, then
// workspace export lookup if the local walk found only an import,
// then (when allowImplicitImport is set) an implicit-import fallback
// for unqualified root-scope symbol references.
func (r *Resolver) Resolve(ref model.Reference, allowImplicitImport bool) (model.EntityID, bool) {
	key := localKey{
		Scope: ref.EnclosingScope,
		Quals: strings.Join(ref.Qualifiers, "\x00"),
		Name:  ref.Name,
		Ctx:   ref.Context,
	}

	local, ok := r.localCacheFor(ref.File).Get(key)
	if !ok {
		id, kind := r.localWalkFrom(ref.File, ref.EnclosingScope, ref.Qualifiers, ref.Name, ref.Context)
		local = localResult{ID: id, Kind: kind}
		r.localCacheFor(ref.File).Add(key, local)
	}

	switch local.Kind {
	case localConcrete:
		return local.ID, true
	case localImport:
		if target, ok := r.exportLookupCached(ref.File, ref.Name); ok {
			return target, true
		}
		return local.ID, true
	default:
		if allowImplicitImport && ref.Context == model.RefContextSymbol && r.isFileRootScope(ref.File, ref.EnclosingScope) {
			if target, ok := r.exportLookupCached(ref.File, ref.Name); ok {
				return target, true
			}
		}
		return model.NoEntity, false
	}
}

// InvalidateFile discards every memoized result recorded while file
// was the querying file. Callers (pkg/engine) invalidate every file
// in both the pre- and post-edit translation-unit closure of a
// rescanned or deleted file (spec §4.7).
func (r *Resolver) InvalidateFile(file string) {
	delete(r.localCache, file)
	delete(r.exportCache, file)
}

func (r *Resolver) localCacheFor(file string) *lru.Cache[localKey, localResult] {
	c, ok := r.localCache[file]
	if !ok {
		c, _ = lru.New[localKey, localResult](defaultCacheSize)
		r.localCache[file] = c
	}
	return c
}

func (r *Resolver) exportCacheFor(file string) *lru.Cache[string, exportResult] {
	c, ok := r.exportCache[file]
	if !ok {
		c, _ = lru.New[string, exportResult](defaultCacheSize)
		r.exportCache[file] = c
	}
	return c
}

func (r *Resolver) exportLookupCached(file, name string) (model.EntityID, bool) {
	cache := r.exportCacheFor(file)
	if v, ok := cache.Get(name); ok {
		return v.ID, v.Found
	}
	id, found := r.workspaceExportLookup(name)
	cache.Add(name, exportResult{ID: id, Found: found})
	return id, found
}

func (r *Resolver) isFileRootScope(file string, scope model.EntityID) bool {
	tbl, ok := r.tables.Table(file)
	if !ok {
		return false
	}
	return scope == tbl.Root()
}

// localWalkFrom performs one translation-unit local walk: for every
// file in startFile's translation unit (startFile first, using
// startScope there; every other file uses its own root scope), look
// up the reference. Macro references use the flat per-file macro
// table and are returned on first hit. A concrete symbol/scope result
// returns immediately; an import is remembered and the walk
// continues, in case a later file in the unit concretely defines the
// same name.
func (r *Resolver) localWalkFrom(startFile string, startScope model.EntityID, quals []string, name string, ctx model.RefContext) (model.EntityID, localKind) {
	files := r.orderedTranslationUnit(startFile)

	if ctx == model.RefContextMacro {
		for _, f := range files {
			tbl, ok := r.tables.Table(f)
			if !ok {
				continue
			}
			if id, ok := tbl.LookupMacro(name); ok {
				return id, localConcrete
			}
		}
		return model.NoEntity, localNone
	}

	var pending model.EntityID
	havePending := false
	for _, f := range files {
		tbl, ok := r.tables.Table(f)
		if !ok {
			continue
		}
		scope := startScope
		if f != startFile {
			scope = tbl.Root()
		}
		id, ok := tbl.Lookup(scope, quals, name, ctx, true)
		if !ok {
			continue
		}
		ent, ok := tbl.Entity(id)
		if !ok {
			continue
		}
		if ent.Kind == model.EntityImport {
			if !havePending {
				pending, havePending = id, true
			}
			continue
		}
		return id, localConcrete
	}
	if havePending {
		return pending, localImport
	}
	return model.NoEntity, localNone
}

// workspaceExportLookup iterates the exports map's stack for name and
// accepts the first export that resolves, within its own translation
// unit, to a symbol or a proc-kind scope.
func (r *Resolver) workspaceExportLookup(name string) (model.EntityID, bool) {
	for _, e := range r.exports.Lookup(name) {
		id, kind := r.localWalkFrom(e.File, e.EnclosingScope, nil, name, model.RefContextSymbol)
		if kind != localConcrete {
			continue
		}
		tbl, ok := r.tables.Table(e.File)
		if !ok {
			continue
		}
		ent, ok := tbl.Entity(id)
		if !ok {
			continue
		}
		if ent.Kind == model.EntitySymbol || (ent.Kind == model.EntityScope && ent.ScopeKind == model.ScopeKindProc) {
			return id, true
		}
	}
	return model.NoEntity, false
}

// orderedTranslationUnit returns file's translation unit with file
// first and every other member sorted, so repeated walks visit files
// in a stable order.
func (r *Resolver) orderedTranslationUnit(file string) []string {
	tu := r.graph.TranslationUnit(file)
	if len(tu) <= 1 {
		return tu
	}
	rest := append([]string(nil), tu[1:]...)
	sort.Strings(rest)
	out := make([]string, 0, len(tu))
	out = append(out, tu[0])
	out = append(out, rest...)
	return out
}
