// Package query implements the read-only adapters a language server
// front end drives: definition, references, rename, hover, completion,
// call hierarchy, symbols (outline/folding/document+workspace),
// highlights, inlay hints, and the unused-symbol diagnostic.
//
// Every adapter is a method on Service, a struct holding read-only
// references to the engine's shared state — one exported method per
// query, every method a pure read. Callers are responsible for
// awaiting the orchestrator's initialization gate before calling in;
// Service itself performs no synchronization.
package query

import (
	"github.com/ca65lsp/ca65lsp/pkg/exports"
	"github.com/ca65lsp/ca65lsp/pkg/filecache"
	"github.com/ca65lsp/ca65lsp/pkg/includegraph"
	"github.com/ca65lsp/ca65lsp/pkg/model"
	"github.com/ca65lsp/ca65lsp/pkg/resolver"
	"github.com/ca65lsp/ca65lsp/pkg/symtab"
)

// Workspace resolves a file URI to its current symbol table and lists
// every URI currently known to the workspace. pkg/engine supplies the
// live implementation.
type Workspace interface {
	Table(uri string) (*symtab.Table, bool)
	URIs() []string
}

// Service is the read side of the engine: every method here is safe
// to call once the orchestrator's initialization gate has opened, and
// observes whatever state was most recently integrated.
type Service struct {
	Tables   Workspace
	Graph    *includegraph.Graph
	Exports  *exports.Map
	Resolver *resolver.Resolver
	Files    *filecache.Cache

	// ImplicitImports mirrors the `implicit-imports` setting (spec §6):
	// when set, an unqualified root-scope symbol reference that the
	// local walk can't resolve falls back to a workspace export lookup
	// even without an explicit .import.
	ImplicitImports bool
}

// New builds a Service over the given collaborators.
func New(tables Workspace, graph *includegraph.Graph, exportsMap *exports.Map, res *resolver.Resolver, files *filecache.Cache, implicitImports bool) *Service {
	return &Service{
		Tables:          tables,
		Graph:           graph,
		Exports:         exportsMap,
		Resolver:        res,
		Files:           files,
		ImplicitImports: implicitImports,
	}
}

// Location names a span in a specific file — the common result shape
// for definition, references, and rename targets, since not every
// target (anonymous and cheap-local labels) owns a symtab.Entity.
type Location struct {
	URI  string
	Span model.Span
}

// referenceAt finds the reference recorded at pos in uri's table, if
// any. Used as the first step of Definition, Hover, and "what's under
// the cursor" style queries.
func (s *Service) referenceAt(uri string, pos model.Pos) (model.Reference, bool) {
	tbl, ok := s.Tables.Table(uri)
	if !ok {
		return model.Reference{}, false
	}
	return tbl.FindReferenceAt(pos)
}

func posInSpan(pos model.Pos, sp model.Span) bool {
	if lessPos(pos, sp.Start) {
		return false
	}
	return !lessPos(sp.End, pos)
}

func lessPos(a, b model.Pos) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Col < b.Col
}
