package query

import (
	"strings"

	"github.com/ca65lsp/ca65lsp/pkg/model"
	"github.com/ca65lsp/ca65lsp/pkg/symtab"
)

// DocumentSymbol is one node of a file's outline: a scope, symbol,
// import, or export, with its children (scopes only). Macros are not
// children of any scope and so do not appear in the outline.
type DocumentSymbol struct {
	Name     string
	Kind     string
	Span     model.Span
	EndSpan  model.Span
	Children []DocumentSymbol
}

// WorkspaceSymbol names a symbol anywhere in the workspace, for
// fuzzy/substring workspace-symbol search.
type WorkspaceSymbol struct {
	Name string
	Kind string
	URI  string
	Span model.Span
}

// DocumentSymbols walks uri's scope tree and returns its outline.
func (s *Service) DocumentSymbols(uri string) []DocumentSymbol {
	tbl, ok := s.Tables.Table(uri)
	if !ok {
		return nil
	}
	return childSymbols(tbl, tbl.Root())
}

func childSymbols(tbl *symtab.Table, scope model.EntityID) []DocumentSymbol {
	scopeEnt, ok := tbl.Entity(scope)
	if !ok {
		return nil
	}

	out := make([]DocumentSymbol, 0, len(scopeEnt.Children))
	for _, childID := range scopeEnt.Children {
		child, ok := tbl.Entity(childID)
		if !ok {
			continue
		}
		sym := DocumentSymbol{Name: child.Name, Span: child.DefSpan, EndSpan: child.EndSpan}
		switch child.Kind {
		case model.EntityScope:
			sym.Kind = string(child.ScopeKind)
			sym.Children = childSymbols(tbl, childID)
		case model.EntitySymbol:
			sym.Kind = string(child.SymbolKind)
		case model.EntityImport:
			sym.Kind = string(child.ImportKind)
		case model.EntityExport:
			sym.Kind = string(child.ExportKind)
		}
		out = append(out, sym)
	}
	return out
}

// WorkspaceSymbols searches every file's entities for a
// substring-in-name match against query (case-sensitive, matching
// ca65's own case sensitivity).
func (s *Service) WorkspaceSymbols(query string) []WorkspaceSymbol {
	var out []WorkspaceSymbol
	for _, uri := range s.Tables.URIs() {
		tbl, ok := s.Tables.Table(uri)
		if !ok {
			continue
		}
		for _, e := range tbl.Entities() {
			if e.Name == "" || e.Synthetic || !strings.Contains(e.Name, query) {
				continue
			}
			out = append(out, WorkspaceSymbol{Name: e.Name, Kind: kindLabel(e), URI: uri, Span: e.DefSpan})
		}
	}
	return out
}

// FoldingRanges returns every scope and macro spanning more than one
// line.
func (s *Service) FoldingRanges(uri string) []model.Span {
	tbl, ok := s.Tables.Table(uri)
	if !ok {
		return nil
	}
	var out []model.Span
	for _, e := range tbl.Entities() {
		if e.Kind != model.EntityScope && e.Kind != model.EntityMacro {
			continue
		}
		if e.EndSpan.End.Line > e.DefSpan.Start.Line {
			out = append(out, model.Span{Start: e.DefSpan.Start, End: e.EndSpan.End})
		}
	}
	return out
}

func kindLabel(e model.Entity) string {
	switch e.Kind {
	case model.EntityScope:
		return string(e.ScopeKind)
	case model.EntitySymbol:
		return string(e.SymbolKind)
	case model.EntityImport:
		return string(e.ImportKind)
	case model.EntityExport:
		return string(e.ExportKind)
	case model.EntityMacro:
		return string(e.MacroKind)
	default:
		return e.Kind.String()
	}
}
