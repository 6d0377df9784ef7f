package query

import (
	"github.com/ca65lsp/ca65lsp/pkg/anonlocal"
	"github.com/ca65lsp/ca65lsp/pkg/model"
	"github.com/ca65lsp/ca65lsp/pkg/symtab"
)

// References finds every use site whose resolved entity equals the
// one under pos, across every file in the workspace. Cheap-local and
// anonymous-label references never cross a file boundary, so those
// two forms are answered from uri alone.
func (s *Service) References(uri string, pos model.Pos) ([]Location, bool) {
	tbl, ok := s.Tables.Table(uri)
	if !ok {
		return nil, false
	}

	if ref, ok := tbl.FindReferenceAt(pos); ok {
		if isCheapLocalName(ref.Name) {
			return s.cheapLocalReferences(tbl, uri, ref.Name, ref.Span.Start.Line)
		}
		target, ok := s.Resolver.Resolve(ref, s.ImplicitImports)
		if !ok {
			return nil, false
		}
		return s.entityReferences(target), true
	}

	if ordinal, ok := findAnonOrdinalAt(tbl, pos); ok {
		var out []Location
		for _, sp := range tbl.Anon.Refs[ordinal] {
			out = append(out, Location{URI: uri, Span: sp})
		}
		return out, true
	}

	return nil, false
}

// entityReferences collects every reference, in every file, that
// resolves to target.
func (s *Service) entityReferences(target model.EntityID) []Location {
	var out []Location
	for _, uri := range s.Tables.URIs() {
		tbl, ok := s.Tables.Table(uri)
		if !ok {
			continue
		}
		for _, ref := range tbl.References() {
			got, ok := s.Resolver.Resolve(ref, s.ImplicitImports)
			if !ok || got != target {
				continue
			}
			out = append(out, Location{URI: uri, Span: ref.Span})
		}
	}
	return out
}

// cheapLocalReferences collects every reference in tbl whose name
// matches name and whose cheap-local resolution lands on the same
// definition as the one visible from defLine.
func (s *Service) cheapLocalReferences(tbl *symtab.Table, uri, name string, defLine int) ([]Location, bool) {
	target, ok := resolveCheapLocalLine(tbl, name, defLine)
	if !ok {
		return nil, false
	}

	var out []Location
	for _, ref := range tbl.References() {
		if ref.Name != name {
			continue
		}
		got, ok := resolveCheapLocalLine(tbl, name, ref.Span.Start.Line)
		if !ok || got != target {
			continue
		}
		out = append(out, Location{URI: uri, Span: ref.Span})
	}
	return out, true
}

// resolveCheapLocalLine returns the definition line a cheap-local
// reference at refLine resolves to, the comparison key used to group
// references by definition since cheap locals have no EntityID.
func resolveCheapLocalLine(tbl *symtab.Table, name string, refLine int) (int, bool) {
	local, ok := anonlocal.ResolveCheapLocal(tbl.CheapLocals, tbl.Boundaries, name, refLine)
	if !ok {
		return 0, false
	}
	return local.Line, true
}
