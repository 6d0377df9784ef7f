package query

import (
	"github.com/ca65lsp/ca65lsp/pkg/anonlocal"
	"github.com/ca65lsp/ca65lsp/pkg/model"
	"github.com/ca65lsp/ca65lsp/pkg/symtab"
)

// Definition resolves the reference under pos in uri: a normal
// reference goes through the resolver; a reference to a cheap-local
// ("@name") falls back to pkg/anonlocal's boundary search, and an
// anonymous-label token (":[-+<>]+") to the file's Anon.Refs record
// (whose first span per ordinal is the label itself), since neither
// form owns a symtab.Entity.
func (s *Service) Definition(uri string, pos model.Pos) (Location, bool) {
	tbl, ok := s.Tables.Table(uri)
	if !ok {
		return Location{}, false
	}

	if ref, ok := tbl.FindReferenceAt(pos); ok {
		if isCheapLocalName(ref.Name) {
			local, ok := anonlocal.ResolveCheapLocal(tbl.CheapLocals, tbl.Boundaries, ref.Name, ref.Span.Start.Line)
			if !ok {
				return Location{}, false
			}
			end := local.Col + uint32(len(local.Name))
			return Location{URI: uri, Span: model.Span{
				Start: model.Pos{Line: local.Line, Col: local.Col},
				End:   model.Pos{Line: local.Line, Col: end},
			}}, true
		}

		target, ok := s.Resolver.Resolve(ref, s.ImplicitImports)
		if !ok {
			return Location{}, false
		}
		targetTbl, ok := s.Tables.Table(target.URI)
		if !ok {
			return Location{}, false
		}
		ent, ok := targetTbl.Entity(target)
		if !ok {
			return Location{}, false
		}
		return Location{URI: target.URI, Span: ent.DefSpan}, true
	}

	if ordinal, ok := findAnonOrdinalAt(tbl, pos); ok {
		defSpan := tbl.Anon.Refs[ordinal][0]
		return Location{URI: uri, Span: defSpan}, true
	}

	return Location{}, false
}

func isCheapLocalName(name string) bool {
	return len(name) > 0 && name[0] == '@'
}

// findAnonOrdinalAt returns the ordinal whose recorded reference spans
// (definition included) contain pos.
func findAnonOrdinalAt(tbl *symtab.Table, pos model.Pos) (int, bool) {
	for ordinal, spans := range tbl.Anon.Refs {
		for _, sp := range spans {
			if posInSpan(pos, sp) {
				return ordinal, true
			}
		}
	}
	return 0, false
}
