package query

import "github.com/ca65lsp/ca65lsp/pkg/model"

// UnusedSymbol names a defined entity with no reference beyond its own
// definition, within its translation-unit closure.
type UnusedSymbol struct {
	Entity model.EntityID
	Name   string
	Span   model.Span
}

// UnusedSymbols computes spec §4.9's unused-symbol diagnostic for uri:
// every non-synthetic defined entity with zero resolved non-declaration
// references anywhere in its translation-unit closure (the scanner
// records a declaration's own name token as a reference too, so
// References/Rename see it, but IsDeclaration keeps it from counting as
// a use here). It does not check whether a candidate's definition
// line already carries another diagnostic; suppressing such a
// candidate is left to the caller.
func (s *Service) UnusedSymbols(uri string) []UnusedSymbol {
	tbl, ok := s.Tables.Table(uri)
	if !ok {
		return nil
	}

	closure := s.Graph.TranslationUnit(uri)
	counts := map[model.EntityID]int{}
	for _, f := range closure {
		ftbl, ok := s.Tables.Table(f)
		if !ok {
			continue
		}
		for _, ref := range ftbl.References() {
			if ref.IsDeclaration {
				continue
			}
			target, ok := s.Resolver.Resolve(ref, s.ImplicitImports)
			if !ok {
				continue
			}
			counts[target]++
		}
	}

	var out []UnusedSymbol
	for _, e := range tbl.Entities() {
		if e.Name == "" || e.Synthetic {
			continue
		}
		if !candidateKind(e.Kind) {
			continue
		}
		if counts[e.ID] == 0 {
			out = append(out, UnusedSymbol{Entity: e.ID, Name: e.Name, Span: e.DefSpan})
		}
	}
	return out
}

func candidateKind(k model.EntityKind) bool {
	switch k {
	case model.EntitySymbol, model.EntityMacro, model.EntityImport:
		return true
	case model.EntityScope:
		return true
	default:
		return false
	}
}
