package query

import "github.com/ca65lsp/ca65lsp/pkg/model"

// TextEdit replaces the text at Span with NewText.
type TextEdit struct {
	Span    model.Span
	NewText string
}

// Rename produces the text-edit set for renaming the symbol under pos
// to newName: exactly the locations References would return, since the
// scanner records every declaration's own name token as a reference
// too.
func (s *Service) Rename(uri string, pos model.Pos, newName string) (map[string][]TextEdit, bool) {
	tbl, ok := s.Tables.Table(uri)
	if !ok {
		return nil, false
	}

	edits := make(map[string][]TextEdit)
	add := func(loc Location) {
		edits[loc.URI] = append(edits[loc.URI], TextEdit{Span: loc.Span, NewText: newName})
	}

	ref, hasRef := tbl.FindReferenceAt(pos)
	switch {
	case hasRef && isCheapLocalName(ref.Name):
		locs, ok := s.cheapLocalReferences(tbl, uri, ref.Name, ref.Span.Start.Line)
		if !ok {
			return nil, false
		}
		for _, l := range locs {
			add(l)
		}
		return edits, true

	case hasRef:
		target, ok := s.Resolver.Resolve(ref, s.ImplicitImports)
		if !ok {
			return nil, false
		}
		for _, l := range s.entityReferences(target) {
			add(l)
		}
		return edits, true

	default:
		if ordinal, ok := findAnonOrdinalAt(tbl, pos); ok {
			for _, sp := range tbl.Anon.Refs[ordinal] {
				add(Location{URI: uri, Span: sp})
			}
			return edits, true
		}
	}

	return nil, false
}
