package query

import (
	"strconv"

	"github.com/ca65lsp/ca65lsp/pkg/model"
)

// InlayHint places Label at Pos, either immediately before (anonymous
// label ordinals) or immediately after (import resolution paths) the
// token it annotates.
type InlayHint struct {
	Pos   model.Pos
	Label string
}

// InlayHints computes the two hint kinds spec §4.9 names: an ordinal
// label at the start of every anonymous-label reference, and a
// resolved-path suffix after every import declaration whose target
// lives in a different file.
func (s *Service) InlayHints(uri string) []InlayHint {
	tbl, ok := s.Tables.Table(uri)
	if !ok {
		return nil
	}

	var out []InlayHint
	for ordinal, spans := range tbl.Anon.Refs {
		for _, sp := range spans {
			out = append(out, InlayHint{Pos: sp.Start, Label: anonOrdinalLabel(ordinal)})
		}
	}

	for _, e := range tbl.Entities() {
		if e.Kind != model.EntityImport {
			continue
		}
		ref := model.Reference{
			File:           uri,
			Name:           e.Name,
			Context:        model.RefContextSymbol,
			Span:           e.DefSpan,
			EnclosingScope: e.Scope,
		}
		target, ok := s.Resolver.Resolve(ref, s.ImplicitImports)
		if !ok || target.URI == uri {
			continue
		}
		out = append(out, InlayHint{Pos: e.DefSpan.End, Label: " from " + relativeInclude(uri, target.URI)})
	}

	return out
}

func anonOrdinalLabel(ordinal int) string {
	return "L" + strconv.Itoa(ordinal)
}
