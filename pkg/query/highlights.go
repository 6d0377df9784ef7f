package query

import "github.com/ca65lsp/ca65lsp/pkg/model"

// DocumentHighlights returns every reference in uri resolving to the
// same target as the one under pos — References, restricted to the
// requesting file, the shape editors want for same-document highlight.
func (s *Service) DocumentHighlights(uri string, pos model.Pos) ([]model.Span, bool) {
	locs, ok := s.References(uri, pos)
	if !ok {
		return nil, false
	}
	var out []model.Span
	for _, l := range locs {
		if l.URI == uri {
			out = append(out, l.Span)
		}
	}
	return out, true
}
