package query

import (
	"strings"

	"github.com/ca65lsp/ca65lsp/pkg/anonlocal"
	"github.com/ca65lsp/ca65lsp/pkg/model"
	"github.com/ca65lsp/ca65lsp/pkg/symtab"
)

// Hover reconstructs a code block for the entity under pos: the
// definition line (prefixed with its segment and enclosing-scope
// name), plus any contiguous comment block directly above it. A
// single blank line, or a line that is only an .export/.global
// directive, is allowed inside that gap without breaking the block.
func (s *Service) Hover(uri string, pos model.Pos) (string, bool) {
	tbl, ok := s.Tables.Table(uri)
	if !ok {
		return "", false
	}

	ref, hasRef := tbl.FindReferenceAt(pos)
	if !hasRef {
		return "", false
	}

	if isCheapLocalName(ref.Name) {
		local, ok := anonlocal.ResolveCheapLocal(tbl.CheapLocals, tbl.Boundaries, ref.Name, ref.Span.Start.Line)
		if !ok {
			return "", false
		}
		return s.renderHover(uri, local.Line, "(cheap-local) "+ref.Name), true
	}

	target, ok := s.Resolver.Resolve(ref, s.ImplicitImports)
	if !ok {
		return "", false
	}
	targetTbl, ok := s.Tables.Table(target.URI)
	if !ok {
		return "", false
	}
	ent, ok := targetTbl.Entity(target)
	if !ok {
		return "", false
	}

	header := headerFor(targetTbl, ent)
	return s.renderHover(target.URI, ent.DefSpan.Start.Line, header), true
}

func headerFor(tbl *symtab.Table, ent model.Entity) string {
	qualified := tbl.ShortestRelativeName(ent.ID, tbl.Root())
	segment := ent.Segment
	if segment == "" {
		segment = "CODE"
	}
	kind := string(ent.SymbolKind)
	if ent.Kind == model.EntityScope {
		kind = string(ent.ScopeKind)
	} else if ent.Kind == model.EntityImport {
		kind = string(ent.ImportKind)
	} else if ent.Kind == model.EntityExport {
		kind = string(ent.ExportKind)
	} else if ent.Kind == model.EntityMacro {
		kind = string(ent.MacroKind)
	}
	return "[" + segment + "] " + kind + " " + qualified
}

func (s *Service) renderHover(uri string, defLine int, header string) string {
	lines, err := s.Files.Lines(uri)
	if err != nil || defLine < 0 || defLine >= len(lines) {
		return header
	}

	comments := leadingComments(lines, defLine)

	var b strings.Builder
	for _, c := range comments {
		b.WriteString(c)
		b.WriteByte('\n')
	}
	b.WriteString(header)
	b.WriteByte('\n')
	b.WriteString(strings.TrimRight(lines[defLine], " \t"))
	return b.String()
}

// leadingComments collects the contiguous ";"-comment block directly
// above defLine, in source order, tolerating a single blank line or a
// bare .export/.global line inside the gap.
func leadingComments(lines []string, defLine int) []string {
	var collected []string
	gapUsed := false
loop:
	for i := defLine - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		switch {
		case strings.HasPrefix(trimmed, ";"):
			collected = append(collected, trimmed)
			gapUsed = false
		case trimmed == "" || isExportOrGlobalLine(trimmed):
			if gapUsed {
				break loop
			}
			gapUsed = true
		default:
			break loop
		}
	}
	for l, r := 0, len(collected)-1; l < r; l, r = l+1, r-1 {
		collected[l], collected[r] = collected[r], collected[l]
	}
	return collected
}

func isExportOrGlobalLine(trimmed string) bool {
	lower := strings.ToLower(trimmed)
	return strings.HasPrefix(lower, ".export") || strings.HasPrefix(lower, ".global")
}
