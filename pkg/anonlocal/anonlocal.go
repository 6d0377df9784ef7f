// Package anonlocal resolves ca65's two unnamed-label forms:
// anonymous labels (bare ":") via ordinal arithmetic, and cheap-local
// labels ("@name") via boundary-delimited forward search. Neither
// form has a symbol-table entry; both are resolved on demand from the
// raw `:[-+<>]+` / "@name" token at the reference site.
package anonlocal

import (
	"sort"
	"strings"

	"github.com/ca65lsp/ca65lsp/pkg/model"
)

// ParseToken decodes a `:[-+<>]+` anonymous-label reference token
// into a signed ordinal offset: '+' and '>' count positively (forward
// references), '-' and '<' count negatively (backward references).
// The empty token ":" alone is a self-reference (offset 0) and is
// handled by the scanner directly, not by this function.
func ParseToken(token string) (offset int, ok bool) {
	body := strings.TrimPrefix(token, ":")
	if body == "" {
		return 0, false
	}
	for _, c := range body {
		switch c {
		case '+', '>':
			offset++
		case '-', '<':
			offset--
		default:
			return 0, false
		}
	}
	return offset, true
}

// ResolveOrdinal finds the anonymous-label ordinal a reference at
// line refLine, carrying signed offset, resolves to: binary-search
// rec.Lines for the last ordinal whose line is <= refLine, then apply
// offset. A backward offset of exactly the same sign convention as
// the token lands on the label immediately previous for the first
// '-'/'<'; encoded here by biasing the backward walk: offset -1 means
// "the nearest label at or before refLine", offset -2 the one before
// that, and so on; a positive offset counts forward from that anchor.
func ResolveOrdinal(rec *model.AnonLabelRecord, refLine int, offset int) (int, bool) {
	anchor := sort.Search(len(rec.Lines), func(i int) bool { return rec.Lines[i] > refLine }) - 1

	var ordinal int
	switch {
	case offset < 0:
		// First '-'/'<' means the label immediately previous to refLine,
		// i.e. anchor itself; each additional step walks further back.
		ordinal = anchor + offset + 1
	default:
		ordinal = anchor + offset
	}

	if ordinal < 0 || ordinal >= len(rec.Lines) {
		return 0, false
	}
	return ordinal, true
}

// RecordReference appends span to the reference list for ordinal.
func RecordReference(rec *model.AnonLabelRecord, ordinal int, span model.Span) {
	rec.Refs[ordinal] = append(rec.Refs[ordinal], span)
}

// Boundary is one cheap-local scope boundary: a non-cheap label
// definition or a .proc/.struct/.union opener, at the given line.
type Boundary struct {
	Line int
}

// CheapLocal is one cheap-local label definition, with the boundary
// line that starts its scope.
type CheapLocal struct {
	Name         string
	Line         int
	Col          uint32
	BoundaryLine int
}

// EnclosingBoundary returns the boundary line at or immediately
// before refLine, or -1 if refLine precedes every boundary (cheap
// locals defined before the first boundary are recorded with
// BoundaryLine -1 as well).
func EnclosingBoundary(boundaries []Boundary, refLine int) int {
	idx := sort.Search(len(boundaries), func(i int) bool { return boundaries[i].Line > refLine }) - 1
	if idx < 0 {
		return -1
	}
	return boundaries[idx].Line
}

// ResolveCheapLocal finds the definition of a cheap-local named name
// visible from refLine: the boundary preceding refLine, then the
// first definition of name at or after that boundary (and, per the
// forward-extension rule, before the next boundary).
func ResolveCheapLocal(locals []CheapLocal, boundaries []Boundary, name string, refLine int) (CheapLocal, bool) {
	boundary := EnclosingBoundary(boundaries, refLine)
	nextBoundary := nextBoundaryAfter(boundaries, boundary)

	var best *CheapLocal
	for i := range locals {
		l := &locals[i]
		if l.Name != name {
			continue
		}
		if l.Line < boundary {
			continue
		}
		if nextBoundary >= 0 && l.Line >= nextBoundary {
			continue
		}
		if best == nil || l.Line < best.Line {
			best = l
		}
	}
	if best == nil {
		return CheapLocal{}, false
	}
	return *best, true
}

func nextBoundaryAfter(boundaries []Boundary, line int) int {
	for _, b := range boundaries {
		if b.Line > line {
			return b.Line
		}
	}
	return -1
}
