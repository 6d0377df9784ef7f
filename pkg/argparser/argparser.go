// Package argparser turns the raw argument text produced by pkg/lexer
// into qualified-name groups (for operand scanning) and import/export
// item lists (for .import/.importzp/.export/.exportzp/.global/
// .globalzp directives).
//
// String literals, character literals, and hexadecimal numbers are
// blanked before scanning so embedded identifier-like characters never
// get mistaken for names; blanking preserves byte length so every
// offset reported stays valid against the original line.
package argparser

import (
	"strings"

	"github.com/ca65lsp/ca65lsp/pkg/litmask"
	"github.com/ca65lsp/ca65lsp/pkg/model"
)

// Group is a maximal run of identifier tokens separated by "::". The
// last token is the reference's base Name; any earlier tokens are
// scope qualifiers. A leading "" qualifier denotes the `::name` root
// anchor.
type Group struct {
	Qualifiers []string
	Name       string
	NameOffset uint32
	Context    model.RefContext
}

// ParseArgs extracts every qualified-name group from an args string.
// offset is the byte offset of args within its source line; every
// NameOffset returned is relative to that same line.
func ParseArgs(args string, offset uint32) []Group {
	masked := []byte(litmask.MaskHex(litmask.MaskStrings(args)))

	var groups []Group

	lower := strings.ToLower(string(masked))
	searchFrom := 0
	for {
		idx := strings.Index(lower[searchFrom:], ".sizeof(")
		if idx < 0 {
			break
		}
		start := searchFrom + idx
		parenStart := start + len(".sizeof(")

		depth := 1
		j := parenStart
		for j < len(masked) && depth > 0 {
			switch masked[j] {
			case '(':
				depth++
			case ')':
				depth--
			}
			if depth == 0 {
				break
			}
			j++
		}
		end := j
		if end < len(masked) {
			end++ // include closing paren in the blanked span
		}

		inner := args[parenStart:min(j, len(args))]
		innerOffset := offset + uint32(parenStart)
		innerGroups := scanGroups(string(masked[parenStart:min(j, len(masked))]), inner, innerOffset, model.RefContextSymbol)
		if len(innerGroups) > 0 {
			innerGroups[len(innerGroups)-1].Context = model.RefContextSizeof
		}
		groups = append(groups, innerGroups...)

		for k := start; k < end && k < len(masked); k++ {
			masked[k] = ' '
		}
		lower = strings.ToLower(string(masked))
		searchFrom = end
		if searchFrom > len(lower) {
			break
		}
	}

	groups = append(groups, scanGroups(string(masked), args, offset, model.RefContextSymbol)...)
	return groups
}

type identToken struct {
	text   string
	offset uint32
}

// scanGroups walks maskedText for identifier runs and "::" separators,
// pulling the actual substrings from original (same byte positions).
func scanGroups(maskedText, original string, baseOffset uint32, defaultCtx model.RefContext) []Group {
	var groups []Group
	var tokens []identToken
	rootAnchor := false

	flush := func() {
		defer func() { tokens = nil; rootAnchor = false }()
		if len(tokens) == 0 {
			return
		}
		last := tokens[len(tokens)-1]
		var quals []string
		if rootAnchor {
			quals = append(quals, "")
		}
		for _, tok := range tokens[:len(tokens)-1] {
			quals = append(quals, tok.text)
		}
		groups = append(groups, Group{
			Qualifiers: quals,
			Name:       last.text,
			NameOffset: last.offset,
			Context:    defaultCtx,
		})
	}

	n := len(maskedText)
	i := 0
	for i < n {
		c := maskedText[i]
		switch {
		case isIdentStart(c):
			start := i
			i++
			for i < n && isIdentCont(maskedText[i]) {
				i++
			}
			tokens = append(tokens, identToken{text: original[start:i], offset: baseOffset + uint32(start)})
		case c == ':' && i+1 < n && maskedText[i+1] == ':':
			if len(tokens) == 0 {
				rootAnchor = true
			}
			i += 2
		default:
			flush()
			i++
		}
	}
	flush()
	return groups
}

func isIdentStart(c byte) bool {
	return isLetter(c) || c == '_' || c == '@'
}

func isIdentCont(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
