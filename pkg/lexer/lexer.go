// Package lexer splits one raw line of ca65 source into its label,
// command, argument, and comment items, each carrying the original
// byte offset within the line. It never looks beyond the current line
// and never allocates more than the handful of substrings a line needs
// — the document scanner (pkg/scanner) drives it once per source line.
package lexer

import (
	"strings"

	"github.com/ca65lsp/ca65lsp/pkg/litmask"
)

// Token is an optional lexical item: a substring of the source line
// plus the byte offset at which it starts. A zero-value Token (Present
// == false) means the line carried no such item.
type Token struct {
	Present bool
	Text    string
	Offset  uint32
}

// Line is the result of lexing one source line.
type Line struct {
	Label   Token
	Command Token
	Args    Token
	Comment Token
}

// Lex splits raw into its label/command/args/comment items.
func Lex(raw string) Line {
	masked := litmask.MaskStrings(raw)

	var line Line

	// Comment: first ';' outside a string/char literal, consuming the
	// rest of the line (original, unmasked text).
	commentAt := strings.IndexByte(masked, ';')
	body := raw
	if commentAt >= 0 {
		line.Comment = Token{Present: true, Text: raw[commentAt:], Offset: uint32(commentAt)}
		body = raw[:commentAt]
		masked = masked[:commentAt]
	}

	rest := body
	restMasked := masked
	offset := uint32(0)

	if label, labelMasked, consumed, ok := scanLabel(rest, restMasked); ok {
		line.Label = label
		rest = rest[consumed:]
		restMasked = labelMasked[consumed:]
		offset += uint32(consumed)
	}

	cmdStart := skipBlanks(restMasked)
	rest = rest[cmdStart:]
	restMasked = restMasked[cmdStart:]
	offset += uint32(cmdStart)

	if rest == "" {
		return line
	}

	cmdEnd := 0
	for cmdEnd < len(restMasked) && !isBlank(restMasked[cmdEnd]) {
		cmdEnd++
	}
	line.Command = Token{Present: true, Text: rest[:cmdEnd], Offset: offset}

	argsStart := cmdEnd + skipBlanks(restMasked[cmdEnd:])
	if argsStart >= len(rest) {
		return line
	}

	argsText := rightTrim(rest[argsStart:])
	if argsText != "" {
		line.Args = Token{Present: true, Text: argsText, Offset: offset + uint32(argsStart)}
	}

	return line
}

// scanLabel recognizes a leading "name:" or empty ":" label. It
// returns false if the line has no label (no qualifying colon at the
// label position, or an interior-whitespace word precedes the colon).
//
// A colon ends a label only when NOT immediately followed by ':', '<',
// '>', '+', or '-' — those five introduce anonymous-label reference
// constructs (`:+`, `:-`, `::`, ...) rather than terminate a label.
func scanLabel(raw, masked string) (tok Token, newMasked string, consumed int, ok bool) {
	lead := skipBlanks(masked)
	body := masked[lead:]

	colon := strings.IndexByte(body, ':')
	if colon < 0 {
		return Token{}, masked, 0, false
	}
	if colon+1 < len(body) {
		switch body[colon+1] {
		case ':', '<', '>', '+', '-':
			return Token{}, masked, 0, false
		}
	}

	word := body[:colon]
	if strings.IndexFunc(word, isBlankRune) >= 0 {
		// Interior whitespace: not a single identifier-like token.
		return Token{}, masked, 0, false
	}

	name := raw[lead : lead+colon]
	tok = Token{Present: true, Text: name, Offset: uint32(lead)}
	consumed = lead + colon + 1
	return tok, masked, consumed, true
}

func skipBlanks(s string) int {
	i := 0
	for i < len(s) && isBlank(s[i]) {
		i++
	}
	return i
}

func isBlank(c byte) bool { return c == ' ' || c == '\t' }

func isBlankRune(r rune) bool { return r == ' ' || r == '\t' }

func rightTrim(s string) string {
	return strings.TrimRight(s, " \t\r")
}
