package scanner

import "github.com/ca65lsp/ca65lsp/pkg/litmask"

// anonMatch is one `:[-+<>]+` token found on a line, with its byte
// offset.
type anonMatch struct {
	text   string
	offset uint32
}

// findAnonTokens scans body (already comment-stripped) for maximal
// runs of `:[-+<>]+`, masking string/char literals first so embedded
// colons never get mistaken for anonymous-label reference tokens.
func findAnonTokens(body string) []anonMatch {
	masked := litmask.MaskStrings(body)

	var out []anonMatch
	i := 0
	for i < len(masked) {
		if masked[i] != ':' {
			i++
			continue
		}
		j := i + 1
		for j < len(masked) && isAnonOffsetChar(masked[j]) {
			j++
		}
		if j == i+1 {
			// Bare colon with no offset run following: not a
			// reference token (label terminator or root anchor).
			i++
			continue
		}
		out = append(out, anonMatch{text: body[i:j], offset: uint32(i)})
		i = j
	}
	return out
}

func isAnonOffsetChar(c byte) bool {
	return c == '+' || c == '-' || c == '<' || c == '>'
}
