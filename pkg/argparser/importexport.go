package argparser

import (
	"strings"

	"github.com/ca65lsp/ca65lsp/pkg/litmask"
)

// ImportExportItem is one comma-separated item of an .import,
// .importzp, .export, .exportzp, .global, or .globalzp directive.
type ImportExportItem struct {
	Name       string
	NameOffset uint32

	// AddrSpec is the optional ":addrspec" suffix (e.g. "zeropage",
	// "far"), without the leading colon. Empty if absent.
	AddrSpec string

	// HasValue is true for "name = expr" / "name := expr" items,
	// which additionally define a constant symbol (spec §4.3).
	HasValue    bool
	Value       string
	ValueOffset uint32
}

// ParseImportExportItems splits args on top-level commas (commas
// nested inside parentheses do not split) and parses each item.
func ParseImportExportItems(args string, offset uint32) []ImportExportItem {
	masked := litmask.MaskStrings(args)

	var items []ImportExportItem
	start := 0
	depth := 0
	for i := 0; i <= len(masked); i++ {
		atEnd := i == len(masked)
		var c byte
		if !atEnd {
			c = masked[i]
		}
		switch {
		case !atEnd && (c == '(' || c == '['):
			depth++
		case !atEnd && (c == ')' || c == ']'):
			if depth > 0 {
				depth--
			}
		case atEnd || (c == ',' && depth == 0):
			chunk := args[start:i]
			chunkOffset := offset + uint32(start)
			if item, ok := parseOneItem(chunk, chunkOffset); ok {
				items = append(items, item)
			}
			start = i + 1
		}
	}
	return items
}

// parseOneItem parses "name[:addrspec][(=|:=)value]" from one
// comma-separated chunk. leadOffset is chunk's offset within the
// source line.
func parseOneItem(chunk string, leadOffset uint32) (ImportExportItem, bool) {
	trimmed, lead := trimLeadingSpace(chunk)
	if trimmed == "" {
		return ImportExportItem{}, false
	}

	i := 0
	for i < len(trimmed) && isIdentCont(trimmed[i]) {
		i++
	}
	if i == 0 {
		return ImportExportItem{}, false
	}
	item := ImportExportItem{Name: trimmed[:i], NameOffset: leadOffset + uint32(lead)}

	rest := trimmed[i:]
	restOffset := leadOffset + uint32(lead) + uint32(i)

	rest, restOffset = skipSpace(rest, restOffset)

	if strings.HasPrefix(rest, ":") && !strings.HasPrefix(rest, ":=") {
		rest = rest[1:]
		restOffset++
		rest, restOffset = skipSpace(rest, restOffset)
		j := 0
		for j < len(rest) && isIdentCont(rest[j]) {
			j++
		}
		item.AddrSpec = rest[:j]
		rest = rest[j:]
		restOffset += uint32(j)
		rest, restOffset = skipSpace(rest, restOffset)
	}

	if strings.HasPrefix(rest, ":=") {
		rest = rest[2:]
		restOffset += 2
	} else if strings.HasPrefix(rest, "=") {
		rest = rest[1:]
		restOffset++
	} else {
		return item, true
	}

	rest, restOffset = skipSpace(rest, restOffset)
	value := strings.TrimRight(rest, " \t")
	item.HasValue = true
	item.Value = value
	item.ValueOffset = restOffset
	return item, true
}

func trimLeadingSpace(s string) (string, int) {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return s[i:], i
}

func skipSpace(s string, offset uint32) (string, uint32) {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return s[i:], offset + uint32(i)
}
