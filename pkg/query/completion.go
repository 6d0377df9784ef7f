package query

import (
	"path"
	"strings"

	"github.com/ca65lsp/ca65lsp/pkg/anonlocal"
	"github.com/ca65lsp/ca65lsp/pkg/lexer"
	"github.com/ca65lsp/ca65lsp/pkg/model"
)

// CompletionItem is one suggestion, with an optional extra edit (an
// auto-include or auto-import text edit prepared alongside the
// inserted name).
type CompletionItem struct {
	Label    string
	Kind     string
	Extra    *TextEdit
	ExtraURI string
}

var mnemonics = []string{
	"adc", "and", "asl", "bcc", "bcs", "beq", "bit", "bmi", "bne", "bpl",
	"brk", "bvc", "bvs", "clc", "cld", "cli", "clv", "cmp", "cpx", "cpy",
	"dec", "dex", "dey", "eor", "inc", "inx", "iny", "jmp", "jsr", "lda",
	"ldx", "ldy", "lsr", "nop", "ora", "pha", "php", "pla", "plp", "rol",
	"ror", "rti", "rts", "sbc", "sec", "sed", "sei", "sta", "stx", "sty",
	"tax", "tay", "tsx", "txa", "txs", "tya",
}

var controlCommands = []string{
	".a16", ".a8", ".addr", ".align", ".asciiz", ".assert", ".autoimport",
	".bankbytes", ".bss", ".byt", ".byte", ".case", ".code", ".constructor",
	".data", ".dbyt", ".define", ".destructor", ".dword", ".else",
	".elseif", ".end", ".endenum", ".endif", ".endmac", ".endmacro",
	".endproc", ".endrepeat", ".endscope", ".endstruct", ".endunion",
	".enum", ".error", ".exitmac", ".export", ".exportzp", ".faraddr",
	".fileopt", ".global", ".globalzp", ".i16", ".i8", ".if", ".ifdef",
	".import", ".importzp", ".include", ".incbin", ".local", ".localchar",
	".macro", ".org", ".out", ".pagelength", ".proc", ".repeat", ".res",
	".rodata", ".scope", ".segment", ".set", ".setcpu", ".smart", ".struct",
	".tag", ".union", ".warning", ".word", ".zeropage",
}

var pseudoFunctions = []string{
	".sizeof", ".strlen", ".bankbyte", ".hibyte", ".lobyte", ".bank",
	".const", ".defined", ".match", ".xmatch",
}

var pseudoVariables = []string{"*", ".asize", ".cpu", ".paramcount", ".time", ".version"}

var autoIncludeExtensions = []string{".inc", ".s", ".asm"}

// Completion offers suggestions at pos on the (possibly unsaved) line
// text lineText. Command-position offers mnemonics, control commands,
// and macros visible in the translation unit; operand-position offers
// every visible symbol, cheap locals in the enclosing boundary,
// pseudo-functions/variables, and — for names not otherwise visible —
// auto-include and auto-import completions with a prepared edit.
func (s *Service) Completion(uri string, pos model.Pos, lineText string) []CompletionItem {
	lx := lexer.Lex(lineText)

	if s.inCommandPosition(lx, pos.Col) {
		return s.commandCompletions(uri)
	}
	return s.operandCompletions(uri, pos)
}

func (s *Service) inCommandPosition(lx lexer.Line, col uint32) bool {
	if lx.Label.Present && col <= lx.Label.Offset+uint32(len(lx.Label.Text))+1 {
		return false
	}
	if !lx.Command.Present {
		return true
	}
	return col <= lx.Command.Offset+uint32(len(lx.Command.Text))
}

func (s *Service) commandCompletions(uri string) []CompletionItem {
	var out []CompletionItem
	for _, m := range mnemonics {
		out = append(out, CompletionItem{Label: m, Kind: "mnemonic"})
	}
	for _, c := range controlCommands {
		out = append(out, CompletionItem{Label: c, Kind: "directive"})
	}
	for _, m := range s.visibleMacros(uri) {
		out = append(out, CompletionItem{Label: m, Kind: "macro"})
	}
	return out
}

func (s *Service) operandCompletions(uri string, pos model.Pos) []CompletionItem {
	var out []CompletionItem

	tbl, ok := s.Tables.Table(uri)
	if !ok {
		return nil
	}

	tu := s.Graph.TranslationUnit(uri)
	seen := map[string]bool{}
	for _, f := range tu {
		ftbl, ok := s.Tables.Table(f)
		if !ok {
			continue
		}
		for _, e := range ftbl.Entities() {
			if e.Name == "" || e.Synthetic || seen[e.Name] {
				continue
			}
			switch e.Kind {
			case model.EntitySymbol, model.EntityImport:
				seen[e.Name] = true
				out = append(out, CompletionItem{Label: e.Name, Kind: e.Kind.String()})
			case model.EntityScope:
				if e.ScopeKind == model.ScopeKindProc {
					seen[e.Name] = true
					out = append(out, CompletionItem{Label: e.Name, Kind: "proc"})
				}
			}
		}
	}

	boundary := anonlocal.EnclosingBoundary(tbl.Boundaries, pos.Line)
	for _, cl := range tbl.CheapLocals {
		if cl.BoundaryLine == boundary && !seen[cl.Name] {
			seen[cl.Name] = true
			out = append(out, CompletionItem{Label: cl.Name, Kind: "cheap-local"})
		}
	}

	for _, p := range pseudoFunctions {
		out = append(out, CompletionItem{Label: p, Kind: "pseudo-function"})
	}
	for _, p := range pseudoVariables {
		out = append(out, CompletionItem{Label: p, Kind: "pseudo-variable"})
	}

	out = append(out, s.autoIncludeCompletions(uri, tu)...)
	out = append(out, s.autoImportCompletions(uri, seen)...)

	return out
}

func (s *Service) visibleMacros(uri string) []string {
	var out []string
	seen := map[string]bool{}
	for _, f := range s.Graph.TranslationUnit(uri) {
		tbl, ok := s.Tables.Table(f)
		if !ok {
			continue
		}
		for _, e := range tbl.Entities() {
			if e.Kind == model.EntityMacro && !seen[e.Name] {
				seen[e.Name] = true
				out = append(out, e.Name)
			}
		}
	}
	return out
}

// autoIncludeCompletions offers files outside the current translation
// unit whose extension is allow-listed, each with a prepared .include
// text edit.
func (s *Service) autoIncludeCompletions(uri string, tu []string) []CompletionItem {
	inTU := map[string]bool{}
	for _, f := range tu {
		inTU[f] = true
	}

	var out []CompletionItem
	for _, f := range s.Tables.URIs() {
		if inTU[f] {
			continue
		}
		ext := path.Ext(f)
		if !containsStr(autoIncludeExtensions, ext) {
			continue
		}
		rel := relativeInclude(uri, f)
		out = append(out, CompletionItem{
			Label:    path.Base(f),
			Kind:     "auto-include",
			ExtraURI: uri,
			Extra:    &TextEdit{NewText: `.include "` + rel + `"` + "\n"},
		})
	}
	return out
}

// autoImportCompletions offers exported symbols not already visible,
// each with a prepared .import text edit.
func (s *Service) autoImportCompletions(uri string, seen map[string]bool) []CompletionItem {
	var out []CompletionItem
	addedNames := map[string]bool{}
	for _, f := range s.Tables.URIs() {
		tbl, ok := s.Tables.Table(f)
		if !ok {
			continue
		}
		for _, e := range tbl.Entities() {
			if e.Kind != model.EntityExport || seen[e.Name] || addedNames[e.Name] {
				continue
			}
			addedNames[e.Name] = true
			out = append(out, CompletionItem{
				Label:    e.Name,
				Kind:     "auto-import",
				ExtraURI: uri,
				Extra:    &TextEdit{NewText: ".import " + e.Name + "\n"},
			})
		}
	}
	return out
}

func containsStr(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func relativeInclude(fromURI, toURI string) string {
	rel := strings.TrimPrefix(toURI, path.Dir(fromURI)+"/")
	return rel
}
