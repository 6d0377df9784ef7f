// Package scanner builds a file's symbol table with a single forward
// pass over its lines, driving pkg/lexer and pkg/argparser per line
// and dispatching ca65 directives the way spec'd behavior requires:
// macro bodies, struct/union/enum member lines, constant/variable
// assignments, and the generic scope/label/import/export/instruction
// directives, tried in that order per line.
package scanner

import (
	"strconv"
	"strings"

	"github.com/ca65lsp/ca65lsp/pkg/anonlocal"
	"github.com/ca65lsp/ca65lsp/pkg/argparser"
	"github.com/ca65lsp/ca65lsp/pkg/lexer"
	"github.com/ca65lsp/ca65lsp/pkg/model"
	"github.com/ca65lsp/ca65lsp/pkg/symtab"
)

// state carries the scanner's forward-pass memory: the scope stack,
// current segment, active label, and macro-body flag.
type state struct {
	t          *symtab.Table
	scopeStack []model.EntityID

	segment string

	currentLabel  model.EntityID
	pendingRefine bool

	inMacroBody bool
	macroEntity model.EntityID

	// currentBoundary is the line of the most recent cheap-local scope
	// boundary (a non-cheap label or a .proc/.struct/.union opener), or
	// -1 before the first one.
	currentBoundary int

	// pendingAnonRefs collects every `:[-+<>]+` token seen during the
	// pass, resolved only once the full file (and so the complete
	// ordinal→line table) is known — a forward reference like ":+"
	// can name a label the forward pass hasn't reached yet.
	pendingAnonRefs []pendingAnonRef
}

type pendingAnonRef struct {
	line   int
	offset uint32
	token  string
}

// Scan builds a fresh symbol table for uri from lines. Every scope
// still open at EOF has its end span extended to the file's end.
func Scan(uri string, lines []string) *symtab.Table {
	t := symtab.New(uri)
	s := &state{
		t:               t,
		scopeStack:      []model.EntityID{t.Root()},
		segment:         "CODE",
		currentLabel:    model.NoEntity,
		currentBoundary: -1,
	}
	for i, raw := range lines {
		s.scanLine(i, raw)
	}
	s.closeAll(len(lines))
	s.resolvePendingAnonRefs()
	return t
}

func (s *state) currentScope() model.EntityID {
	return s.scopeStack[len(s.scopeStack)-1]
}

func (s *state) scanLine(lineNo int, raw string) {
	lx := lexer.Lex(raw)

	s.recordAnonRefs(lineNo, raw, lx.Comment)

	if s.inMacroBody {
		s.scanMacroBodyLine(lineNo, lx)
		return
	}

	scope := s.currentScope()
	scopeEnt, _ := s.t.Entity(scope)

	inStructBody := scopeEnt.ScopeKind == model.ScopeKindStruct || scopeEnt.ScopeKind == model.ScopeKindUnion
	if inStructBody && !isEndDirective(lx.Command) {
		s.handleStructMember(scope, lineNo, lx)
		return
	}
	if scopeEnt.ScopeKind == model.ScopeKindEnum && !isEndDirective(lx.Command) {
		s.handleEnumMember(scope, lineNo, lx)
		return
	}

	if name, expr, ok := detectConstantAssignment(lx); ok {
		s.handleConstant(scope, lineNo, lx, name, expr)
		return
	}
	if name, ok := detectVariableAssignment(lx); ok {
		s.handleVariable(scope, lineNo, lx, name)
		return
	}

	s.scanGenericLine(scope, lineNo, lx)
}

// scanMacroBodyLine only watches for the matching close directive;
// every other line inside a macro body is lexed but left with no
// effect on scopes or symbols.
func (s *state) scanMacroBodyLine(lineNo int, lx lexer.Line) {
	if !lx.Command.Present {
		return
	}
	cmd := strings.ToLower(lx.Command.Text)
	if cmd == ".endmac" || cmd == ".endmacro" {
		end := lx.Command.Offset + uint32(len(lx.Command.Text))
		s.t.SetEndSpan(s.macroEntity, model.Pos{Line: lineNo, Col: end})
		s.inMacroBody = false
		s.macroEntity = model.NoEntity
	}
}

// Struct/union member lines carry no trailing colon ("xpos .byte",
// "coord .tag Point"): the member name is the line's Command token and
// any type directive is the first word of Args, the reverse of the
// generic label/directive split.
func (s *state) handleStructMember(scope model.EntityID, lineNo int, lx lexer.Line) {
	name := ""
	offset := uint32(0)
	if lx.Label.Present && lx.Label.Text != "" {
		name, offset = lx.Label.Text, lx.Label.Offset
	} else if lx.Command.Present {
		name, offset = lx.Command.Text, lx.Command.Offset
	}
	if name != "" {
		sp := span(lineNo, offset, offset+uint32(len(name)))
		id := s.t.AddSymbol(scope, name, model.SymbolKindStructMember, sp, s.segment)
		s.recordDeclarationReference(scope, name, model.RefContextSymbol, sp)
		s.currentLabel = id
		s.pendingRefine = false
	}

	if lx.Label.Present && lx.Label.Text != "" {
		if lx.Command.Present && strings.EqualFold(lx.Command.Text, ".tag") {
			s.emitOperandReferences(scope, lineNo, lx, model.RefContextScope, model.NoEntity)
		}
		return
	}
	if lx.Args.Present && strings.EqualFold(argsFirstWord(lx.Args.Text), ".tag") {
		tagged := lx
		tagged.Args = stripLeadingWord(lx.Args)
		s.emitOperandReferences(scope, lineNo, tagged, model.RefContextScope, model.NoEntity)
	}
}

// stripLeadingWord removes tok's first whitespace-delimited word and
// the blanks following it, keeping the remainder's offset correct.
func stripLeadingWord(tok lexer.Token) lexer.Token {
	text := tok.Text
	i := 0
	for i < len(text) && text[i] != ' ' && text[i] != '\t' {
		i++
	}
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	if i >= len(text) {
		return lexer.Token{}
	}
	return lexer.Token{Present: true, Text: text[i:], Offset: tok.Offset + uint32(i)}
}

func (s *state) handleEnumMember(scope model.EntityID, lineNo int, lx lexer.Line) {
	name := ""
	offset := lx.Command.Offset
	if lx.Label.Present && lx.Label.Text != "" {
		name = lx.Label.Text
		offset = lx.Label.Offset
	} else if lx.Command.Present {
		name = lx.Command.Text
	}
	if name == "" {
		return
	}

	sp := span(lineNo, offset, offset+uint32(len(name)))
	id := s.t.AddSymbol(scope, name, model.SymbolKindEnumMember, sp, s.segment)
	s.recordDeclarationReference(scope, name, model.RefContextSymbol, sp)

	if lx.Args.Present && argsFirstWord(lx.Args.Text) == "=" {
		expr := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lx.Args.Text), "="))
		s.t.SetConstValue(id, expr)
	}
}

func (s *state) handleConstant(scope model.EntityID, lineNo int, lx lexer.Line, name, expr string) {
	sp := span(lineNo, lx.Command.Offset, lx.Command.Offset+uint32(len(name)))
	id := s.t.AddSymbol(scope, name, model.SymbolKindConstant, sp, s.segment)
	s.t.SetConstValue(id, expr)
	s.recordDeclarationReference(scope, name, model.RefContextSymbol, sp)
}

func (s *state) handleVariable(scope model.EntityID, lineNo int, lx lexer.Line, name string) {
	sp := span(lineNo, lx.Command.Offset, lx.Command.Offset+uint32(len(name)))
	s.t.AddSymbol(scope, name, model.SymbolKindVariable, sp, s.segment)
	s.recordDeclarationReference(scope, name, model.RefContextSymbol, sp)
}

// scanGenericLine handles label definitions, scope/macro open-close,
// segment switches, import/export/global, include, and falls through
// to operand-reference scanning for every ordinary instruction or
// pseudo-op line (including .tag and jsr/jmp, which additionally get
// special treatment below).
func (s *state) scanGenericLine(scope model.EntityID, lineNo int, lx lexer.Line) {
	if lx.Label.Present {
		s.handleLabel(scope, lineNo, lx)
	}

	if !lx.Command.Present {
		return
	}
	cmd := strings.ToLower(lx.Command.Text)

	if s.pendingRefine && s.currentLabel != model.NoEntity {
		if kind, ok := refineKinds[cmd]; ok {
			s.t.RefineKind(s.currentLabel, kind)
		}
		s.pendingRefine = false
	}

	switch cmd {
	case ".proc":
		s.openScope(model.ScopeKindProc, lineNo, lx)
	case ".scope":
		s.openScope(model.ScopeKindScope, lineNo, lx)
	case ".struct":
		s.openScope(model.ScopeKindStruct, lineNo, lx)
	case ".union":
		s.openScope(model.ScopeKindUnion, lineNo, lx)
	case ".enum":
		s.openScope(model.ScopeKindEnum, lineNo, lx)
	case ".endproc", ".endscope", ".endstruct", ".endunion", ".endenum":
		s.closeScope(cmd, lineNo, lx)
	case ".macro", ".mac":
		s.openMacro(lineNo, lx, model.MacroKindMacro)
	case ".define":
		s.defineMacro(lineNo, lx)
	case ".segment":
		s.setSegmentFromArgs(lx)
	case ".code":
		s.segment = "CODE"
	case ".data":
		s.segment = "DATA"
	case ".bss":
		s.segment = "BSS"
	case ".zeropage":
		s.segment = "ZEROPAGE"
	case ".rodata":
		s.segment = "RODATA"
	case ".import", ".importzp":
		s.handleImportExport(cmd, scope, lineNo, lx)
	case ".export", ".exportzp":
		s.handleImportExport(cmd, scope, lineNo, lx)
	case ".global", ".globalzp":
		s.handleImportExport(cmd, scope, lineNo, lx)
	case ".include":
		s.handleInclude(lx)
	default:
		ctxOverride := model.RefContext("")
		calling := model.NoEntity
		if cmd == ".tag" {
			ctxOverride = model.RefContextScope
		}
		if cmd == "jsr" || cmd == "jmp" {
			calling = s.callingEntity(scope)
		}
		s.emitOperandReferences(scope, lineNo, lx, ctxOverride, calling)
	}
}

func (s *state) callingEntity(scope model.EntityID) model.EntityID {
	if s.currentLabel != model.NoEntity {
		return s.currentLabel
	}
	if e, ok := s.t.Entity(scope); ok && e.Kind == model.EntityScope && e.ScopeKind == model.ScopeKindProc {
		return scope
	}
	return model.NoEntity
}

func (s *state) handleLabel(scope model.EntityID, lineNo int, lx lexer.Line) {
	if lx.Label.Text == "" {
		ordinal := len(s.t.Anon.Lines)
		s.t.Anon.Lines = append(s.t.Anon.Lines, lineNo)
		sp := span(lineNo, lx.Label.Offset, lx.Label.Offset+1)
		anonlocal.RecordReference(s.t.Anon, ordinal, sp)
		return
	}
	if strings.HasPrefix(lx.Label.Text, "@") {
		// Cheap-local definitions are intentionally not added to the
		// scope tree; they resolve on demand via pkg/anonlocal.
		s.t.AddCheapLocal(lx.Label.Text, lineNo, lx.Label.Offset, s.currentBoundary)
		return
	}
	nameEnd := lx.Label.Offset + uint32(len(lx.Label.Text))
	sp := span(lineNo, lx.Label.Offset, nameEnd)
	id := s.t.AddSymbol(scope, lx.Label.Text, model.SymbolKindLabel, sp, s.segment)
	s.recordDeclarationReference(scope, lx.Label.Text, model.RefContextSymbol, sp)
	s.currentLabel = id
	s.pendingRefine = true
	s.markBoundary(lineNo)
}

// markBoundary records a new cheap-local scope boundary at lineNo, the
// point after which "@name" definitions belong to a fresh scope.
func (s *state) markBoundary(lineNo int) {
	s.currentBoundary = lineNo
	s.t.AddBoundary(lineNo)
}

func (s *state) openScope(kind model.ScopeKind, lineNo int, lx lexer.Line) {
	name := ""
	nameOffset := lx.Command.Offset
	if lx.Args.Present {
		name = argsFirstWord(lx.Args.Text)
		nameOffset = argsFirstWordOffset(lx.Args)
	}
	synthetic := name == ""
	if synthetic {
		name = syntheticScopeName(kind, lineNo)
	}

	var def model.Span
	if synthetic {
		cmdEnd := lx.Command.Offset
		if lx.Command.Present {
			cmdEnd += uint32(len(lx.Command.Text))
		}
		def = span(lineNo, lx.Command.Offset, cmdEnd)
	} else {
		def = span(lineNo, nameOffset, nameOffset+uint32(len(name)))
	}

	parent := s.currentScope()
	id := s.t.AddScope(parent, name, kind, s.segment, def)
	if synthetic {
		s.t.MarkSynthetic(id)
	} else {
		s.recordDeclarationReference(parent, name, model.RefContextScope, def)
	}
	if kind == model.ScopeKindProc || kind == model.ScopeKindStruct || kind == model.ScopeKindUnion {
		s.markBoundary(lineNo)
	}
	s.scopeStack = append(s.scopeStack, id)
	s.currentLabel = model.NoEntity
	s.pendingRefine = false
}

var endDirectiveKind = map[string]model.ScopeKind{
	".endproc":   model.ScopeKindProc,
	".endscope":  model.ScopeKindScope,
	".endstruct": model.ScopeKindStruct,
	".endunion":  model.ScopeKindUnion,
	".endenum":   model.ScopeKindEnum,
}

func isEndDirective(cmd lexer.Token) bool {
	if !cmd.Present {
		return false
	}
	_, ok := endDirectiveKind[strings.ToLower(cmd.Text)]
	return ok
}

func (s *state) closeScope(cmd string, lineNo int, lx lexer.Line) {
	wantKind, ok := endDirectiveKind[cmd]
	if !ok || len(s.scopeStack) <= 1 {
		return
	}
	top := s.scopeStack[len(s.scopeStack)-1]
	ent, ok := s.t.Entity(top)
	if !ok || ent.ScopeKind != wantKind {
		return
	}
	end := lx.Command.Offset + uint32(len(lx.Command.Text))
	s.t.SetEndSpan(top, model.Pos{Line: lineNo, Col: end})
	s.scopeStack = s.scopeStack[:len(s.scopeStack)-1]
	s.currentLabel = model.NoEntity
	s.pendingRefine = false
}

func (s *state) openMacro(lineNo int, lx lexer.Line, kind model.MacroKind) {
	if !lx.Args.Present {
		return
	}
	name := argsFirstWord(lx.Args.Text)
	if name == "" {
		return
	}
	def := span(lineNo, lx.Command.Offset, lx.Command.Offset+uint32(len(lx.Command.Text)))
	id := s.t.AddMacro(name, kind, def)
	s.inMacroBody = true
	s.macroEntity = id
}

func (s *state) defineMacro(lineNo int, lx lexer.Line) {
	if !lx.Args.Present {
		return
	}
	name := argsFirstWord(lx.Args.Text)
	if name == "" {
		return
	}
	def := span(lineNo, lx.Command.Offset, lx.Command.Offset+uint32(len(lx.Command.Text)))
	s.t.AddMacro(name, model.MacroKindDefine, def)
}

func (s *state) setSegmentFromArgs(lx lexer.Line) {
	if !lx.Args.Present {
		return
	}
	name := strings.Trim(strings.TrimSpace(lx.Args.Text), `"`)
	if name != "" {
		s.segment = name
	}
}

func (s *state) handleImportExport(cmd string, scope model.EntityID, lineNo int, lx lexer.Line) {
	if !lx.Args.Present {
		return
	}
	items := argparser.ParseImportExportItems(lx.Args.Text, lx.Args.Offset)
	for _, it := range items {
		sp := span(lineNo, it.NameOffset, it.NameOffset+uint32(len(it.Name)))
		// isDeclaration marks the item name as the declaration of the
		// import/global entity it creates, excluded from UnusedSymbols'
		// use-count the same way a label's own name is. A plain .export
		// instead names an existing local symbol (AddExport never
		// indexes by name, so the reference below resolves straight
		// through to that symbol, not back to the export record), so it
		// counts as a genuine use of the thing it exports.
		isDeclaration := true
		switch cmd {
		case ".import", ".importzp":
			s.t.AddImport(scope, it.Name, model.ImportKindImport, sp)
		case ".export", ".exportzp":
			value := ""
			if it.HasValue {
				value = it.Value
			}
			s.t.AddExport(scope, it.Name, model.ExportKindExport, sp, value)
			if it.HasValue {
				id := s.t.AddSymbol(scope, it.Name, model.SymbolKindConstant, sp, s.segment)
				s.t.SetConstValue(id, it.Value)
			}
			isDeclaration = false
		case ".global", ".globalzp":
			s.t.AddImport(scope, it.Name, model.ImportKindGlobal, sp)
			s.t.AddExport(scope, it.Name, model.ExportKindGlobal, sp, "")
		}
		s.t.AddReference(model.Reference{
			File:           s.t.URI,
			Name:           it.Name,
			Context:        model.RefContextSymbol,
			Span:           sp,
			EnclosingScope: scope,
			CallingEntity:  model.NoEntity,
			IsDeclaration:  isDeclaration,
		})
	}
}

func (s *state) handleInclude(lx lexer.Line) {
	if !lx.Args.Present {
		return
	}
	path := strings.Trim(strings.TrimSpace(lx.Args.Text), `"`)
	if path == "" {
		return
	}
	s.t.AddRawInclude(path)
	s.segment = model.SegmentOpaque
}

// recordDeclarationReference records a declaring name token (a scope
// name, a symbol label) as a reference that resolves back to the
// entity it just declared, so References/Rename/DocumentHighlights see
// the declaration site the same way they see every other use.
// UnusedSymbols skips IsDeclaration references so a symbol's own
// definition never counts as its use.
func (s *state) recordDeclarationReference(enclosing model.EntityID, name string, ctx model.RefContext, sp model.Span) {
	s.t.AddReference(model.Reference{
		File:           s.t.URI,
		Name:           name,
		Context:        ctx,
		Span:           sp,
		EnclosingScope: enclosing,
		CallingEntity:  model.NoEntity,
		IsDeclaration:  true,
	})
}

func (s *state) emitOperandReferences(scope model.EntityID, lineNo int, lx lexer.Line, ctxOverride model.RefContext, calling model.EntityID) {
	if !lx.Args.Present {
		return
	}
	groups := argparser.ParseArgs(lx.Args.Text, lx.Args.Offset)
	for _, g := range groups {
		ctx := g.Context
		if ctxOverride != "" {
			ctx = ctxOverride
		}
		nameEnd := g.NameOffset + uint32(len(g.Name))
		ref := model.Reference{
			File:           s.t.URI,
			Name:           g.Name,
			Qualifiers:     g.Qualifiers,
			Context:        ctx,
			Span:           span(lineNo, g.NameOffset, nameEnd),
			EnclosingScope: scope,
			CallingEntity:  calling,
		}
		s.t.AddReference(ref)
	}
}

// recordAnonRefs scans raw (up to any comment) for `:[-+<>]+` tokens
// and queues each for resolution once every anonymous label in the
// file has been seen.
func (s *state) recordAnonRefs(lineNo int, raw string, comment lexer.Token) {
	body := raw
	if comment.Present {
		body = raw[:comment.Offset]
	}
	for _, m := range findAnonTokens(body) {
		s.pendingAnonRefs = append(s.pendingAnonRefs, pendingAnonRef{line: lineNo, offset: m.offset, token: m.text})
	}
}

// resolvePendingAnonRefs resolves every queued anonymous-label
// reference against the now-complete ordinal table.
func (s *state) resolvePendingAnonRefs() {
	for _, p := range s.pendingAnonRefs {
		offset, ok := anonlocal.ParseToken(p.token)
		if !ok {
			continue
		}
		ordinal, ok := anonlocal.ResolveOrdinal(s.t.Anon, p.line, offset)
		if !ok {
			continue
		}
		sp := span(p.line, p.offset, p.offset+uint32(len(p.token)))
		anonlocal.RecordReference(s.t.Anon, ordinal, sp)
	}
}

func (s *state) closeAll(lineCount int) {
	end := model.Pos{Line: lineCount, Col: 0}
	for i := len(s.scopeStack) - 1; i >= 0; i-- {
		s.t.SetEndSpan(s.scopeStack[i], end)
	}
	if s.inMacroBody {
		s.t.SetEndSpan(s.macroEntity, end)
	}
}

var refineKinds = map[string]model.SymbolKind{
	".res":       model.SymbolKindResLabel,
	".tag":       model.SymbolKindResLabel,
	".addr":      model.SymbolKindDataLabel,
	".align":     model.SymbolKindDataLabel,
	".bankbytes": model.SymbolKindDataLabel,
	".byt":       model.SymbolKindDataLabel,
	".byte":      model.SymbolKindDataLabel,
	".dbyt":      model.SymbolKindDataLabel,
	".dword":     model.SymbolKindDataLabel,
	".faraddr":   model.SymbolKindDataLabel,
	".word":      model.SymbolKindDataLabel,
	".asciiz":    model.SymbolKindStringLabel,
}

func detectConstantAssignment(lx lexer.Line) (name, expr string, ok bool) {
	if lx.Label.Present || !lx.Command.Present || !lx.Args.Present {
		return "", "", false
	}
	if argsFirstWord(lx.Args.Text) != "=" {
		return "", "", false
	}
	expr = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lx.Args.Text), "="))
	return lx.Command.Text, expr, true
}

func detectVariableAssignment(lx lexer.Line) (name string, ok bool) {
	if lx.Label.Present || !lx.Command.Present || !lx.Args.Present {
		return "", false
	}
	if !strings.EqualFold(argsFirstWord(lx.Args.Text), ".set") {
		return "", false
	}
	return lx.Command.Text, true
}

func argsFirstWord(args string) string {
	trimmed := strings.TrimLeft(args, " \t")
	end := 0
	for end < len(trimmed) && trimmed[end] != ' ' && trimmed[end] != '\t' {
		end++
	}
	return trimmed[:end]
}

// argsFirstWordOffset returns the absolute offset of tok's first
// whitespace-delimited word, the offset argsFirstWord's string-only
// return discards.
func argsFirstWordOffset(tok lexer.Token) uint32 {
	i := 0
	for i < len(tok.Text) && (tok.Text[i] == ' ' || tok.Text[i] == '\t') {
		i++
	}
	return tok.Offset + uint32(i)
}

func syntheticScopeName(kind model.ScopeKind, lineNo int) string {
	return "<anon-" + string(kind) + "@" + strconv.Itoa(lineNo+1) + ">"
}

func span(lineNo int, start, end uint32) model.Span {
	return model.Span{
		Start: model.Pos{Line: lineNo, Col: start},
		End:   model.Pos{Line: lineNo, Col: end},
	}
}
