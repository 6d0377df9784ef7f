// Package model defines the shared data model for the ca65 analysis
// engine: entities (symbols, macros, imports, exports, scopes),
// references, spans, and the anonymous-label record.
//
// Entities that can participate in cycles (scopes reference parents,
// symbols reference their enclosing scope) are not linked by pointer.
// Every entity lives in a per-file arena (symtab.Table.entities) and is
// addressed by its position in that arena — an EntityID. This avoids
// the cyclic-reference problem a pointer graph would create and gives
// O(1) equality for map keys used by call hierarchy and unused-symbol
// counting.
package model

import "fmt"

// Pos is a 0-based line/column position. Column is a byte offset into
// the line, matching the offsets the lexer and argument parser report.
type Pos struct {
	Line int
	Col  uint32
}

// Span is a half-open [Start, End) range, potentially spanning
// multiple lines (a scope's definition-to-.end span).
type Span struct {
	Start Pos
	End   Pos
}

// EntityID globally identifies an entity: the file that owns it and
// its index into that file's entity arena.
type EntityID struct {
	URI   string
	Index int
}

// String renders an EntityID for logging and dump-* debug output.
func (id EntityID) String() string {
	return fmt.Sprintf("%s#%d", id.URI, id.Index)
}

// NoEntity is the zero value of EntityID in contexts where a field is
// optional (e.g. Reference.CallingEntity): Index -1 marks "absent".
var NoEntity = EntityID{Index: -1}

// IsZero reports whether id is the "absent" sentinel.
func (id EntityID) IsZero() bool { return id.Index < 0 }

// EntityKind discriminates the tagged union of entity variants.
type EntityKind int

const (
	EntityScope EntityKind = iota
	EntitySymbol
	EntityMacro
	EntityImport
	EntityExport
)

func (k EntityKind) String() string {
	switch k {
	case EntityScope:
		return "scope"
	case EntitySymbol:
		return "symbol"
	case EntityMacro:
		return "macro"
	case EntityImport:
		return "import"
	case EntityExport:
		return "export"
	default:
		return "unknown"
	}
}

// ScopeKind is the variant kind of an EntityScope entity.
type ScopeKind string

const (
	ScopeKindScope  ScopeKind = "scope"
	ScopeKindProc   ScopeKind = "proc"
	ScopeKindStruct ScopeKind = "struct"
	ScopeKindUnion  ScopeKind = "union"
	ScopeKindEnum   ScopeKind = "enum"
)

// SymbolKind is the variant kind of an EntitySymbol entity.
type SymbolKind string

const (
	SymbolKindLabel        SymbolKind = "label"
	SymbolKindResLabel     SymbolKind = "res-label"
	SymbolKindDataLabel    SymbolKind = "data-label"
	SymbolKindStringLabel  SymbolKind = "string-label"
	SymbolKindConstant     SymbolKind = "constant"
	SymbolKindVariable     SymbolKind = "variable"
	SymbolKindStructMember SymbolKind = "struct-member"
	SymbolKindEnumMember   SymbolKind = "enum-member"
)

// MacroKind is the variant kind of an EntityMacro entity.
type MacroKind string

const (
	MacroKindMacro  MacroKind = "macro"
	MacroKindDefine MacroKind = "define"
)

// ImportKind is the variant kind of an EntityImport entity.
type ImportKind string

const (
	ImportKindImport ImportKind = "import"
	ImportKindGlobal ImportKind = "global"
)

// ExportKind is the variant kind of an EntityExport entity.
type ExportKind string

const (
	ExportKindExport ExportKind = "export"
	ExportKindGlobal ExportKind = "global"
)

// SegmentOpaque is the synthetic segment name recorded after an
// .include directive, until the next explicit segment directive.
// Per design note §9, consumers display it verbatim and never parse
// its form.
const SegmentOpaque = "<opaque-after-include>"

// Entity is the flat tagged union of every named thing the scanner
// produces: scopes, symbols, macros, imports, exports. Kind-specific
// fields are zero-valued when not applicable to Kind.
type Entity struct {
	ID      EntityID
	Kind    EntityKind
	Name    string
	DefSpan Span
	// EndSpan is set for scopes and macros once the matching .end
	// directive (or EOF) closes them; zero until then.
	EndSpan Span
	// Scope is the entity's enclosing scope, or NoEntity for a file's
	// root scope.
	Scope   EntityID
	Segment string

	// Synthetic is true for anonymous-name scopes created for an
	// unnamed .proc/.scope/.struct/.union/.enum, keyed to the source
	// line. Synthetic entities are excluded from the unused-symbol
	// diagnostic (spec §4.9) and from completion.
	Synthetic bool

	ScopeKind ScopeKind // Kind == EntityScope
	// Parent is the lexically enclosing scope's EntityID, same value
	// as Scope but named distinctly so scope-walk code reads clearly.
	Parent   EntityID
	Children []EntityID // child scopes, imports, symbols in insertion order (scopes only)

	SymbolKind      SymbolKind // Kind == EntitySymbol
	KindRefined     bool       // one-shot refinement flag for label->typed-label
	MacroKind       MacroKind  // Kind == EntityMacro
	ImportKind      ImportKind // Kind == EntityImport
	ExportKind      ExportKind // Kind == EntityExport
	// ConstValue is the inline value expression of a `.export name =
	// expr` (creates an additional constant symbol) or of a `name =
	// expr` constant assignment.
	ConstValue string
}

// RefContext is the syntactic context of a Reference.
type RefContext string

const (
	RefContextSymbol RefContext = "symbol"
	RefContextScope  RefContext = "scope"
	RefContextMacro  RefContext = "macro"
	RefContextSizeof RefContext = "sizeof"
)

// Reference is a use site of a name.
type Reference struct {
	File string
	Name string
	// Qualifiers holds the scope-name chain preceding Name. A leading
	// "" element denotes the `::name` root-anchor syntax.
	Qualifiers []string
	Context    RefContext
	Span       Span
	// EnclosingScope is the scope the reference lexically sits in,
	// used as the resolver's starting point (spec §4.7 step 1).
	EnclosingScope EntityID
	// CallingEntity is set only for jsr/jmp operand references: the
	// active label if any, else the enclosing proc scope. Zero value
	// (NoEntity) means the reference carries no calling context and
	// is invisible to call hierarchy (spec §4.3).
	CallingEntity EntityID
	// IsDeclaration marks a reference the scanner records at a
	// declaration's own name token (a scope name, a symbol label, an
	// import/export item), so References/Rename/DocumentHighlights see
	// the declaration site like any other use while UnusedSymbols can
	// still tell a declaration from a genuine use.
	IsDeclaration bool
}

// AnonLabelRecord tracks a file's anonymous (bare `:`) labels in
// definition order, plus every reference resolved to each ordinal.
type AnonLabelRecord struct {
	// Lines[i] is the 0-based source line of the i-th anonymous label.
	Lines []int
	// Refs[i] lists every reference span that resolved to ordinal i.
	Refs map[int][]Span
}

// NewAnonLabelRecord returns an empty record ready for appends.
func NewAnonLabelRecord() *AnonLabelRecord {
	return &AnonLabelRecord{Refs: make(map[int][]Span)}
}
