// Package symtab is the per-file symbol table: a scope tree plus flat
// tables for macros and references, built by pkg/scanner during a
// single forward pass and replaced wholesale on rescan.
package symtab

import (
	"github.com/ca65lsp/ca65lsp/pkg/anonlocal"
	"github.com/ca65lsp/ca65lsp/pkg/model"
)

// Table holds every entity and reference produced by scanning one
// file. Entities are addressed by their arena index; Root is always
// index 0.
type Table struct {
	URI string

	entities []model.Entity
	macros   map[string]model.EntityID // flat, file-scoped macro namespace
	refs     []model.Reference

	// childIndex[scopeIndex][name] lists child entity indices added
	// under that scope, in insertion order, preserving first-wins on
	// lookup while still allowing later homonyms to exist for rename.
	childIndex map[int]map[string][]int

	Anon *model.AnonLabelRecord

	// RawIncludes holds every `.include "path"` literal seen, in scan
	// order, exactly as written. pkg/engine resolves each through the
	// workspace include-dir search path and builds the includes graph
	// edge; the scanner has no filesystem access of its own.
	RawIncludes []string

	// CheapLocals and Boundaries back on-demand "@name" resolution
	// (pkg/anonlocal.ResolveCheapLocal); cheap locals have no entry of
	// their own in the scope tree.
	CheapLocals []anonlocal.CheapLocal
	Boundaries  []anonlocal.Boundary
}

// New creates an empty table with its root scope already in place.
func New(uri string) *Table {
	t := &Table{
		URI:        uri,
		macros:     make(map[string]model.EntityID),
		childIndex: make(map[int]map[string][]int),
		Anon:       model.NewAnonLabelRecord(),
	}
	root := model.Entity{
		Kind:      model.EntityScope,
		Name:      "",
		ScopeKind: model.ScopeKindScope,
		Parent:    model.NoEntity,
	}
	t.entities = append(t.entities, root)
	t.entities[0].ID = model.EntityID{URI: uri, Index: 0}
	return t
}

// Root returns the root scope's entity ID.
func (t *Table) Root() model.EntityID {
	return model.EntityID{URI: t.URI, Index: 0}
}

func (t *Table) at(id model.EntityID) *model.Entity {
	if id.URI != t.URI || id.Index < 0 || id.Index >= len(t.entities) {
		return nil
	}
	return &t.entities[id.Index]
}

// Entity returns the entity for id, or false if id is not owned by
// this table.
func (t *Table) Entity(id model.EntityID) (model.Entity, bool) {
	e := t.at(id)
	if e == nil {
		return model.Entity{}, false
	}
	return *e, true
}

// Entities iterates every defined entity in the file, in creation
// (definition) order.
func (t *Table) Entities() []model.Entity {
	return t.entities
}

// addChild records name -> index under scope, preserving insertion
// order so first-definition-wins lookup sees the earliest entry
// first while later homonyms remain reachable for completeness.
func (t *Table) addChild(scope model.EntityID, name string, index int) {
	m, ok := t.childIndex[scope.Index]
	if !ok {
		m = make(map[string][]int)
		t.childIndex[scope.Index] = m
	}
	m[name] = append(m[name], index)
}

// firstChild returns the earliest-defined child entity of scope named
// name, or NoEntity.
func (t *Table) firstChild(scope model.EntityID, name string) model.EntityID {
	m := t.childIndex[scope.Index]
	if m == nil {
		return model.NoEntity
	}
	indices := m[name]
	if len(indices) == 0 {
		return model.NoEntity
	}
	return model.EntityID{URI: t.URI, Index: indices[0]}
}

func (t *Table) push(e model.Entity) model.EntityID {
	idx := len(t.entities)
	e.ID = model.EntityID{URI: t.URI, Index: idx}
	t.entities = append(t.entities, e)
	return e.ID
}

// AddScope creates a new child scope of kind under parent and returns
// its ID. The parent's Children list is extended.
func (t *Table) AddScope(parent model.EntityID, name string, kind model.ScopeKind, segment string, def model.Span) model.EntityID {
	id := t.push(model.Entity{
		Kind:      model.EntityScope,
		Name:      name,
		DefSpan:   def,
		Scope:     parent,
		Parent:    parent,
		ScopeKind: kind,
		Segment:   segment,
	})
	t.appendChild(parent, id)
	t.addChild(parent, name, id.Index)
	return id
}

// AddSymbol creates a symbol entity under scope.
func (t *Table) AddSymbol(scope model.EntityID, name string, kind model.SymbolKind, def model.Span, segment string) model.EntityID {
	id := t.push(model.Entity{
		Kind:       model.EntitySymbol,
		Name:       name,
		DefSpan:    def,
		Scope:      scope,
		Parent:     scope,
		SymbolKind: kind,
		Segment:    segment,
	})
	t.appendChild(scope, id)
	t.addChild(scope, name, id.Index)
	return id
}

// AddImport creates an import/global entity under scope.
func (t *Table) AddImport(scope model.EntityID, name string, kind model.ImportKind, def model.Span) model.EntityID {
	id := t.push(model.Entity{
		Kind:       model.EntityImport,
		Name:       name,
		DefSpan:    def,
		Scope:      scope,
		Parent:     scope,
		ImportKind: kind,
	})
	t.appendChild(scope, id)
	t.addChild(scope, name, id.Index)
	return id
}

// AddExport creates an export entity under scope, optionally carrying
// an inline constant value.
func (t *Table) AddExport(scope model.EntityID, name string, kind model.ExportKind, def model.Span, constValue string) model.EntityID {
	id := t.push(model.Entity{
		Kind:       model.EntityExport,
		Name:       name,
		DefSpan:    def,
		Scope:      scope,
		Parent:     scope,
		ExportKind: kind,
		ConstValue: constValue,
	})
	t.appendChild(scope, id)
	return id
}

func (t *Table) appendChild(parent model.EntityID, child model.EntityID) {
	p := t.at(parent)
	if p == nil {
		return
	}
	p.Children = append(p.Children, child)
}

// RefineKind refines a label's SymbolKind exactly once. No-op if
// already refined or id is not a label symbol.
func (t *Table) RefineKind(id model.EntityID, kind model.SymbolKind) {
	e := t.at(id)
	if e == nil || e.Kind != model.EntitySymbol || e.KindRefined {
		return
	}
	e.SymbolKind = kind
	e.KindRefined = true
}

// SetEndSpan extends a scope's end position, used when a matching
// .end directive is seen or at EOF.
func (t *Table) SetEndSpan(id model.EntityID, end model.Pos) {
	e := t.at(id)
	if e == nil {
		return
	}
	e.EndSpan = model.Span{Start: e.DefSpan.Start, End: end}
}

// MarkSynthetic flags a scope as carrying a generated, not
// user-written, name (an unnamed .proc/.scope/.struct/.union/.enum).
func (t *Table) MarkSynthetic(id model.EntityID) {
	e := t.at(id)
	if e == nil {
		return
	}
	e.Synthetic = true
}

// SetConstValue records the inline value expression of a constant
// symbol or an `.export name = expr` export.
func (t *Table) SetConstValue(id model.EntityID, value string) {
	e := t.at(id)
	if e == nil {
		return
	}
	e.ConstValue = value
}

// AddRawInclude appends an `.include "path"` literal in scan order.
func (t *Table) AddRawInclude(path string) {
	t.RawIncludes = append(t.RawIncludes, path)
}

// AddBoundary records a new cheap-local scope boundary at line (a
// non-cheap label definition or a .proc/.struct/.union opener).
func (t *Table) AddBoundary(line int) {
	t.Boundaries = append(t.Boundaries, anonlocal.Boundary{Line: line})
}

// AddCheapLocal records an "@name" definition at line/col, scoped to
// the boundary active when it was seen.
func (t *Table) AddCheapLocal(name string, line int, col uint32, boundaryLine int) {
	t.CheapLocals = append(t.CheapLocals, anonlocal.CheapLocal{Name: name, Line: line, Col: col, BoundaryLine: boundaryLine})
}

// AddMacro registers name in the flat macro table if not already
// present (idempotent, first wins).
func (t *Table) AddMacro(name string, kind model.MacroKind, def model.Span) model.EntityID {
	if id, ok := t.macros[name]; ok {
		return id
	}
	id := t.push(model.Entity{
		Kind:      model.EntityMacro,
		Name:      name,
		DefSpan:   def,
		Scope:     t.Root(),
		Parent:    t.Root(),
		MacroKind: kind,
	})
	t.macros[name] = id
	return id
}

// LookupMacro finds a macro by name in the flat per-file namespace.
func (t *Table) LookupMacro(name string) (model.EntityID, bool) {
	id, ok := t.macros[name]
	return id, ok
}

// AddReference records a use site.
func (t *Table) AddReference(ref model.Reference) {
	t.refs = append(t.refs, ref)
}

// References returns every reference recorded in the file, in scan
// order.
func (t *Table) References() []model.Reference {
	return t.refs
}

// FindScopeAt returns the innermost scope whose span contains pos, or
// the root scope if none is more specific.
func (t *Table) FindScopeAt(pos model.Pos) model.EntityID {
	best := t.Root()
	bestDepth := -1
	for i := range t.entities {
		e := &t.entities[i]
		if e.Kind != model.EntityScope {
			continue
		}
		if !spanContains(e.DefSpan, e.EndSpan, pos) {
			continue
		}
		depth := scopeDepth(t, e.ID)
		if depth > bestDepth {
			best = e.ID
			bestDepth = depth
		}
	}
	return best
}

func scopeDepth(t *Table, id model.EntityID) int {
	depth := 0
	for {
		e := t.at(id)
		if e == nil || e.Parent.IsZero() {
			break
		}
		id = e.Parent
		depth++
	}
	return depth
}

func spanContains(def, end model.Span, pos model.Pos) bool {
	stop := end.End
	if stop == (model.Pos{}) {
		stop = def.Start
	}
	if posLess(pos, def.Start) {
		return false
	}
	return !posLess(stop, pos)
}

func posLess(a, b model.Pos) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Col < b.Col
}

// FindReferenceAt returns the reference, if any, whose span contains
// pos.
func (t *Table) FindReferenceAt(pos model.Pos) (model.Reference, bool) {
	for _, r := range t.refs {
		if !posLess(pos, r.Span.Start) && posLess(pos, r.Span.End) {
			return r, true
		}
		if r.Span.Start == r.Span.End && r.Span.Start == pos {
			return r, true
		}
	}
	return model.Reference{}, false
}

// Lookup resolves name starting at base, walking up through parent
// scopes, truncating a leading empty qualifier when the walk reaches
// the root. allowImports controls whether an import at the terminal
// scope is accepted as a result.
func (t *Table) Lookup(base model.EntityID, qualifiers []string, name string, ctx model.RefContext, allowImports bool) (model.EntityID, bool) {
	scope := base
	for {
		if id, ok := t.lookupFrom(scope, qualifiers, name, ctx, allowImports); ok {
			return id, true
		}
		e := t.at(scope)
		if e == nil || e.Parent == model.NoEntity {
			return model.NoEntity, false
		}
		scope = e.Parent
	}
}

// lookupFrom attempts one descent through quals starting at scope,
// without retrying at the parent.
func (t *Table) lookupFrom(scope model.EntityID, quals []string, name string, ctx model.RefContext, allowImports bool) (model.EntityID, bool) {
	cur := scope
	qs := quals
	if len(qs) > 0 && qs[0] == "" {
		// Root anchor: only valid when scope IS the root already;
		// otherwise this attempt fails and the caller retries higher.
		if cur != t.Root() {
			return model.NoEntity, false
		}
		qs = qs[1:]
	}
	for _, q := range qs {
		child := t.firstChild(cur, q)
		if child == model.NoEntity {
			return model.NoEntity, false
		}
		ce := t.at(child)
		if ce == nil || ce.Kind != model.EntityScope {
			return model.NoEntity, false
		}
		cur = child
	}

	if ctx == model.RefContextScope {
		if id := t.firstChild(cur, name); id != model.NoEntity {
			if e := t.at(id); e != nil && e.Kind == model.EntityScope {
				return id, true
			}
		}
	}
	if id := t.firstChild(cur, name); id != model.NoEntity {
		e := t.at(id)
		if e != nil {
			switch e.Kind {
			case model.EntityScope:
				if e.ScopeKind == model.ScopeKindProc {
					return id, true
				}
			case model.EntitySymbol:
				return id, true
			case model.EntityImport:
				if allowImports {
					return id, true
				}
			}
		}
	}
	return model.NoEntity, false
}

// ShortestRelativeName computes the shortest qualifier chain that
// resolves back to target from queryScope, trying suffixes of
// increasing length of target's own scope stack. Falls back to the
// fully qualified (root-anchored) name if nothing shorter resolves
// unambiguously, or the unanchored qualified name if no attempt
// produced a conflicting hit.
func (t *Table) ShortestRelativeName(target model.EntityID, queryScope model.EntityID) string {
	e := t.at(target)
	if e == nil {
		return ""
	}
	stack := t.scopeStack(e.Scope)

	sawConflict := false
	for n := 0; n <= len(stack); n++ {
		quals := make([]string, 0, n)
		for i := len(stack) - n; i < len(stack); i++ {
			quals = append(quals, stack[i].Name)
		}
		got, ok := t.Lookup(queryScope, quals, e.Name, model.RefContextSymbol, true)
		if ok && got == target {
			return joinQualified(quals, e.Name, false)
		}
		if ok {
			sawConflict = true
		}
	}

	full := make([]string, len(stack))
	for i, s := range stack {
		full[i] = s.Name
	}
	return joinQualified(full, e.Name, sawConflict)
}

func joinQualified(quals []string, name string, rootAnchored bool) string {
	parts := append([]string{}, quals...)
	parts = append(parts, name)
	sep := "::"
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	if rootAnchored {
		out = sep + out
	}
	return out
}

// scopeStack returns the chain from the root's first child down to
// scope (root itself excluded), outermost first.
func (t *Table) scopeStack(scope model.EntityID) []model.Entity {
	var chain []model.Entity
	for id := scope; id != t.Root() && id != model.NoEntity; {
		e := t.at(id)
		if e == nil {
			break
		}
		chain = append(chain, *e)
		id = e.Parent
	}
	// reverse to outermost-first
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
