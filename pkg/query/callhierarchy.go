package query

import "github.com/ca65lsp/ca65lsp/pkg/model"

// CallHierarchyItem names an entity that can anchor a call hierarchy
// view: a symbol or a proc-kind scope.
type CallHierarchyItem struct {
	Entity model.EntityID
	URI    string
	Name   string
	Span   model.Span
}

// CallHierarchyCall pairs a hierarchy item with the call sites tying
// it to the item the query started from.
type CallHierarchyCall struct {
	Item      CallHierarchyItem
	CallSites []model.Span
}

// PrepareCallHierarchy accepts the cursor position if it names a
// symbol or a proc-kind scope, the two entity kinds jsr/jmp can target
// (spec §4.3's calling-entity tagging only ever points at one of
// these).
func (s *Service) PrepareCallHierarchy(uri string, pos model.Pos) (CallHierarchyItem, bool) {
	tbl, ok := s.Tables.Table(uri)
	if !ok {
		return CallHierarchyItem{}, false
	}
	ref, ok := tbl.FindReferenceAt(pos)
	if !ok {
		return CallHierarchyItem{}, false
	}
	target, ok := s.Resolver.Resolve(ref, s.ImplicitImports)
	if !ok {
		return CallHierarchyItem{}, false
	}
	targetTbl, ok := s.Tables.Table(target.URI)
	if !ok {
		return CallHierarchyItem{}, false
	}
	ent, ok := targetTbl.Entity(target)
	if !ok {
		return CallHierarchyItem{}, false
	}
	if ent.Kind != model.EntitySymbol && !(ent.Kind == model.EntityScope && ent.ScopeKind == model.ScopeKindProc) {
		return CallHierarchyItem{}, false
	}
	return CallHierarchyItem{Entity: target, URI: target.URI, Name: ent.Name, Span: ent.DefSpan}, true
}

// IncomingCalls groups every jsr/jmp reference that resolves to item
// by its calling entity (the active label, or the enclosing proc).
func (s *Service) IncomingCalls(item CallHierarchyItem) []CallHierarchyCall {
	byCaller := map[model.EntityID]*CallHierarchyCall{}
	var order []model.EntityID

	for _, uri := range s.Tables.URIs() {
		tbl, ok := s.Tables.Table(uri)
		if !ok {
			continue
		}
		for _, ref := range tbl.References() {
			if ref.CallingEntity == model.NoEntity {
				continue
			}
			got, ok := s.Resolver.Resolve(ref, s.ImplicitImports)
			if !ok || got != item.Entity {
				continue
			}
			call, seen := byCaller[ref.CallingEntity]
			if !seen {
				call = &CallHierarchyCall{Item: s.itemFor(ref.CallingEntity)}
				byCaller[ref.CallingEntity] = call
				order = append(order, ref.CallingEntity)
			}
			call.CallSites = append(call.CallSites, ref.Span)
		}
	}

	out := make([]CallHierarchyCall, 0, len(order))
	for _, id := range order {
		out = append(out, *byCaller[id])
	}
	return out
}

// OutgoingCalls enumerates references in item's own file whose
// calling entity is item, grouped by resolved target.
func (s *Service) OutgoingCalls(item CallHierarchyItem) []CallHierarchyCall {
	tbl, ok := s.Tables.Table(item.URI)
	if !ok {
		return nil
	}

	byTarget := map[model.EntityID]*CallHierarchyCall{}
	var order []model.EntityID

	for _, ref := range tbl.References() {
		if ref.CallingEntity != item.Entity {
			continue
		}
		target, ok := s.Resolver.Resolve(ref, s.ImplicitImports)
		if !ok {
			continue
		}
		call, seen := byTarget[target]
		if !seen {
			call = &CallHierarchyCall{Item: s.itemFor(target)}
			byTarget[target] = call
			order = append(order, target)
		}
		call.CallSites = append(call.CallSites, ref.Span)
	}

	out := make([]CallHierarchyCall, 0, len(order))
	for _, id := range order {
		out = append(out, *byTarget[id])
	}
	return out
}

func (s *Service) itemFor(id model.EntityID) CallHierarchyItem {
	tbl, ok := s.Tables.Table(id.URI)
	if !ok {
		return CallHierarchyItem{Entity: id, URI: id.URI}
	}
	ent, ok := tbl.Entity(id)
	if !ok {
		return CallHierarchyItem{Entity: id, URI: id.URI}
	}
	return CallHierarchyItem{Entity: id, URI: id.URI, Name: ent.Name, Span: ent.DefSpan}
}
