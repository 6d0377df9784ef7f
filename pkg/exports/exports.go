// Package exports is the workspace-wide index of exported names: a
// union over files of each file's exports, keyed by base name.
package exports

import "github.com/ca65lsp/ca65lsp/pkg/model"

// Entry is one exported name, tying the entity back to the file and
// scope that declared it.
type Entry struct {
	Name           string
	File           string
	Entity         model.EntityID
	EnclosingScope model.EntityID
}

// Map is the per-name stacks of exports across the workspace.
type Map struct {
	byName map[string][]Entry
	byFile map[string]map[string]struct{} // file -> set of names it currently exports
}

// New returns an empty exports map.
func New() *Map {
	return &Map{
		byName: make(map[string][]Entry),
		byFile: make(map[string]map[string]struct{}),
	}
}

// UpdateExports atomically replaces every export previously
// contributed by file with newEntries: removes file's old entries
// from every keyed stack first, then inserts the new set.
func (m *Map) UpdateExports(file string, newEntries []Entry) {
	m.removeFile(file)

	names := make(map[string]struct{}, len(newEntries))
	for _, e := range newEntries {
		e.File = file
		m.byName[e.Name] = append(m.byName[e.Name], e)
		names[e.Name] = struct{}{}
	}
	if len(names) > 0 {
		m.byFile[file] = names
	}
}

// removeFile drops every entry file previously contributed, from
// every keyed stack it appears in.
func (m *Map) removeFile(file string) {
	for name := range m.byFile[file] {
		stack := m.byName[name]
		kept := stack[:0]
		for _, e := range stack {
			if e.File != file {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(m.byName, name)
		} else {
			m.byName[name] = kept
		}
	}
	delete(m.byFile, file)
}

// RemoveFile clears every export file contributed (used when a file
// is deleted from the workspace).
func (m *Map) RemoveFile(file string) {
	m.removeFile(file)
}

// Lookup returns the current export stack for name, in insertion
// order of surviving entries.
func (m *Map) Lookup(name string) []Entry {
	return m.byName[name]
}
