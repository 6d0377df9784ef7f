package exports

import (
	"testing"

	"github.com/ca65lsp/ca65lsp/pkg/model"
	"github.com/stretchr/testify/assert"
)

func TestUpdateExportsInsertsAndLooksUp(t *testing.T) {
	m := New()
	id := model.EntityID{URI: "file:///a.s", Index: 1}
	m.UpdateExports("file:///a.s", []Entry{{Name: "Foo", Entity: id}})

	got := m.Lookup("Foo")
	assert.Len(t, got, 1)
	assert.Equal(t, id, got[0].Entity)
	assert.Equal(t, "file:///a.s", got[0].File)
}

func TestUpdateExportsReplacesAtomically(t *testing.T) {
	m := New()
	idOld := model.EntityID{URI: "file:///a.s", Index: 1}
	idNew := model.EntityID{URI: "file:///a.s", Index: 2}
	m.UpdateExports("file:///a.s", []Entry{{Name: "Foo", Entity: idOld}})
	m.UpdateExports("file:///a.s", []Entry{{Name: "Bar", Entity: idNew}})

	assert.Empty(t, m.Lookup("Foo"))
	assert.Len(t, m.Lookup("Bar"), 1)
}

func TestUpdateExportsPreservesOtherFilesEntries(t *testing.T) {
	m := New()
	idA := model.EntityID{URI: "file:///a.s", Index: 1}
	idB := model.EntityID{URI: "file:///b.s", Index: 1}
	m.UpdateExports("file:///a.s", []Entry{{Name: "Shared", Entity: idA}})
	m.UpdateExports("file:///b.s", []Entry{{Name: "Shared", Entity: idB}})

	got := m.Lookup("Shared")
	assert.Len(t, got, 2)

	m.UpdateExports("file:///a.s", nil)
	got = m.Lookup("Shared")
	assert.Len(t, got, 1)
	assert.Equal(t, idB, got[0].Entity)
}

func TestRemoveFileClearsAllItsEntries(t *testing.T) {
	m := New()
	id := model.EntityID{URI: "file:///a.s", Index: 1}
	m.UpdateExports("file:///a.s", []Entry{{Name: "Foo", Entity: id}, {Name: "Bar", Entity: id}})

	m.RemoveFile("file:///a.s")

	assert.Empty(t, m.Lookup("Foo"))
	assert.Empty(t, m.Lookup("Bar"))
}

func TestInsertionOrderPreservedAcrossFiles(t *testing.T) {
	m := New()
	id1 := model.EntityID{URI: "file:///a.s", Index: 1}
	id2 := model.EntityID{URI: "file:///b.s", Index: 1}
	id3 := model.EntityID{URI: "file:///c.s", Index: 1}
	m.UpdateExports("file:///a.s", []Entry{{Name: "Shared", Entity: id1}})
	m.UpdateExports("file:///b.s", []Entry{{Name: "Shared", Entity: id2}})
	m.UpdateExports("file:///c.s", []Entry{{Name: "Shared", Entity: id3}})

	got := m.Lookup("Shared")
	assert.Equal(t, []model.EntityID{id1, id2, id3}, []model.EntityID{got[0].Entity, got[1].Entity, got[2].Entity})
}
