package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcadam/verdict/pkg/cases"
	"github.com/jcadam/verdict/pkg/editor"
)

func threeCases(t *testing.T) (*cases.Registry, []cases.ID) {
	t.Helper()
	reg := cases.New(editor.TextareaFactory{}, editor.Config{})
	ids := []cases.ID{reg.Add(), reg.Add(), reg.Add()}
	return reg, ids
}

func TestSortableMoves(t *testing.T) {
	reg, ids := threeCases(t)
	s := NewSortable(reg, DefaultSortableOptions())

	assert.False(t, s.Down(), "nothing held")

	require.True(t, s.Grab(ids[0]))
	assert.True(t, s.Holding(ids[0]))
	assert.True(t, s.Down())
	assert.True(t, s.Down())
	assert.False(t, s.Down(), "already last")
	s.Drop()

	assert.Equal(t, []cases.ID{ids[1], ids[2], ids[0]}, reg.IDs())
	_, held := s.Grabbed()
	assert.False(t, held)
}

func TestSortableCancelRestoresOrder(t *testing.T) {
	reg, ids := threeCases(t)
	s := NewSortable(reg, DefaultSortableOptions())

	require.True(t, s.Grab(ids[2]))
	s.Up()
	s.Up()
	assert.Equal(t, []cases.ID{ids[2], ids[0], ids[1]}, reg.IDs())

	s.Cancel()
	assert.Equal(t, ids, reg.IDs())
}

func TestSortableKeepsIDs(t *testing.T) {
	reg, ids := threeCases(t)
	require.NoError(t, reg.SetName(ids[0], "first"))
	s := NewSortable(reg, DefaultSortableOptions())

	s.Grab(ids[0])
	s.Down()
	s.Drop()

	e, ok := reg.Entry(ids[0])
	require.True(t, ok)
	assert.Equal(t, "first", e.Name)
	assert.Equal(t, 2, reg.Position(ids[0]))
}

func TestSortableGrabUnknown(t *testing.T) {
	reg, _ := threeCases(t)
	s := NewSortable(reg, DefaultSortableOptions())
	assert.False(t, s.Grab(99))
}

func TestSortableForget(t *testing.T) {
	reg, ids := threeCases(t)
	s := NewSortable(reg, SortableOptions{})
	assert.Equal(t, DefaultHandle, s.Handle())

	s.Grab(ids[1])
	s.Forget(ids[0])
	assert.True(t, s.Holding(ids[1]))
	s.Forget(ids[1])
	_, held := s.Grabbed()
	assert.False(t, held)
}

func TestSortableTitle(t *testing.T) {
	reg, ids := threeCases(t)
	s := NewSortable(reg, DefaultSortableOptions())
	assert.Equal(t, "☰ Test case #1", s.Title(ids[0], "Test case #1"))
	assert.Equal(t, "body", s.Body(ids[0], "body"))
}
