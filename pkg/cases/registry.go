// Package cases holds the live, ordered set of test-case entries and the
// editor instance each one owns.
package cases

import (
	"errors"
	"fmt"

	"github.com/jcadam/verdict/pkg/editor"
)

// ErrUnknownEntry is returned for ids that are not live.
var ErrUnknownEntry = errors.New("unknown test case")

// ID identifies an entry for its whole life. Ids are never reused.
type ID int

// Entry is one recorded test case.
type Entry struct {
	ID     ID
	Name   string
	Status Status
}

// Row is an entry as seen by the report compiler.
type Row struct {
	ID     ID
	Name   string
	Status Status
}

// Registry is the ordered collection of entries. It exclusively owns one
// editor handle per entry, keyed by id.
//
// A Registry is not safe for concurrent use; the form drives it from a
// single event loop.
type Registry struct {
	factory editor.Factory
	cfg     editor.Config

	lastID  ID
	order   []ID
	entries map[ID]*Entry
	editors map[ID]editor.Handle
}

// New creates an empty registry that builds editors with factory.
func New(factory editor.Factory, cfg editor.Config) *Registry {
	return &Registry{
		factory: factory,
		cfg:     cfg,
		entries: make(map[ID]*Entry),
		editors: make(map[ID]editor.Handle),
	}
}

// Add appends a new entry with status Pass and returns its id.
func (r *Registry) Add() ID {
	r.lastID++
	id := r.lastID

	r.entries[id] = &Entry{ID: id, Status: Pass}
	r.editors[id] = r.factory.Create(int(id), r.cfg)
	r.order = append(r.order, id)
	return id
}

// Remove destroys the entry's editor and drops it from the list.
func (r *Registry) Remove(id ID) error {
	if _, ok := r.entries[id]; !ok {
		return fmt.Errorf("removing case #%d: %w", id, ErrUnknownEntry)
	}
	if h, ok := r.editors[id]; ok {
		r.factory.Destroy(h)
		delete(r.editors, id)
	}
	delete(r.entries, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Move shifts an entry delta places in display order, clamped to the ends
// of the list. It reports whether the order changed.
func (r *Registry) Move(id ID, delta int) bool {
	from := r.Position(id) - 1
	if from < 0 || delta == 0 {
		return false
	}
	to := from + delta
	if to < 0 {
		to = 0
	}
	if to > len(r.order)-1 {
		to = len(r.order) - 1
	}
	if to == from {
		return false
	}
	r.order = append(r.order[:from], r.order[from+1:]...)
	r.order = append(r.order[:to], append([]ID{id}, r.order[to:]...)...)
	return true
}

// Position returns the 1-based display position of id, or 0 if it is not live.
func (r *Registry) Position(id ID) int {
	for i, v := range r.order {
		if v == id {
			return i + 1
		}
	}
	return 0
}

// SetName updates an entry's name.
func (r *Registry) SetName(id ID, name string) error {
	e, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("renaming case #%d: %w", id, ErrUnknownEntry)
	}
	e.Name = name
	return nil
}

// SetStatus updates an entry's status. Any value is stored; the compiler
// ignores values outside Pass, Fail, Skip.
func (r *Registry) SetStatus(id ID, s Status) error {
	e, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("setting status of case #%d: %w", id, ErrUnknownEntry)
	}
	e.Status = s
	return nil
}

// Entry returns a copy of the entry with the given id.
func (r *Registry) Entry(id ID) (Entry, bool) {
	e, ok := r.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Editor returns the editor handle owned by id.
func (r *Registry) Editor(id ID) (editor.Handle, bool) {
	h, ok := r.editors[id]
	return h, ok
}

// IDs returns live ids in display order.
func (r *Registry) IDs() []ID {
	out := make([]ID, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of live entries.
func (r *Registry) Len() int { return len(r.order) }

// EditorCount returns the number of live editor handles.
func (r *Registry) EditorCount() int { return len(r.editors) }

// Rows returns the entries in display order.
func (r *Registry) Rows() []Row {
	rows := make([]Row, 0, len(r.order))
	for _, id := range r.order {
		e := r.entries[id]
		rows = append(rows, Row{ID: e.ID, Name: e.Name, Status: e.Status})
	}
	return rows
}

// Content returns the serialised markup of id's editor. ok is false when no
// editor is bound to id.
func (r *Registry) Content(id ID) (markup string, ok bool, err error) {
	h, found := r.editors[id]
	if !found {
		return "", false, nil
	}
	markup, err = h.Content()
	return markup, true, err
}
