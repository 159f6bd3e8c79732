package form

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jcadam/verdict/pkg/cases"
)

// DefaultHandle is the drag handle glyph drawn on every card title.
const DefaultHandle = "☰"

// List is the ordered collection a Sortable rearranges.
type List interface {
	Move(id cases.ID, delta int) bool
	Position(id cases.ID) int
}

// SortableOptions styles the reorder interaction.
type SortableOptions struct {
	Handle      string
	ChosenStyle lipgloss.Style // the grabbed card's title
	GhostStyle  lipgloss.Style // the grabbed card's body while it moves
}

// DefaultSortableOptions returns the handle glyph with chosen and ghost styles.
func DefaultSortableOptions() SortableOptions {
	return SortableOptions{
		Handle:      DefaultHandle,
		ChosenStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E0AF68")),
		GhostStyle:  lipgloss.NewStyle().Faint(true),
	}
}

// Sortable is a grab-and-move reorder interaction over a List. It only
// changes display order; ids are never touched.
type Sortable struct {
	list    List
	opts    SortableOptions
	grabbed cases.ID
	origin  int
	active  bool
}

// NewSortable attaches a reorder interaction to list.
func NewSortable(list List, opts SortableOptions) *Sortable {
	if opts.Handle == "" {
		opts.Handle = DefaultHandle
	}
	return &Sortable{list: list, opts: opts}
}

// Handle returns the handle glyph.
func (s *Sortable) Handle() string { return s.opts.Handle }

// Grab picks up id. Grabbing while another card is held drops that card first.
func (s *Sortable) Grab(id cases.ID) bool {
	pos := s.list.Position(id)
	if pos == 0 {
		return false
	}
	s.grabbed = id
	s.origin = pos
	s.active = true
	return true
}

// Grabbed returns the held card, if any.
func (s *Sortable) Grabbed() (cases.ID, bool) { return s.grabbed, s.active }

// Holding reports whether id is the held card.
func (s *Sortable) Holding(id cases.ID) bool { return s.active && s.grabbed == id }

// Up moves the held card one place towards the top.
func (s *Sortable) Up() bool { return s.shift(-1) }

// Down moves the held card one place towards the bottom.
func (s *Sortable) Down() bool { return s.shift(1) }

func (s *Sortable) shift(delta int) bool {
	if !s.active {
		return false
	}
	return s.list.Move(s.grabbed, delta)
}

// Drop releases the held card where it is.
func (s *Sortable) Drop() {
	s.active = false
	s.grabbed = 0
	s.origin = 0
}

// Cancel returns the held card to where it was grabbed and releases it.
func (s *Sortable) Cancel() {
	if s.active {
		if pos := s.list.Position(s.grabbed); pos != 0 {
			s.list.Move(s.grabbed, s.origin-pos)
		}
	}
	s.Drop()
}

// Forget releases the hold if id is the held card, for a card being removed.
func (s *Sortable) Forget(id cases.ID) {
	if s.Holding(id) {
		s.Drop()
	}
}

// Title renders a card title with its handle, styled while held.
func (s *Sortable) Title(id cases.ID, title string) string {
	out := s.opts.Handle + " " + title
	if s.Holding(id) {
		return s.opts.ChosenStyle.Render(out)
	}
	return out
}

// Body styles a card body, dimmed while held.
func (s *Sortable) Body(id cases.ID, body string) string {
	if s.Holding(id) {
		return s.opts.GhostStyle.Render(body)
	}
	return body
}
