// Package editor provides the rich-text editing surface bound to each test
// case. Authors write markdown in a bubbles textarea; Content serialises it to
// HTML markup with local screenshots inlined as data URIs.
package editor

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
)

// Control is a formatting control offered by the editor toolbar.
type Control string

const (
	Bold      Control = "bold"
	Italic    Control = "italic"
	Underline Control = "underline"
	Ordered   Control = "ordered"
	Bullet    Control = "bullet"
	Link      Control = "link"
	Image     Control = "image"
	Clean     Control = "clean"
)

// DefaultToolbar is the full set of controls, in toolbar order.
var DefaultToolbar = []Control{Bold, Italic, Underline, Ordered, Bullet, Link, Image, Clean}

// DefaultPlaceholder is shown in an empty editor.
const DefaultPlaceholder = "Describe the actual result, add screenshots with alt+p..."

// Config enumerates the presentational options for a new editor.
type Config struct {
	Toolbar     []Control
	Placeholder string
	Height      int
	// BaseDir resolves relative screenshot paths. Empty means the working directory.
	BaseDir string
}

func (c Config) withDefaults() Config {
	if c.Toolbar == nil {
		c.Toolbar = DefaultToolbar
	}
	if c.Placeholder == "" {
		c.Placeholder = DefaultPlaceholder
	}
	if c.Height <= 0 {
		c.Height = 5
	}
	return c
}

// Handle is a live editor instance scoped to one test case.
type Handle interface {
	ScopeID() int
	// Content returns the current document as HTML markup.
	Content() (string, error)
}

// Factory creates and destroys editor instances.
type Factory interface {
	Create(scopeID int, cfg Config) Handle
	Destroy(h Handle)
}

// Surface is the textarea-backed Handle. It doubles as a Bubble Tea
// component for the form that hosts it.
type Surface struct {
	scope     int
	cfg       Config
	area      textarea.Model
	destroyed bool
}

// ScopeID returns the id of the test case this surface belongs to.
func (s *Surface) ScopeID() int { return s.scope }

// Content converts the markdown source to HTML markup.
func (s *Surface) Content() (string, error) {
	return ToHTML(s.area.Value(), s.cfg.BaseDir)
}

// Value returns the raw markdown source.
func (s *Surface) Value() string { return s.area.Value() }

// SetValue replaces the markdown source.
func (s *Surface) SetValue(v string) { s.area.SetValue(v) }

// Destroyed reports whether the owning factory has released this surface.
func (s *Surface) Destroyed() bool { return s.destroyed }

// Focus gives the surface keyboard focus.
func (s *Surface) Focus() tea.Cmd { return s.area.Focus() }

// Blur removes keyboard focus.
func (s *Surface) Blur() { s.area.Blur() }

// Focused reports whether the surface has keyboard focus.
func (s *Surface) Focused() bool { return s.area.Focused() }

// SetWidth resizes the editing area.
func (s *Surface) SetWidth(w int) { s.area.SetWidth(w) }

// Update forwards a message to the textarea. Toolbar shortcuts are handled
// here before the textarea sees the key.
func (s *Surface) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		if c, ok := s.shortcut(key.String()); ok {
			s.Apply(c)
			return nil
		}
	}
	var cmd tea.Cmd
	s.area, cmd = s.area.Update(msg)
	return cmd
}

// View renders the textarea.
func (s *Surface) View() string { return s.area.View() }

// Apply runs a toolbar control against the current cursor position.
// Controls not enabled in the surface's toolbar are ignored.
func (s *Surface) Apply(c Control) {
	if !s.enabled(c) {
		return
	}
	if c == Clean {
		s.area.SetValue(StripFormatting(s.area.Value()))
		s.area.CursorEnd()
		return
	}
	s.area.InsertString(snippets[c])
}

// Toolbar returns a one-line hint describing the enabled controls.
func (s *Surface) Toolbar() string {
	var parts []string
	for _, c := range s.cfg.Toolbar {
		if k, ok := shortcutKeys[c]; ok {
			parts = append(parts, k+" "+string(c))
		}
	}
	return strings.Join(parts, "  ")
}

func (s *Surface) enabled(c Control) bool {
	for _, t := range s.cfg.Toolbar {
		if t == c {
			return true
		}
	}
	return false
}

func (s *Surface) shortcut(key string) (Control, bool) {
	for c, k := range shortcutKeys {
		if k == key && s.enabled(c) {
			return c, true
		}
	}
	return "", false
}

var shortcutKeys = map[Control]string{
	Bold:      "alt+b",
	Italic:    "alt+i",
	Underline: "alt+u",
	Ordered:   "alt+o",
	Bullet:    "alt+l",
	Link:      "alt+k",
	Image:     "alt+p",
	Clean:     "alt+x",
}

var snippets = map[Control]string{
	Bold:      "**bold**",
	Italic:    "_italic_",
	Underline: "<u>underline</u>",
	Ordered:   "\n1. ",
	Bullet:    "\n- ",
	Link:      "[text](https://)",
	Image:     "![screenshot](./screenshot.png)",
}

// TextareaFactory creates Surface handles. The zero value is ready to use.
type TextareaFactory struct{}

// Create builds a new surface scoped to scopeID.
func (TextareaFactory) Create(scopeID int, cfg Config) Handle {
	cfg = cfg.withDefaults()

	ta := textarea.New()
	ta.Placeholder = cfg.Placeholder
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(cfg.Height)

	return &Surface{scope: scopeID, cfg: cfg, area: ta}
}

// Destroy releases a surface. The handle must not be used afterwards.
func (TextareaFactory) Destroy(h Handle) {
	s, ok := h.(*Surface)
	if !ok || s.destroyed {
		return
	}
	s.area.Blur()
	s.area.Reset()
	s.destroyed = true
}
