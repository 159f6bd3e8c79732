// Package form is the interactive case form. Each test case is a card with a
// name, a status and an editor; submitting compiles the cases and shows the
// report viewer in place of the form until the user returns with esc.
package form

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"

	"github.com/jcadam/verdict/pkg/app"
	"github.com/jcadam/verdict/pkg/cases"
	"github.com/jcadam/verdict/pkg/editor"
	"github.com/jcadam/verdict/pkg/render"
)

// --- Styles (TokyoNight palette) ---

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5FD7")).PaddingLeft(1)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7DCFFF"))
	helpBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#565F89"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7768E"))
	buttonStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#3D59A1")).Padding(0, 1)
	removeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7768E"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B4261")).
			Padding(0, 1)
	focusedCardStyle = cardStyle.BorderForeground(lipgloss.Color("#7AA2F7"))

	statusStyles = map[cases.Status]lipgloss.Style{
		cases.Pass: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#28A745")),
		cases.Fail: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#DC3545")),
		cases.Skip: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6C757D")),
	}
)

// field is the focused input within a card.
type field int

const (
	fieldName field = iota
	fieldStatus
	fieldEditor
)

const numFields = 3

// projectCard is the card index of the project name input above the cards.
const projectCard = -1

type mode int

const (
	modeForm mode = iota
	modeReport
)

const (
	zoneAdd    = "form-add"
	zoneSubmit = "form-submit"
)

// Model is the Bubble Tea model for the case form.
type Model struct {
	app   *app.App
	ctx   context.Context
	zones *zone.Manager
	sort  *Sortable

	project textinput.Model
	names   map[cases.ID]textinput.Model

	card  int // index into the display order, or projectCard
	field field

	mode       mode
	viewer     render.Viewer
	viewerOpts []render.ViewerOption

	body   viewport.Model
	ready  bool
	width  int
	height int
	notice string
}

// Option configures a Model.
type Option func(*Model)

// WithContext provides the context exports and uploads run under.
func WithContext(ctx context.Context) Option {
	return func(m *Model) { m.ctx = ctx }
}

// WithZones enables mouse targets. View scans the manager's marks.
func WithZones(z *zone.Manager) Option {
	return func(m *Model) { m.zones = z }
}

// WithViewerOptions adds options to the report viewer created on submit.
func WithViewerOptions(opts ...render.ViewerOption) Option {
	return func(m *Model) { m.viewerOpts = append(m.viewerOpts, opts...) }
}

// New builds the form over a's registry.
func New(a *app.App, opts ...Option) Model {
	project := textinput.New()
	project.Placeholder = "report"
	project.Prompt = ""
	project.SetValue(a.Project())

	m := Model{
		app:     a,
		ctx:     context.Background(),
		sort:    NewSortable(a.Registry, DefaultSortableOptions()),
		project: project,
		names:   make(map[cases.ID]textinput.Model),
		width:   80,
		height:  24,
	}
	for _, opt := range opts {
		opt(&m)
	}
	for _, id := range a.Registry.IDs() {
		m.names[id] = newNameInput(a.Registry, id)
	}
	m.body = viewport.New(m.width, m.bodyHeight())
	m.applyFocus()
	m.refresh()
	return m
}

func newNameInput(reg *cases.Registry, id cases.ID) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "Case name"
	ti.Prompt = ""
	ti.CharLimit = 200
	if e, ok := reg.Entry(id); ok {
		ti.SetValue(e.Name)
	}
	return ti
}

// Init starts the cursor blink of the focused input.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the form and, while it is shown, the viewer.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		m.resize(ws.Width, ws.Height)
	}

	if m.mode == modeReport {
		return m.updateReport(msg)
	}

	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
	case tea.MouseMsg:
		var model tea.Model
		model, cmd = m.handleMouse(msg)
		m = model.(Model)
	case tea.KeyMsg:
		var model tea.Model
		model, cmd = m.handleKey(msg)
		m = model.(Model)
		if m.mode == modeReport {
			return m, cmd
		}
	default:
		cmd = m.forward(msg)
	}
	m.refresh()
	return m, cmd
}

func (m Model) updateReport(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(render.BackMsg); ok {
		m.mode = modeForm
		m.viewer = render.Viewer{}
		cmd := m.applyFocus()
		m.refresh()
		return m, cmd
	}
	model, cmd := m.viewer.Update(msg)
	m.viewer = model.(render.Viewer)
	return m, cmd
}

// View renders the form, or the viewer after submit.
func (m Model) View() string {
	var out string
	if m.mode == modeReport {
		out = m.viewer.View()
	} else {
		out = m.formView()
	}
	if m.zones != nil {
		return m.zones.Scan(out)
	}
	return out
}

func (m Model) formView() string {
	header := titleStyle.Render("verdict · manual test report")
	project := " " + labelStyle.Render("Project: ") + m.project.View()

	add := m.mark(zoneAdd, buttonStyle.Render("+ Add case"))
	submit := m.mark(zoneSubmit, buttonStyle.Render("Compile report"))
	buttons := " " + add + " " + submit
	if m.notice != "" {
		buttons += " " + errorStyle.Render(m.notice)
	}

	return strings.Join([]string{header, project, "", m.body.View(), buttons, m.helpBar()}, "\n")
}

func (m Model) helpBar() string {
	var hints string
	switch {
	case m.isGrabbing():
		hints = "↑/↓ move │ enter drop │ esc cancel"
	case m.card >= 0 && m.field == fieldStatus:
		hints = "←/→ status │ tab next │ ctrl+g reorder │ ctrl+n add │ ctrl+x remove │ ctrl+s compile │ ctrl+c quit"
	case m.card >= 0 && m.field == fieldEditor:
		hint := "tab next │ ctrl+s compile │ ctrl+c quit"
		if s, ok := m.surface(m.focusedID()); ok {
			if tb := s.Toolbar(); tb != "" {
				hint = tb + " │ " + hint
			}
		}
		hints = hint
	default:
		hints = "tab next │ ctrl+n add │ ctrl+x remove │ ctrl+g reorder │ ctrl+s compile │ ctrl+c quit"
	}
	return helpBarStyle.Render(" " + hints)
}

func (m Model) mark(id, s string) string {
	if m.zones == nil {
		return s
	}
	return m.zones.Mark(id, s)
}

// --- Layout ---

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.body.Width = width
	m.body.Height = m.bodyHeight()
	m.ready = true

	m.project.Width = max(10, width-12)
	for id, ti := range m.names {
		ti.Width = max(10, width-16)
		m.names[id] = ti
	}
	for _, id := range m.app.Registry.IDs() {
		if s, ok := m.surface(id); ok {
			s.SetWidth(max(20, width-8))
		}
	}
}

func (m Model) bodyHeight() int {
	// header, project, blank, buttons, help
	return max(3, m.height-5)
}

// refresh re-renders the cards into the body and scrolls the focused card
// into view.
func (m *Model) refresh() {
	content, top, bottom := m.renderCards()
	m.body.SetContent(content)
	switch {
	case top < m.body.YOffset:
		m.body.SetYOffset(top)
	case bottom > m.body.YOffset+m.body.Height:
		m.body.SetYOffset(max(top, bottom-m.body.Height))
	}
}

// renderCards returns the cards and the line span of the focused one.
func (m Model) renderCards() (string, int, int) {
	ids := m.app.Registry.IDs()
	if len(ids) == 0 {
		return helpBarStyle.Render("  No test cases. Press ctrl+n or click + Add case."), 0, 0
	}

	var b strings.Builder
	top, bottom := 0, 0
	line := 0
	for i, id := range ids {
		card := m.renderCard(i, id)
		height := lipgloss.Height(card)
		if i == m.card {
			top, bottom = line, line+height
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(card)
		line += height
	}
	return b.String(), top, bottom
}

func (m Model) renderCard(index int, id cases.ID) string {
	e, _ := m.app.Registry.Entry(id)
	focused := index == m.card

	title := fmt.Sprintf("Test case #%d", id)
	if name := strings.TrimSpace(e.Name); name != "" {
		title += " · " + runewidth.Truncate(name, max(10, m.width-36), "…")
	}
	title = m.mark(fmt.Sprintf("grab-%d", id), m.sort.Title(id, title))
	remove := m.mark(fmt.Sprintf("remove-%d", id), removeStyle.Render("✕ remove"))
	head := title + "  " + remove

	nameView := m.names[id].View()
	status := statusStyles[e.Status].Render(string(e.Status))
	statusView := m.mark(fmt.Sprintf("status-%d", id), "‹ "+status+" ›")
	if focused && m.field == fieldStatus {
		statusView = lipgloss.NewStyle().Underline(true).Render(statusView)
	}

	var editorView string
	if s, ok := m.surface(id); ok {
		editorView = s.View()
	} else {
		editorView = helpBarStyle.Render("(external editor)")
	}

	body := strings.Join([]string{
		labelStyle.Render("Name:   ") + nameView,
		labelStyle.Render("Status: ") + statusView,
		labelStyle.Render("Actual result:"),
		editorView,
	}, "\n")
	body = m.sort.Body(id, body)

	style := cardStyle
	if focused {
		style = focusedCardStyle
	}
	return style.Width(max(20, m.width-4)).Render(head + "\n" + body)
}

// --- Focus ---

func (m Model) focusedID() cases.ID {
	ids := m.app.Registry.IDs()
	if m.card < 0 || m.card >= len(ids) {
		return 0
	}
	return ids[m.card]
}

func (m Model) surface(id cases.ID) (*editor.Surface, bool) {
	h, ok := m.app.Registry.Editor(id)
	if !ok {
		return nil, false
	}
	s, ok := h.(*editor.Surface)
	return s, ok
}

// applyFocus focuses exactly the input under the cursor.
func (m *Model) applyFocus() tea.Cmd {
	if n := m.app.Registry.Len(); m.card >= n {
		m.card = n - 1
	}
	m.project.Blur()
	for id, ti := range m.names {
		ti.Blur()
		m.names[id] = ti
	}
	for _, id := range m.app.Registry.IDs() {
		if s, ok := m.surface(id); ok {
			s.Blur()
		}
	}

	if m.card == projectCard {
		return m.project.Focus()
	}
	id := m.focusedID()
	switch m.field {
	case fieldName:
		ti := m.names[id]
		cmd := ti.Focus()
		m.names[id] = ti
		return cmd
	case fieldEditor:
		if s, ok := m.surface(id); ok {
			return s.Focus()
		}
	}
	return nil
}

func (m *Model) next() {
	switch {
	case m.card == projectCard:
		if m.app.Registry.Len() > 0 {
			m.card, m.field = 0, fieldName
		}
	case m.field < numFields-1:
		m.field++
	case m.card < m.app.Registry.Len()-1:
		m.card, m.field = m.card+1, fieldName
	default:
		m.card = projectCard
	}
}

func (m *Model) prev() {
	switch {
	case m.card == projectCard:
		if n := m.app.Registry.Len(); n > 0 {
			m.card, m.field = n-1, fieldEditor
		}
	case m.field > fieldName:
		m.field--
	case m.card > 0:
		m.card, m.field = m.card-1, fieldEditor
	default:
		m.card = projectCard
	}
}

func (m Model) isGrabbing() bool {
	_, held := m.sort.Grabbed()
	return held
}

// --- Input ---

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if id, held := m.sort.Grabbed(); held {
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			m.sort.Up()
		case "down", "j":
			m.sort.Down()
		case "enter", "ctrl+g":
			m.sort.Drop()
		case "esc":
			m.sort.Cancel()
		}
		m.card = m.app.Registry.Position(id) - 1
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.next()
		return m, m.applyFocus()
	case "shift+tab":
		m.prev()
		return m, m.applyFocus()
	case "ctrl+n":
		return m.addCase()
	case "ctrl+x":
		if m.card >= 0 {
			return m.removeCase(m.focusedID())
		}
		return m, nil
	case "ctrl+g":
		if m.card >= 0 {
			m.sort.Grab(m.focusedID())
		}
		return m, nil
	case "ctrl+s":
		return m.submit()
	}

	if m.card >= 0 && m.field == fieldStatus {
		switch msg.String() {
		case "right", "l", " ", "enter":
			m.cycleStatus(m.focusedID(), true)
		case "left", "h":
			m.cycleStatus(m.focusedID(), false)
		}
		return m, nil
	}
	return m, m.forward(msg)
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown {
		var cmd tea.Cmd
		m.body, cmd = m.body.Update(msg)
		return m, cmd
	}
	if m.zones == nil || msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	for _, t := range m.targets() {
		if z := m.zones.Get(t.zone); z != nil && z.InBounds(msg) {
			return t.click(m)
		}
	}
	return m, nil
}

// target is a clickable zone and the action it runs, closed over the id of
// the card it belongs to.
type target struct {
	zone  string
	click func(m Model) (tea.Model, tea.Cmd)
}

func (m Model) targets() []target {
	ts := []target{
		{zoneAdd, Model.addCase},
		{zoneSubmit, Model.submit},
	}
	for i, id := range m.app.Registry.IDs() {
		ts = append(ts,
			target{fmt.Sprintf("remove-%d", id), func(m Model) (tea.Model, tea.Cmd) {
				return m.removeCase(id)
			}},
			target{fmt.Sprintf("status-%d", id), func(m Model) (tea.Model, tea.Cmd) {
				m.card, m.field = i, fieldStatus
				m.cycleStatus(id, true)
				return m, m.applyFocus()
			}},
			target{fmt.Sprintf("grab-%d", id), func(m Model) (tea.Model, tea.Cmd) {
				if m.sort.Holding(id) {
					m.sort.Drop()
				} else {
					m.sort.Grab(id)
				}
				m.card = m.app.Registry.Position(id) - 1
				return m, m.applyFocus()
			}},
		)
	}
	return ts
}

// forward passes msg to the focused input.
func (m *Model) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if m.card == projectCard {
		m.project, cmd = m.project.Update(msg)
		m.app.SetProject(m.project.Value())
		return cmd
	}
	id := m.focusedID()
	switch m.field {
	case fieldName:
		ti, ok := m.names[id]
		if !ok {
			return nil
		}
		ti, cmd = ti.Update(msg)
		m.names[id] = ti
		if err := m.app.Registry.SetName(id, ti.Value()); err != nil {
			m.notice = err.Error()
		}
	case fieldEditor:
		if s, ok := m.surface(id); ok {
			cmd = s.Update(msg)
		}
	}
	return cmd
}

// --- Actions ---

func (m Model) addCase() (tea.Model, tea.Cmd) {
	reg := m.app.Registry
	id := reg.Add()
	ti := newNameInput(reg, id)
	ti.Width = max(10, m.width-16)
	m.names[id] = ti
	if s, ok := m.surface(id); ok {
		s.SetWidth(max(20, m.width-8))
	}
	m.card, m.field = reg.Len()-1, fieldName
	m.notice = ""
	m.app.Log.Printf("form: added case #%d", id)
	return m, m.applyFocus()
}

func (m Model) removeCase(id cases.ID) (tea.Model, tea.Cmd) {
	m.sort.Forget(id)
	if err := m.app.Registry.Remove(id); err != nil {
		m.notice = err.Error()
		return m, nil
	}
	delete(m.names, id)
	if m.app.Registry.Len() == 0 {
		m.card = projectCard
	}
	m.app.Log.Printf("form: removed case #%d", id)
	return m, m.applyFocus()
}

func (m *Model) cycleStatus(id cases.ID, forward bool) {
	e, ok := m.app.Registry.Entry(id)
	if !ok {
		return
	}
	s := e.Status.Next()
	if !forward {
		s = e.Status.Prev()
	}
	if err := m.app.Registry.SetStatus(id, s); err != nil {
		m.notice = err.Error()
	}
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	doc, err := m.app.Compile()
	if err != nil {
		m.notice = "Compile failed: " + err.Error()
		return m, nil
	}
	m.notice = ""

	cfg := m.app.Config
	opts := []render.ViewerOption{
		render.Embedded(),
		render.WithContext(m.ctx),
		render.WithHandoff(m.app.Handoff),
		render.WithImageConfig(cfg.Rendering.Images),
		render.WithTheme(cfg.Rendering.Theme),
	}
	if m.zones != nil {
		opts = append(opts, render.WithZones(m.zones))
	}
	if m.app.Publisher.Enabled() {
		opts = append(opts, render.WithPublisher(m.app.Publisher.Upload))
	}
	opts = append(opts, m.viewerOpts...)

	v, err := render.NewViewer(doc, opts...)
	if err != nil {
		m.notice = "Rendering failed: " + err.Error()
		return m, nil
	}
	model, cmd := v.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	m.viewer = model.(render.Viewer)
	m.mode = modeReport

	m.project.Blur()
	if s, ok := m.surface(m.focusedID()); ok {
		s.Blur()
	}
	return m, cmd
}

// Run shows the form full screen until the user quits.
func Run(ctx context.Context, a *app.App) error {
	zones := zone.New()
	defer zones.Close()

	m := New(a, WithContext(ctx), WithZones(zones))
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
