package render

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/jcadam/verdict/pkg/actions"
	"github.com/jcadam/verdict/pkg/report"
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("205")).
	PaddingLeft(1)

var footerStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")).
	PaddingLeft(1)

var buttonStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#FFFFFF")).
	Background(lipgloss.Color("#6C757D")).
	Padding(0, 1)

var noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7768E"))

var savedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ECE6A"))

const downloadZone = "report-download"

// --- Async message types ---

// exportDoneMsg carries the result of the download control's export.
type exportDoneMsg struct {
	path string
	err  error
}

// publishDoneMsg carries the result of an SCP upload.
type publishDoneMsg struct {
	dest string
	err  error
}

// actionResultMsg carries the result of an async handoff or clipboard action.
type actionResultMsg struct {
	status string
	err    error
}

// processingTickMsg drives the spinner while an export or upload runs.
type processingTickMsg time.Time

func processingTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return processingTickMsg(t)
	})
}

// BackMsg asks the hosting model to return to the case form.
type BackMsg struct{}

// PublishFunc uploads a saved PDF and returns where it went.
type PublishFunc func(ctx context.Context, path string) (string, error)

// headingPos tracks a heading's location in the rendered content.
type headingPos struct {
	text string
	line int // line number in rendered content
}

// Viewer is a Bubble Tea model for a compiled report with section
// navigation and the download control.
type Viewer struct {
	doc      *report.Document
	title    string
	content  string
	viewport viewport.Model
	ready    bool
	width    int

	// Section navigation
	headings    []headingPos
	currentHead int

	busy     bool // true while an export or upload is in flight
	busyText string
	spinner  spinner.Model

	// Optional deps
	handoff  *actions.Handoff
	publish  PublishFunc
	ctx      context.Context
	zones    *zone.Manager
	embedded bool

	theme       string
	imageConfig string
	imageTier   ImageTier

	pdfPath   string
	notice    string // last failure, shown until the next attempt
	statusMsg string
	statusExp time.Time
}

// ViewerOption configures optional Viewer behavior.
type ViewerOption func(*Viewer)

// WithHandoff provides a Handoff for opening the saved PDF.
func WithHandoff(h *actions.Handoff) ViewerOption {
	return func(v *Viewer) { v.handoff = h }
}

// WithPublisher enables uploading the saved PDF.
func WithPublisher(p PublishFunc) ViewerOption {
	return func(v *Viewer) { v.publish = p }
}

// WithContext provides a cancellable context for exports and uploads.
func WithContext(ctx context.Context) ViewerOption {
	return func(v *Viewer) { v.ctx = ctx }
}

// WithImageConfig provides the rendering.images config value.
func WithImageConfig(images string) ViewerOption {
	return func(v *Viewer) { v.imageConfig = images }
}

// WithTheme provides the rendering.theme config value.
func WithTheme(theme string) ViewerOption {
	return func(v *Viewer) { v.theme = theme }
}

// WithZones registers the download button as a mouse zone. The root model
// must call Scan on the manager.
func WithZones(z *zone.Manager) ViewerOption {
	return func(v *Viewer) { v.zones = z }
}

// Embedded makes esc return to the host with BackMsg instead of quitting.
func Embedded() ViewerOption {
	return func(v *Viewer) { v.embedded = true }
}

// NewViewer creates a viewer for doc.
func NewViewer(doc *report.Document, opts ...ViewerOption) (Viewer, error) {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0AF68"))

	v := Viewer{
		doc:     doc,
		title:   "Test report: " + doc.Project,
		spinner: sp,
	}
	for _, opt := range opts {
		opt(&v)
	}
	v.imageTier = DetectImageTier(v.imageConfig)
	if err := v.render(80); err != nil {
		return Viewer{}, err
	}
	return v, nil
}

func (v *Viewer) render(width int) error {
	content, err := RenderReport(v.doc, width, v.theme, v.imageTier)
	if err != nil {
		return err
	}
	v.content = content
	v.width = width
	v.headings = extractHeadings(v.doc.Markdown(), content)
	return nil
}

// Init initializes the viewer.
func (v Viewer) Init() tea.Cmd {
	return nil
}

// Update handles messages for the viewer.
func (v Viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		headerHeight := 2
		footerHeight := 3
		if msg.Width != v.width {
			if err := v.render(msg.Width - 2); err == nil && v.ready {
				v.viewport.SetContent(v.content)
			}
		}
		if !v.ready {
			v.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			v.viewport.YPosition = headerHeight
			v.viewport.SetContent(v.content)
			v.ready = true
		} else {
			v.viewport.Width = msg.Width
			v.viewport.Height = msg.Height - headerHeight - footerHeight
		}

	case exportDoneMsg:
		v.busy = false
		if msg.err != nil {
			v.notice = "Export failed: " + msg.err.Error()
			return v, nil
		}
		v.notice = ""
		v.pdfPath = msg.path
		v.setStatus("Saved PDF")
		return v, nil

	case publishDoneMsg:
		v.busy = false
		if msg.err != nil {
			v.notice = "Publish failed: " + msg.err.Error()
			return v, nil
		}
		v.notice = ""
		v.setStatus("Published to " + msg.dest)
		return v, nil

	case actionResultMsg:
		if msg.err != nil {
			v.setStatus("Error: " + msg.err.Error())
		} else {
			v.setStatus(msg.status)
		}
		return v, nil

	case processingTickMsg:
		if v.busy {
			v.spinner, _ = v.spinner.Update(spinner.TickMsg{})
			return v, processingTick()
		}
		return v, nil

	case tea.MouseMsg:
		if v.zones != nil && !v.busy &&
			msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft {
			if z := v.zones.Get(downloadZone); z != nil && z.InBounds(msg) {
				return v.startDownload()
			}
		}

	case tea.KeyMsg:
		if v.busy {
			// Only allow quit while busy
			if msg.String() == "q" || msg.String() == "ctrl+c" {
				return v, tea.Quit
			}
			return v, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return v, tea.Quit
		case "esc":
			if v.embedded {
				return v, func() tea.Msg { return BackMsg{} }
			}
			return v, tea.Quit
		case "n":
			v.nextHeading()
			return v, nil
		case "N":
			v.prevHeading()
			return v, nil
		case "d":
			return v.startDownload()
		case "o":
			return v.openPDF()
		case "y":
			return v.copyPath()
		case "p":
			return v.startPublish()
		}
	}

	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// View renders the viewer.
func (v Viewer) View() string {
	if !v.ready {
		return "Loading..."
	}

	header := headerStyle.Render(v.title)

	var controls string
	switch {
	case v.busy:
		controls = footerStyle.Render(fmt.Sprintf("%s %s...", v.spinner.View(), v.busyText))
	case v.doc.Download.Visible():
		button := buttonStyle.Render(v.doc.Download.Label())
		if v.zones != nil {
			button = v.zones.Mark(downloadZone, button)
		}
		controls = " " + button
		if v.pdfPath != "" {
			controls += " " + savedStyle.Render("saved "+fileLink(v.pdfPath, v.imageTier))
		}
	}
	if v.notice != "" {
		controls += " " + noticeStyle.Render(v.notice)
	}

	status := ""
	if v.statusMsg != "" && time.Now().Before(v.statusExp) {
		status = " • " + v.statusMsg
	}
	hints := " %3.f%%"
	if len(v.headings) > 0 {
		hints += " │ n/N sections"
	}
	hints += " │ d download"
	if v.pdfPath != "" {
		if v.handoff != nil {
			hints += " │ o open"
		}
		hints += " │ y copy path"
		if v.publish != nil {
			hints += " │ p publish"
		}
	}
	if v.embedded {
		hints += " │ esc edit cases"
	}
	hints += " │ q quit"
	footer := footerStyle.Render(fmt.Sprintf(hints, v.viewport.ScrollPercent()*100) + status)

	return strings.Join([]string{header, "", v.viewport.View(), "", controls, footer}, "\n")
}

// RunViewer shows doc in a standalone full-screen viewer.
func RunViewer(doc *report.Document, opts ...ViewerOption) error {
	zones := zone.New()
	defer zones.Close()

	v, err := NewViewer(doc, append(opts, WithZones(zones))...)
	if err != nil {
		return err
	}
	p := tea.NewProgram(scanned{v, zones}, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	return err
}

// scanned makes a Viewer the root model, resolving its mouse zones.
type scanned struct {
	Viewer
	zones *zone.Manager
}

func (s scanned) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := s.Viewer.Update(msg)
	s.Viewer = m.(Viewer)
	return s, cmd
}

func (s scanned) View() string { return s.zones.Scan(s.Viewer.View()) }

// --- Section navigation ---

// headingPattern matches markdown headings in raw markdown.
var headingPattern = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)

var markdownEscapes = strings.NewReplacer(`\\`, `\`, `\*`, "*", `\_`, "_", "\\`", "`", `\[`, "[", `\]`, "]", `\#`, "#")

// extractHeadings scans raw markdown for headings and maps them to line
// positions in the rendered content.
func extractHeadings(raw, rendered string) []headingPos {
	matches := headingPattern.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return nil
	}

	renderedLines := strings.Split(rendered, "\n")
	var headings []headingPos
	searchFrom := 0

	for _, m := range matches {
		text := markdownEscapes.Replace(strings.TrimSpace(m[1]))
		// Glamour preserves heading text
		for i := searchFrom; i < len(renderedLines); i++ {
			if strings.Contains(renderedLines[i], text) {
				headings = append(headings, headingPos{text: text, line: i})
				searchFrom = i + 1
				break
			}
		}
	}
	return headings
}

func (v *Viewer) nextHeading() {
	if len(v.headings) == 0 {
		return
	}
	currentLine := v.viewport.YOffset
	for i, h := range v.headings {
		if h.line > currentLine {
			v.currentHead = i
			v.viewport.SetYOffset(h.line)
			return
		}
	}
	v.currentHead = 0
	v.viewport.SetYOffset(v.headings[0].line)
}

func (v *Viewer) prevHeading() {
	if len(v.headings) == 0 {
		return
	}
	currentLine := v.viewport.YOffset
	for i := len(v.headings) - 1; i >= 0; i-- {
		if v.headings[i].line < currentLine {
			v.currentHead = i
			v.viewport.SetYOffset(v.headings[i].line)
			return
		}
	}
	v.currentHead = len(v.headings) - 1
	v.viewport.SetYOffset(v.headings[v.currentHead].line)
}

// --- Async actions ---

// viewerContext returns the viewer's context or a background context if none set.
func (v *Viewer) viewerContext() context.Context {
	if v.ctx != nil {
		return v.ctx
	}
	return context.Background()
}

// startDownload triggers the document's download control in the background.
func (v Viewer) startDownload() (tea.Model, tea.Cmd) {
	if !v.doc.Download.Visible() {
		v.setStatus("Download is not available right now")
		return v, nil
	}
	v.busy = true
	v.busyText = "Exporting PDF"
	v.notice = ""
	return v, tea.Batch(processingTick(), v.exportCmd())
}

func (v Viewer) exportCmd() tea.Cmd {
	doc := v.doc
	ctx := v.viewerContext()
	return func() tea.Msg {
		path, err := doc.Download.Trigger(ctx)
		return exportDoneMsg{path: path, err: err}
	}
}

// startPublish uploads the saved PDF in the background.
func (v Viewer) startPublish() (tea.Model, tea.Cmd) {
	if v.publish == nil {
		v.setStatus("Publishing is not configured")
		return v, nil
	}
	if v.pdfPath == "" {
		v.setStatus("No PDF saved yet, press d first")
		return v, nil
	}
	v.busy = true
	v.busyText = "Publishing"
	v.notice = ""
	return v, tea.Batch(processingTick(), v.publishCmd())
}

func (v Viewer) publishCmd() tea.Cmd {
	publish := v.publish
	path := v.pdfPath
	ctx := v.viewerContext()
	return func() tea.Msg {
		dest, err := publish(ctx, path)
		return publishDoneMsg{dest: dest, err: err}
	}
}

// openPDF hands the saved PDF to the system viewer.
func (v Viewer) openPDF() (tea.Model, tea.Cmd) {
	if v.pdfPath == "" {
		v.setStatus("No PDF saved yet, press d first")
		return v, nil
	}
	if v.handoff == nil {
		v.setStatus("No handoff configured")
		return v, nil
	}
	handoff := v.handoff
	path := v.pdfPath
	return v, func() tea.Msg {
		if err := handoff.OpenPDF(path); err != nil {
			return actionResultMsg{err: err}
		}
		return actionResultMsg{status: "Opened: " + path}
	}
}

// copyPath copies the saved PDF's path to the clipboard.
func (v Viewer) copyPath() (tea.Model, tea.Cmd) {
	if v.pdfPath == "" {
		v.setStatus("No PDF saved yet, press d first")
		return v, nil
	}
	path := v.pdfPath
	return v, func() tea.Msg {
		if err := actions.CopyPath(path); err != nil {
			return actionResultMsg{err: fmt.Errorf("clipboard: %w", err)}
		}
		return actionResultMsg{status: "Path copied to clipboard"}
	}
}

func (v *Viewer) setStatus(msg string) {
	v.statusMsg = msg
	v.statusExp = time.Now().Add(5 * time.Second)
}
