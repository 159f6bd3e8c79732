// Package report turns the current set of test cases into a report document:
// a status aggregate, a summary chart, and per-case detail.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jcadam/verdict/pkg/cases"
	"github.com/jcadam/verdict/pkg/charts"
	"github.com/jcadam/verdict/pkg/debug"
)

const (
	// EmptyMessage replaces the detail section when there are no cases.
	EmptyMessage = "No test cases to report."
	// MissingContent stands in for a case whose editor cannot be found.
	MissingContent = "<p><i>Content unavailable</i></p>"
	// DefaultProject names the report when the project field is blank.
	DefaultProject = "report"
)

// Chart colours for Pass, Fail, Skip.
var statusColors = []string{
	"rgba(40, 167, 69, 0.7)",
	"rgba(220, 53, 69, 0.7)",
	"rgba(108, 117, 125, 0.7)",
}

// Source is the compiler's view of the case registry.
type Source interface {
	Rows() []cases.Row
	Content(id cases.ID) (markup string, ok bool, err error)
}

// Aggregate counts cases per status.
type Aggregate struct {
	Pass, Fail, Skip int
}

// Total returns Pass+Fail+Skip.
func (a Aggregate) Total() int { return a.Pass + a.Fail + a.Skip }

// Tally counts statuses. Values outside Pass, Fail, Skip are not counted.
func Tally(statuses []cases.Status) Aggregate {
	var a Aggregate
	for _, s := range statuses {
		switch s {
		case cases.Pass:
			a.Pass++
		case cases.Fail:
			a.Fail++
		case cases.Skip:
			a.Skip++
		}
	}
	return a
}

// Item is one case in the compiled detail list.
type Item struct {
	Position int
	ID       cases.ID
	Name     string
	Status   cases.Status
	Content  string
}

// Compiled is the transient result of one compile.
type Compiled struct {
	ID          string
	Project     string
	GeneratedAt time.Time
	Items       []Item
	Aggregate   Aggregate
}

// Empty reports whether there are no cases.
func (c Compiled) Empty() bool { return len(c.Items) == 0 }

// ChartSpec returns the summary chart for the aggregate in the fixed
// Pass, Fail, Skip order.
func (c Compiled) ChartSpec() charts.Spec {
	return charts.Spec{
		Type:   charts.Doughnut,
		Title:  "Test results",
		Labels: []string{string(cases.Pass), string(cases.Fail), string(cases.Skip)},
		Values: []float64{float64(c.Aggregate.Pass), float64(c.Aggregate.Fail), float64(c.Aggregate.Skip)},
		Colors: statusColors,
	}
}

// ProjectName returns name trimmed, or DefaultProject when blank.
func ProjectName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultProject
	}
	return name
}

// UnnamedLabel is the fallback name for a blank case at position.
func UnnamedLabel(position int) string {
	return fmt.Sprintf("Unnamed case #%d", position)
}

// Compile reads src in display order and builds the compiled report.
// A case whose editor is missing gets MissingContent; errors from the
// editor itself are returned.
func Compile(src Source, project string, log *debug.Logger) (Compiled, error) {
	rows := src.Rows()
	c := Compiled{
		ID:      uuid.NewString(),
		Project: ProjectName(project),
	}

	statuses := make([]cases.Status, 0, len(rows))
	for i, row := range rows {
		statuses = append(statuses, row.Status)

		name := strings.TrimSpace(row.Name)
		if name == "" {
			name = UnnamedLabel(i + 1)
		}

		content, ok, err := src.Content(row.ID)
		if err != nil {
			return Compiled{}, fmt.Errorf("reading content of case #%d: %w", row.ID, err)
		}
		if !ok {
			log.Printf("no editor bound to case #%d; using placeholder content", row.ID)
			content = MissingContent
		}

		c.Items = append(c.Items, Item{
			Position: i + 1,
			ID:       row.ID,
			Name:     name,
			Status:   row.Status,
			Content:  content,
		})
	}
	c.Aggregate = Tally(statuses)
	return c, nil
}

// ExportFunc saves a document as a PDF for project and returns the file path.
type ExportFunc func(ctx context.Context, doc *Document, project string) (string, error)

// Compiler renders compiled reports and draws their charts.
type Compiler struct {
	charts charts.Renderer
	export ExportFunc
	log    *debug.Logger
	now    func() time.Time

	chartWidth, chartHeight int
}

// CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

// WithChartSize sets the chart canvas size in pixels.
func WithChartSize(width, height int) CompilerOption {
	return func(c *Compiler) { c.chartWidth, c.chartHeight = width, height }
}

// WithLogger sets the debug logger.
func WithLogger(l *debug.Logger) CompilerOption {
	return func(c *Compiler) { c.log = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) CompilerOption {
	return func(c *Compiler) { c.now = now }
}

// NewCompiler creates a compiler that draws with r and binds export to each
// document's download control. export may be nil, in which case the control
// reports that export is unavailable.
func NewCompiler(r charts.Renderer, export ExportFunc, opts ...CompilerOption) *Compiler {
	c := &Compiler{
		charts:      r,
		export:      export,
		now:         time.Now,
		chartWidth:  400,
		chartHeight: 400,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit compiles src, shows the resulting document, draws its chart, and
// binds its download control to an export for project.
func (c *Compiler) Submit(src Source, project string) (*Document, error) {
	compiled, err := Compile(src, project, c.log)
	if err != nil {
		return nil, err
	}
	compiled.GeneratedAt = c.now()
	c.log.Printf("compiled report %s: %d cases, pass=%d fail=%d skip=%d",
		compiled.ID, len(compiled.Items), compiled.Aggregate.Pass, compiled.Aggregate.Fail, compiled.Aggregate.Skip)

	doc := newDocument(compiled, charts.NewCanvas(c.chartWidth, c.chartHeight))
	if err := doc.Show(c.charts); err != nil {
		return nil, fmt.Errorf("attaching chart canvas: %w", err)
	}
	if err := c.charts.Render(doc.Canvas(), compiled.ChartSpec()); err != nil {
		return nil, err
	}

	projectName := compiled.Project
	export := c.export
	doc.Download.Bind(func(ctx context.Context) (string, error) {
		if export == nil {
			return "", fmt.Errorf("PDF export is not configured")
		}
		return export(ctx, doc, projectName)
	})
	return doc, nil
}
