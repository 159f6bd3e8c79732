package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"strings"

	"github.com/jcadam/verdict/pkg/charts"
)

// ChartMarker marks where the summary chart goes in Document.Markdown.
// Viewers split the markdown here rather than searching rendered output.
const ChartMarker = "VERDICT-CHART-SUMMARY"

// Document is a rendered report: the compiled data, its chart canvas, and
// the download control.
type Document struct {
	Compiled
	Download *Control

	canvas  *charts.Canvas
	visible bool
}

func newDocument(c Compiled, canvas *charts.Canvas) *Document {
	return &Document{
		Compiled: c,
		Download: NewControl("Download PDF report"),
		canvas:   canvas,
	}
}

// Show makes the document visible and attaches its chart canvas, drawing
// any chart queued against it.
func (d *Document) Show(r charts.Renderer) error {
	d.visible = true
	return d.canvas.Attach(r)
}

// Visible reports whether Show has been called.
func (d *Document) Visible() bool { return d.visible }

// Canvas returns the document's chart canvas.
func (d *Document) Canvas() *charts.Canvas { return d.canvas }

// Page sets the printed page size and margins for HTML output.
type Page struct {
	Size     string  // CSS page size, e.g. "A4" or "Letter"
	MarginPt float64 // margin on all sides, in points
}

type htmlItem struct {
	Item
	StatusClass string
	Markup      template.HTML
}

type htmlData struct {
	Title        string
	Project      string
	ReportID     string
	Generated    string
	Aggregate    Aggregate
	ChartImage   template.URL
	ChartLegend  []legendRow
	Items        []htmlItem
	EmptyMessage string
	Download     string
	PageCSS      template.CSS
}

type legendRow struct {
	Label string
	Value int
	Color template.CSS
}

// HTML renders the document as a self-contained HTML page. Case content is
// inserted verbatim. The download control is included only while visible.
func (d *Document) HTML(page Page) (string, error) {
	data := htmlData{
		Title:     "Test report: " + d.Project,
		Project:   d.Project,
		ReportID:  d.ID,
		Generated: d.GeneratedAt.Format("2006-01-02 15:04"),
		Aggregate: d.Aggregate,
		PageCSS:   pageCSS(page),
	}
	if png := d.canvas.PNG(); png != nil {
		data.ChartImage = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
	}
	spec := d.ChartSpec()
	for i, label := range spec.Labels {
		data.ChartLegend = append(data.ChartLegend, legendRow{
			Label: label,
			Value: int(spec.Values[i]),
			Color: template.CSS(spec.Colors[i]),
		})
	}
	if d.Empty() {
		data.EmptyMessage = EmptyMessage
	}
	for _, it := range d.Items {
		data.Items = append(data.Items, htmlItem{
			Item:        it,
			StatusClass: "status-" + strings.ToLower(string(it.Status)),
			Markup:      template.HTML(it.Content),
		})
	}
	if d.Download.Visible() {
		data.Download = d.Download.Label()
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering report HTML: %w", err)
	}
	return buf.String(), nil
}

func pageCSS(p Page) template.CSS {
	size := p.Size
	if size == "" {
		size = "A4"
	}
	margin := p.MarginPt
	if margin < 0 {
		margin = 0
	}
	return template.CSS(fmt.Sprintf("@page { size: %s portrait; margin: %gpt; }", cssIdent(size), margin))
}

// cssIdent keeps only characters valid in a page-size keyword.
func cssIdent(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, s)
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
  {{.PageCSS}}
  body { max-width: 48em; margin: 2em auto; padding: 0 1em; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Helvetica, Arial, sans-serif; line-height: 1.6; color: #1a1a1a; }
  h1, h2 { margin-top: 1.5em; }
  .meta { color: #666; font-size: 0.9em; }
  .chart-container { max-width: 400px; margin: auto; text-align: center; }
  .chart-container img { max-width: 100%; height: auto; }
  table { border-collapse: collapse; margin: 1em auto; }
  th, td { border: 1px solid #ddd; padding: 0.4em 0.8em; text-align: left; }
  .swatch { display: inline-block; width: 0.9em; height: 0.9em; border: 2px solid #fff; vertical-align: middle; }
  .report-detail-item { border-top: 1px solid #eee; padding: 0.5em 0; page-break-inside: avoid; }
  .status-pass { color: #28a745; font-weight: bold; }
  .status-fail { color: #dc3545; font-weight: bold; }
  .status-skip { color: #6c757d; font-weight: bold; }
  .content-render img { max-width: 100%; height: auto; }
  .btn { padding: 0.5em 1em; border: 0; border-radius: 4px; background: #6c757d; color: #fff; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">Generated {{.Generated}} &middot; report {{.ReportID}}</p>
<h2>Summary</h2>
<div class="chart-container">
{{- if .ChartImage}}
<img src="{{.ChartImage}}" alt="Test results chart">
{{- end}}
<table>
<thead><tr><th>Status</th><th>Count</th></tr></thead>
<tbody>
{{- range .ChartLegend}}
<tr><td><span class="swatch" style="background: {{.Color}}"></span> {{.Label}}</td><td>{{.Value}}</td></tr>
{{- end}}
</tbody>
</table>
</div>
<hr>
<h2>Details</h2>
<div id="report-details">
{{- if .EmptyMessage}}
<p>{{.EmptyMessage}}</p>
{{- end}}
{{- range .Items}}
<div class="report-detail-item">
<h3>{{.Position}}. {{.Name}}</h3>
<p><strong>Result:</strong> <span class="{{.StatusClass}}">{{.Status}}</span></p>
<div><strong>Details:</strong></div>
<div class="content-render">{{.Markup}}</div>
</div>
{{- end}}
</div>
{{- if .Download}}
<br>
<button id="downloadReportBtn" class="btn">{{.Download}}</button>
{{- end}}
</body>
</html>
`))

// Markdown renders the document for the terminal viewer. The summary is a
// single ChartMarker line for the viewer to split at and fill with the
// drawn chart.
func (d *Document) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Test report: %s\n\n", d.Project)
	fmt.Fprintf(&b, "_Generated %s, report %s_\n\n", d.GeneratedAt.Format("2006-01-02 15:04"), d.ID)

	b.WriteString("## Summary\n\n")
	b.WriteString(ChartMarker + "\n\n")

	b.WriteString("## Details\n\n")
	if d.Empty() {
		b.WriteString(EmptyMessage + "\n")
		return b.String()
	}
	for _, it := range d.Items {
		fmt.Fprintf(&b, "### %d. %s\n\n", it.Position, escapeMarkdown(it.Name))
		fmt.Fprintf(&b, "**Result:** %s\n\n", it.Status)
		if text := MarkupText(it.Content); text != "" {
			b.WriteString(text + "\n\n")
		}
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "#", `\#`,
)

func escapeMarkdown(s string) string { return markdownEscaper.Replace(s) }
