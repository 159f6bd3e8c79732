// Package charts renders the report's summary chart as a PNG image or an
// ASCII text table, drawing into a Canvas owned by the report document.
package charts

import (
	"fmt"
	"strings"

	"github.com/go-analyze/charts"
)

// Doughnut is the chart type used for the status summary.
const Doughnut = "doughnut"

// Spec describes a chart to draw.
type Spec struct {
	Type   string
	Title  string
	Labels []string
	Values []float64
	Colors []string // CSS colours, parallel to Labels
	// Animate requests an animated draw. PNG output is always static.
	Animate bool
}

// Total returns the sum of the values.
func (s Spec) Total() float64 {
	var t float64
	for _, v := range s.Values {
		t += v
	}
	return t
}

func (s Spec) validate() error {
	switch s.Type {
	case Doughnut:
	default:
		return fmt.Errorf("unsupported chart type: %q", s.Type)
	}
	if len(s.Values) == 0 {
		return fmt.Errorf("chart %q has no values", s.Title)
	}
	if len(s.Labels) != len(s.Values) {
		return fmt.Errorf("chart %q has %d labels for %d values", s.Title, len(s.Labels), len(s.Values))
	}
	return nil
}

// Renderer draws a chart into a canvas.
type Renderer interface {
	Render(c *Canvas, s Spec) error
}

// Canvas is a drawing target inside a document. A render issued before the
// canvas is attached is kept and drawn by Attach.
type Canvas struct {
	Width, Height int

	attached bool
	pending  *Spec

	drawn bool
	spec  Spec
	png   []byte
	table string
}

// NewCanvas creates a detached canvas of the given pixel size.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{Width: width, Height: height}
}

// Attached reports whether the canvas is laid out in a visible document.
func (c *Canvas) Attached() bool { return c.attached }

// Attach marks the canvas visible and draws any render queued while it was
// detached.
func (c *Canvas) Attach(r Renderer) error {
	c.attached = true
	if c.pending == nil {
		return nil
	}
	s := *c.pending
	c.pending = nil
	return r.Render(c, s)
}

// Detach hides the canvas again; the last drawing is kept.
func (c *Canvas) Detach() { c.attached = false }

// Queue records a render to perform on the next Attach.
func (c *Canvas) Queue(s Spec) { c.pending = &s }

// Drawn reports whether anything has been drawn and returns its spec.
func (c *Canvas) Drawn() (Spec, bool) { return c.spec, c.drawn }

// PNG returns the drawn image, or nil when the chart was drawn as a table only.
func (c *Canvas) PNG() []byte { return c.png }

// Table returns the text-table rendering of the drawn chart.
func (c *Canvas) Table() string { return c.table }

// Draw stores a finished rendering.
func (c *Canvas) Draw(s Spec, png []byte, table string) {
	c.drawn = true
	c.spec = s
	c.png = png
	c.table = table
}

// PNGRenderer renders with go-analyze/charts. A chart whose values sum to
// zero has no slices to draw and is kept as a text table only.
type PNGRenderer struct{}

// Render draws s into c, or queues it if c is not attached yet.
func (PNGRenderer) Render(c *Canvas, s Spec) error {
	if err := s.validate(); err != nil {
		return err
	}
	if !c.Attached() {
		c.Queue(s)
		return nil
	}
	var png []byte
	if s.Total() > 0 {
		var err error
		png, err = RenderPNG(s, c.Width, c.Height)
		if err != nil {
			return err
		}
	}
	c.Draw(s, png, RenderTextTable(s))
	return nil
}

// RenderPNG renders a chart spec as a PNG image. Returns raw PNG bytes.
func RenderPNG(s Spec, width, height int) ([]byte, error) {
	if s.Type != Doughnut {
		return nil, fmt.Errorf("unsupported chart type: %q", s.Type)
	}
	return renderDoughnut(s, width, height)
}

// RenderTextTable formats a chart as an ASCII table for terminals that do
// not support inline images.
func RenderTextTable(s Spec) string {
	if len(s.Labels) == 0 || len(s.Values) == 0 {
		return ""
	}

	maxLabel := 0
	maxValue := 0
	valueStrs := make([]string, len(s.Values))
	for i, v := range s.Values {
		if i < len(s.Labels) && len(s.Labels[i]) > maxLabel {
			maxLabel = len(s.Labels[i])
		}
		valueStrs[i] = formatValue(v)
		if len(valueStrs[i]) > maxValue {
			maxValue = len(valueStrs[i])
		}
	}

	var b strings.Builder
	if s.Title != "" {
		b.WriteString("  " + s.Title + "\n")
	}

	b.WriteString(fmt.Sprintf("  \u250c%s\u252c%s\u2510\n",
		strings.Repeat("\u2500", maxLabel+2),
		strings.Repeat("\u2500", maxValue+2)))

	count := len(s.Labels)
	if len(s.Values) < count {
		count = len(s.Values)
	}
	for i := 0; i < count; i++ {
		b.WriteString(fmt.Sprintf("  \u2502 %-*s \u2502 %*s \u2502\n",
			maxLabel, s.Labels[i],
			maxValue, valueStrs[i]))
	}

	b.WriteString(fmt.Sprintf("  \u2514%s\u2534%s\u2518",
		strings.Repeat("\u2500", maxLabel+2),
		strings.Repeat("\u2500", maxValue+2)))

	return b.String()
}

// formatValue formats a float64 for display, omitting decimal places for integers.
func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}

// palette returns the default theme with the series drawn in s.Colors. Any
// slice without a colour of its own keeps the theme colour.
func palette(s Spec) charts.ColorPalette {
	theme := charts.GetDefaultTheme()
	if len(s.Colors) == 0 {
		return theme
	}
	colors := make([]charts.Color, len(s.Values))
	for i := range colors {
		if i < len(s.Colors) {
			colors[i] = charts.ParseColor(s.Colors[i])
		} else {
			colors[i] = theme.GetSeriesColor(i)
		}
	}
	return theme.WithSeriesColors(colors)
}

func renderDoughnut(s Spec, width, height int) ([]byte, error) {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)

	p, err := charts.DoughnutRender(
		values,
		charts.ThemeOptionFunc(palette(s)),
		charts.TitleTextOptionFunc(s.Title),
		charts.LegendLabelsOptionFunc(s.Labels),
		charts.DimensionsOptionFunc(width, height),
		charts.PNGOutputOptionFunc(),
	)
	if err != nil {
		return nil, fmt.Errorf("rendering doughnut chart: %w", err)
	}
	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding doughnut chart PNG: %w", err)
	}
	return buf, nil
}
