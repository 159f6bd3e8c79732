package render

import (
	"bytes"
	"strings"

	"github.com/jcadam/verdict/pkg/charts"
)

// joinChart places the drawn chart between the rendered halves of a report
// split at report.ChartMarker: an inline image where the terminal supports
// one, then the text table.
func joinChart(head, tail string, canvas *charts.Canvas, tier ImageTier) string {
	return strings.TrimRight(head, "\n") + "\n\n" +
		chartBlock(canvas, tier) + "\n" +
		strings.TrimLeft(tail, "\n")
}

func chartBlock(canvas *charts.Canvas, tier ImageTier) string {
	if canvas == nil {
		return "  (chart unavailable)"
	}
	if _, drawn := canvas.Drawn(); !drawn {
		return "  (chart unavailable)"
	}

	var b strings.Builder
	if png := canvas.PNG(); png != nil && tier != TierNone {
		var buf bytes.Buffer
		if err := writeChartImage(&buf, png, tier); err == nil {
			b.WriteString(buf.String())
			b.WriteString("\n")
		}
	}
	b.WriteString(canvas.Table())
	return b.String()
}
