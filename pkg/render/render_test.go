package render

import (
	"fmt"
	"strings"
	"testing"

	"github.com/jcadam/verdict/pkg/cases"
	"github.com/jcadam/verdict/pkg/charts"
	"github.com/jcadam/verdict/pkg/editor"
	"github.com/jcadam/verdict/pkg/report"
)

func compileDoc(t *testing.T, export report.ExportFunc, named map[string]cases.Status) *report.Document {
	t.Helper()
	reg := cases.New(editor.TextareaFactory{}, editor.Config{})
	for name, status := range named {
		id := reg.Add()
		if err := reg.SetName(id, name); err != nil {
			t.Fatalf("SetName: %v", err)
		}
		if err := reg.SetStatus(id, status); err != nil {
			t.Fatalf("SetStatus: %v", err)
		}
	}
	doc, err := report.NewCompiler(charts.PNGRenderer{}, export).Submit(reg, "Alpha")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return doc
}

func TestRenderMarkdown(t *testing.T) {
	md := "# Hello World\n\nThis is a **test**.\n\n- Item 1\n- Item 2\n"

	out, err := RenderMarkdown(md, 80, "dark", TierNone)
	if err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	wantContains(t, out, "Hello World")

	out, err = RenderMarkdown(md, 0, "light", TierNone)
	if err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	wantContains(t, out, "Item 2")
}

func TestRenderReportReplacesMarker(t *testing.T) {
	doc := compileDoc(t, nil, map[string]cases.Status{"Login check": cases.Fail})

	out, err := RenderReport(doc, 80, "dark", TierNone)
	if err != nil {
		t.Fatalf("RenderReport: %v", err)
	}
	wantMissing(t, out, report.ChartMarker)
	wantContains(t, out, "Test results", "Login check", "Fail", "┌")

	if strings.Index(out, "Summary") > strings.Index(out, "┌") ||
		strings.Index(out, "┘") > strings.Index(out, "Details") {
		t.Errorf("chart table not placed between Summary and Details:\n%s", out)
	}
}

func TestRenderReportNarrowWidths(t *testing.T) {
	doc := compileDoc(t, nil, map[string]cases.Status{"Login check": cases.Pass})

	for _, width := range []int{12, 18, 22, 24, 26, 40} {
		t.Run(fmt.Sprintf("width=%d", width), func(t *testing.T) {
			out, err := RenderReport(doc, width, "dark", TierNone)
			if err != nil {
				t.Fatalf("RenderReport: %v", err)
			}
			wantMissing(t, out, "VERDICT", "SUMMARY")
			wantContains(t, out, "Pass", "┌", "┘")
		})
	}
}

func TestRenderReportEmpty(t *testing.T) {
	doc := compileDoc(t, nil, nil)
	out, err := RenderReport(doc, 80, "dark", TierNone)
	if err != nil {
		t.Fatalf("RenderReport: %v", err)
	}
	wantContains(t, out, report.EmptyMessage, "Skip")
}

func TestJoinChart(t *testing.T) {
	canvas := charts.NewCanvas(10, 10)
	spec := charts.Spec{Type: charts.Doughnut, Labels: []string{"Pass"}, Values: []float64{3}}
	canvas.Draw(spec, nil, charts.RenderTextTable(spec))

	got := joinChart("\n  Summary\n\n", "\n\n  Details\n", canvas, TierNone)

	lines := strings.Split(got, "\n")
	if lines[1] != "  Summary" {
		t.Errorf("first half not kept: %q", lines[1])
	}
	if lines[len(lines)-2] != "  Details" {
		t.Errorf("second half not kept: %q", lines[len(lines)-2])
	}
	wantContains(t, got, "Pass")
	if strings.Index(got, "Pass") > strings.Index(got, "Details") {
		t.Errorf("chart after second half:\n%s", got)
	}
}

func TestJoinChartUndrawn(t *testing.T) {
	got := joinChart("a", "b", charts.NewCanvas(10, 10), TierKitty)
	if got != "a\n\n  (chart unavailable)\nb" {
		t.Errorf("joinChart = %q", got)
	}
}

func TestChartBlockInlineImage(t *testing.T) {
	canvas := charts.NewCanvas(10, 10)
	spec := charts.Spec{Type: charts.Doughnut, Labels: []string{"Pass"}, Values: []float64{1}}
	canvas.Draw(spec, []byte{0x89, 'P', 'N', 'G'}, "TABLE")

	got := chartBlock(canvas, TierIterm)
	wantContains(t, got, "1337;File=")
	if !strings.HasSuffix(got, "\nTABLE") {
		t.Errorf("expected table after image, got %q", got)
	}

	if got := chartBlock(canvas, TierNone); got != "TABLE" {
		t.Errorf("chartBlock without images = %q", got)
	}
}
