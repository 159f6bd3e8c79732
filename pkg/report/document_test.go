package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcadam/verdict/pkg/cases"
	"github.com/jcadam/verdict/pkg/charts"
)

func sampleDocument(t *testing.T) *Document {
	t.Helper()
	src := fakeSource{
		rows: []cases.Row{
			{ID: 4, Name: "Login <admin>", Status: cases.Pass},
			{ID: 9, Name: "Logout", Status: cases.Skip},
		},
		content: map[cases.ID]string{
			4: "<p>Works <strong>fine</strong></p>",
			9: "<ul>\n<li>not built yet</li>\n</ul>",
		},
	}
	doc, err := NewCompiler(&recordingRenderer{}, nil, WithClock(fixedNow)).Submit(src, "Alpha")
	require.NoError(t, err)
	return doc
}

func TestHTMLStructure(t *testing.T) {
	doc := sampleDocument(t)
	html, err := doc.HTML(Page{Size: "A4", MarginPt: 30})
	require.NoError(t, err)

	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>Test report: Alpha</title>",
		"@page { size: A4 portrait; margin: 30pt; }",
		"Generated 2026-10-18 09:30",
		"<h3>1. Login &lt;admin&gt;</h3>",
		`<span class="status-skip">Skip</span>`,
		"<p>Works <strong>fine</strong></p>",
		`id="downloadReportBtn"`,
		"rgba(40, 167, 69, 0.7)",
	} {
		assert.Contains(t, html, want)
	}
	assert.NotContains(t, html, EmptyMessage)
}

func TestHTMLOmitsHiddenDownload(t *testing.T) {
	doc := sampleDocument(t)
	doc.Download.Hide()

	html, err := doc.HTML(Page{})
	require.NoError(t, err)
	assert.NotContains(t, html, "downloadReportBtn")

	doc.Download.Show()
	html, _ = doc.HTML(Page{})
	assert.Contains(t, html, "downloadReportBtn")
}

func TestHTMLEmbedsChartPNG(t *testing.T) {
	doc := sampleDocument(t)
	spec, _ := doc.Canvas().Drawn()
	doc.Canvas().Draw(spec, []byte{0x89, 'P', 'N', 'G'}, "")

	html, err := doc.HTML(Page{})
	require.NoError(t, err)
	assert.Contains(t, html, `src="data:image/png;base64,`)
}

func TestPageCSSSanitisesSize(t *testing.T) {
	css := string(pageCSS(Page{Size: "A4; } body { display:none", MarginPt: -3}))
	assert.Equal(t, "@page { size: A4bodydisplaynone portrait; margin: 0pt; }", css)
}

func TestMarkdown(t *testing.T) {
	doc := sampleDocument(t)
	md := doc.Markdown()

	assert.True(t, strings.HasPrefix(md, "# Test report: Alpha\n"))
	assert.Contains(t, md, ChartMarker)
	assert.Contains(t, md, "### 2. Logout")
	assert.Contains(t, md, "**Result:** Skip")
	assert.Contains(t, md, "- not built yet")
	assert.Contains(t, md, "Works **fine**")
}

func TestMarkdownEscapesNames(t *testing.T) {
	assert.Equal(t, `\*\*not bold\*\*`, escapeMarkdown("**not bold**"))
}

func TestShowAttachesCanvas(t *testing.T) {
	doc := newDocument(Compiled{}, charts.NewCanvas(10, 10))
	assert.False(t, doc.Visible())
	require.NoError(t, doc.Show(&recordingRenderer{}))
	assert.True(t, doc.Visible())
	assert.True(t, doc.Canvas().Attached())
}
