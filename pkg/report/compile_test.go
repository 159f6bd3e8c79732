package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcadam/verdict/pkg/cases"
	"github.com/jcadam/verdict/pkg/charts"
	"github.com/jcadam/verdict/pkg/editor"
)

// fakeSource is a Source with fixed rows and content keyed by id.
type fakeSource struct {
	rows    []cases.Row
	content map[cases.ID]string
	err     error
}

func (f fakeSource) Rows() []cases.Row { return f.rows }

func (f fakeSource) Content(id cases.ID) (string, bool, error) {
	if f.err != nil {
		return "", true, f.err
	}
	c, ok := f.content[id]
	return c, ok, nil
}

// recordingRenderer records each call and whether the canvas was attached.
type recordingRenderer struct {
	calls    []charts.Spec
	attached []bool
	err      error
}

func (r *recordingRenderer) Render(c *charts.Canvas, s charts.Spec) error {
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, s)
	r.attached = append(r.attached, c.Attached())
	c.Draw(s, nil, charts.RenderTextTable(s))
	return nil
}

var fixedNow = func() time.Time { return time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC) }

func newRegistry() *cases.Registry {
	return cases.New(editor.TextareaFactory{}, editor.Config{})
}

func TestTally(t *testing.T) {
	got := Tally([]cases.Status{cases.Pass, cases.Fail, cases.Pass, cases.Skip, "Blocked"})
	assert.Equal(t, Aggregate{Pass: 2, Fail: 1, Skip: 1}, got)
	assert.Equal(t, 4, got.Total())
}

func TestTallyMatchesEntryCount(t *testing.T) {
	statuses := []cases.Status{}
	for i := 0; i < 20; i++ {
		statuses = append(statuses, cases.Statuses[i%3])
		a := Tally(statuses)
		require.Equal(t, len(statuses), a.Total())
	}
}

func TestScenarioSingleFailure(t *testing.T) {
	reg := newRegistry()
	id := reg.Add()
	require.NoError(t, reg.SetName(id, "Login check"))
	require.NoError(t, reg.SetStatus(id, cases.Fail))

	rr := &recordingRenderer{}
	doc, err := NewCompiler(rr, nil, WithClock(fixedNow)).Submit(reg, "")
	require.NoError(t, err)

	assert.Equal(t, Aggregate{Fail: 1}, doc.Aggregate)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, "Login check", doc.Items[0].Name)
	assert.Equal(t, cases.Fail, doc.Items[0].Status)

	html, err := doc.HTML(Page{})
	require.NoError(t, err)
	assert.Contains(t, html, "<h3>1. Login check</h3>")
	assert.Contains(t, html, `<span class="status-fail">Fail</span>`)
}

func TestScenarioUnnamedCases(t *testing.T) {
	reg := newRegistry()
	for _, s := range []cases.Status{cases.Pass, cases.Pass, cases.Skip} {
		id := reg.Add()
		require.NoError(t, reg.SetStatus(id, s))
	}

	doc, err := NewCompiler(&recordingRenderer{}, nil).Submit(reg, "")
	require.NoError(t, err)

	assert.Equal(t, Aggregate{Pass: 2, Skip: 1}, doc.Aggregate)
	var names []string
	for _, it := range doc.Items {
		names = append(names, it.Name)
	}
	assert.Equal(t, []string{"Unnamed case #1", "Unnamed case #2", "Unnamed case #3"}, names)
}

func TestScenarioAddThenRemove(t *testing.T) {
	reg := newRegistry()
	id := reg.Add()
	require.NoError(t, reg.Remove(id))

	rr := &recordingRenderer{}
	doc, err := NewCompiler(rr, nil).Submit(reg, "")
	require.NoError(t, err)

	assert.True(t, doc.Empty())
	assert.Equal(t, Aggregate{}, doc.Aggregate)

	html, err := doc.HTML(Page{})
	require.NoError(t, err)
	assert.Contains(t, html, EmptyMessage)
	assert.Contains(t, doc.Markdown(), EmptyMessage)
}

func TestEmptyCompileStillDrawsThreeValueChart(t *testing.T) {
	rr := &recordingRenderer{}
	_, err := NewCompiler(rr, nil).Submit(fakeSource{}, "")
	require.NoError(t, err)

	require.Len(t, rr.calls, 1)
	want := charts.Spec{
		Type:   charts.Doughnut,
		Title:  "Test results",
		Labels: []string{"Pass", "Fail", "Skip"},
		Values: []float64{0, 0, 0},
		Colors: statusColors,
	}
	if diff := cmp.Diff(want, rr.calls[0]); diff != "" {
		t.Errorf("chart spec mismatch (-want +got):\n%s", diff)
	}
}

func TestChartDrawnAfterDocumentVisible(t *testing.T) {
	rr := &recordingRenderer{}
	doc, err := NewCompiler(rr, nil).Submit(fakeSource{}, "")
	require.NoError(t, err)

	assert.True(t, doc.Visible())
	require.Len(t, rr.attached, 1)
	assert.True(t, rr.attached[0], "chart must be drawn into an attached canvas")
	assert.False(t, rr.calls[0].Animate)
}

func TestUnknownStatusExcludedFromCounts(t *testing.T) {
	src := fakeSource{
		rows: []cases.Row{
			{ID: 1, Status: cases.Pass},
			{ID: 2, Status: "Blocked"},
		},
		content: map[cases.ID]string{1: "", 2: ""},
	}
	c, err := Compile(src, "", nil)
	require.NoError(t, err)
	assert.Equal(t, Aggregate{Pass: 1}, c.Aggregate)
	assert.Len(t, c.Items, 2)
}

func TestMissingEditorUsesPlaceholder(t *testing.T) {
	src := fakeSource{
		rows: []cases.Row{
			{ID: 1, Name: "ok", Status: cases.Pass},
			{ID: 2, Name: "broken", Status: cases.Fail},
		},
		content: map[cases.ID]string{1: "<p>fine</p>"},
	}
	c, err := Compile(src, "Alpha", nil)
	require.NoError(t, err)

	want := []Item{
		{Position: 1, ID: 1, Name: "ok", Status: cases.Pass, Content: "<p>fine</p>"},
		{Position: 2, ID: 2, Name: "broken", Status: cases.Fail, Content: MissingContent},
	}
	if diff := cmp.Diff(want, c.Items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestEditorErrorPropagates(t *testing.T) {
	boom := errors.New("editor exploded")
	src := fakeSource{rows: []cases.Row{{ID: 1, Status: cases.Pass}}, err: boom}
	_, err := NewCompiler(&recordingRenderer{}, nil).Submit(src, "")
	assert.ErrorIs(t, err, boom)
}

func TestChartErrorPropagates(t *testing.T) {
	boom := errors.New("chart exploded")
	_, err := NewCompiler(&recordingRenderer{err: boom}, nil).Submit(fakeSource{}, "")
	assert.ErrorIs(t, err, boom)
}

func TestCompileFollowsDisplayOrder(t *testing.T) {
	reg := newRegistry()
	a := reg.Add()
	b := reg.Add()
	require.NoError(t, reg.SetName(a, "first added"))
	require.NoError(t, reg.SetName(b, "second added"))
	reg.Move(b, -1)

	c, err := Compile(reg, "", nil)
	require.NoError(t, err)
	got := []string{c.Items[0].Name, c.Items[1].Name}
	assert.Equal(t, []string{"second added", "first added"}, got)
	assert.Equal(t, 1, c.Items[0].Position)
}

func TestCompileRichContentVerbatim(t *testing.T) {
	reg := newRegistry()
	id := reg.Add()
	h, _ := reg.Editor(id)
	h.(*editor.Surface).SetValue("Clicked **Login**, got <script>alert(1)</script>")

	c, err := Compile(reg, "", nil)
	require.NoError(t, err)
	assert.Contains(t, c.Items[0].Content, "<strong>Login</strong>")
	assert.Contains(t, c.Items[0].Content, "<script>alert(1)</script>")
}

func TestProjectName(t *testing.T) {
	assert.Equal(t, "report", ProjectName(""))
	assert.Equal(t, "report", ProjectName("   "))
	assert.Equal(t, "Alpha", ProjectName(" Alpha "))
}

func TestDownloadBoundToProject(t *testing.T) {
	var gotProject string
	var gotDoc *Document
	export := func(_ context.Context, doc *Document, project string) (string, error) {
		gotDoc, gotProject = doc, project
		return "/tmp/test-report-" + project + ".pdf", nil
	}

	doc, err := NewCompiler(&recordingRenderer{}, export).Submit(fakeSource{}, "")
	require.NoError(t, err)

	path, err := doc.Download.Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "report", gotProject)
	assert.Same(t, doc, gotDoc)
	assert.True(t, strings.HasSuffix(path, "test-report-report.pdf"))
}

func TestDownloadWithoutExporter(t *testing.T) {
	doc, err := NewCompiler(&recordingRenderer{}, nil).Submit(fakeSource{}, "Alpha")
	require.NoError(t, err)
	_, err = doc.Download.Trigger(context.Background())
	assert.Error(t, err)
}

func TestCompiledIDsDiffer(t *testing.T) {
	a, _ := Compile(fakeSource{}, "", nil)
	b, _ := Compile(fakeSource{}, "", nil)
	assert.NotEqual(t, a.ID, b.ID)
	if diff := cmp.Diff(a, b, cmpopts.IgnoreFields(Compiled{}, "ID")); diff != "" {
		t.Errorf("compiles of the same source differ beyond ID:\n%s", diff)
	}
}
