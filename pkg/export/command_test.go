package export

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func withLookPath(t *testing.T, available ...string) {
	t.Helper()
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })
	lookPath = func(file string) (string, error) {
		for _, a := range available {
			if a == file {
				return "/usr/bin/" + file, nil
			}
		}
		return "", exec.ErrNotFound
	}
}

func withChrome(t *testing.T, path string) {
	t.Helper()
	orig := chromePath
	t.Cleanup(func() { chromePath = orig })
	chromePath = func() (string, bool) { return path, path != "" }
}

func TestFindPDFConverterNone(t *testing.T) {
	withLookPath(t)
	if conv := findPDFConverter(); conv != nil {
		t.Errorf("expected nil converter when no tools available, got %s", conv.Tool)
	}
}

func TestFindPDFConverterOrder(t *testing.T) {
	withLookPath(t, "pandoc")
	conv := findPDFConverter()
	if conv == nil {
		t.Fatal("expected pandoc converter")
	}
	if conv.Tool != "pandoc" || conv.Path != "/usr/bin/pandoc" {
		t.Errorf("expected pandoc at /usr/bin/pandoc, got %s at %s", conv.Tool, conv.Path)
	}
}

func TestFindPDFConverterPreference(t *testing.T) {
	withLookPath(t, "weasyprint", "wkhtmltopdf")
	conv := findPDFConverter()
	if conv == nil {
		t.Fatal("expected weasyprint converter")
	}
	if conv.Tool != "weasyprint" {
		t.Errorf("expected weasyprint, got %s", conv.Tool)
	}
}

func TestSelectAutoPrefersChrome(t *testing.T) {
	withChrome(t, "/opt/chrome")
	withLookPath(t, "weasyprint")

	c, err := Select("auto", "")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got, ok := c.(Chrome); !ok || got.Bin != "/opt/chrome" {
		t.Errorf("expected Chrome at /opt/chrome, got %#v", c)
	}
}

func TestSelectAutoFallsBackToConverter(t *testing.T) {
	withChrome(t, "")
	withLookPath(t, "wkhtmltopdf")

	c, err := Select("", "")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if c.Name() != "wkhtmltopdf" {
		t.Errorf("expected wkhtmltopdf, got %s", c.Name())
	}
}

func TestSelectAutoNothingInstalled(t *testing.T) {
	withChrome(t, "")
	withLookPath(t)

	_, err := Select("auto", "")
	if !errors.Is(err, ErrNoCapturer) {
		t.Fatalf("expected ErrNoCapturer, got %v", err)
	}
	for _, tool := range []string{"Chrome", "weasyprint", "wkhtmltopdf", "pandoc"} {
		if !strings.Contains(err.Error(), tool) {
			t.Errorf("error message should mention %s: %s", tool, err)
		}
	}
}

func TestSelectExplicitChromeBin(t *testing.T) {
	withChrome(t, "")
	c, err := Select("chrome", "/custom/chromium")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if c.(Chrome).Bin != "/custom/chromium" {
		t.Errorf("expected configured binary, got %#v", c)
	}

	if _, err := Select("chrome", ""); !errors.Is(err, ErrNoCapturer) {
		t.Errorf("expected ErrNoCapturer without chrome, got %v", err)
	}
}

func TestSelectNamedConverter(t *testing.T) {
	withLookPath(t, "pandoc")

	c, err := Select("Pandoc", "")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if c.Name() != "pandoc" {
		t.Errorf("expected pandoc, got %s", c.Name())
	}
	if _, err := Select("weasyprint", ""); !errors.Is(err, ErrNoCapturer) {
		t.Errorf("expected ErrNoCapturer for missing weasyprint, got %v", err)
	}
	if _, err := Select("prince", ""); err == nil || errors.Is(err, ErrNoCapturer) {
		t.Errorf("expected unknown engine error, got %v", err)
	}
}

func TestCommandArgs(t *testing.T) {
	opts := Options{PageFormat: "letter", Margins: 72}

	wk := (&Command{Tool: "wkhtmltopdf"}).args("in.html", "out.pdf", opts)
	got := strings.Join(wk, " ")
	for _, want := range []string{"--page-size Letter", "--margin-top 25.4mm", "in.html out.pdf"} {
		if !strings.Contains(got, want) {
			t.Errorf("wkhtmltopdf args %q missing %q", got, want)
		}
	}

	pd := strings.Join((&Command{Tool: "pandoc"}).args("in.html", "out.pdf", opts), " ")
	if pd != "in.html -o out.pdf -V papersize=letter -V geometry:margin=72pt" {
		t.Errorf("pandoc args = %q", pd)
	}

	ws := (&Command{Tool: "weasyprint"}).args("in.html", "out.pdf", opts)
	if strings.Join(ws, " ") != "in.html out.pdf" {
		t.Errorf("weasyprint args = %q", ws)
	}
}

func TestCommandCaptureFailureIncludesStderr(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("no sh available")
	}
	// weasyprint args are "in out"; sh treats in as a script that fails.
	c := &Command{Tool: "weasyprint", Path: sh}
	_, err = c.Capture(context.Background(), "echo broken >&2; exit 3", Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("expected stderr in error, got %v", err)
	}
}

func TestCommandCaptureIntegration(t *testing.T) {
	conv := findPDFConverter()
	if conv == nil {
		t.Skip("no PDF converter installed, skipping integration test")
	}

	pdf, err := conv.Capture(context.Background(), "<!DOCTYPE html><html><body><h1>Integration</h1></body></html>", DefaultOptions())
	if err != nil {
		t.Fatalf("Capture with %s: %v", conv.Tool, err)
	}
	if len(pdf) < 5 || string(pdf[:5]) != "%PDF-" {
		t.Errorf("expected PDF magic bytes, got %q", string(pdf[:min(len(pdf), 10)]))
	}
}
