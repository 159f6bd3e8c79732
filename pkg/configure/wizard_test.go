package configure

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jcadam/verdict/pkg/config"
)

func TestWizardRunInitDefaults(t *testing.T) {
	var out bytes.Buffer
	wiz := NewWizard(strings.NewReader(""), &out)
	cfg, err := wiz.RunInit()
	if err != nil {
		t.Fatalf("RunInit: %v", err)
	}
	if diff := cmp.Diff(config.Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if err := config.Validate(cfg); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestWizardRunInitFull(t *testing.T) {
	// project, output, screenshots, engine=weasyprint, page=Letter, margins,
	// publish y, host, port, user, remote dir, key default, passphrase, pdf app, browser
	input := "Alpha\nout\n\n3\n2\n20\ny\nreports.example.com\n2222\nqa\n/srv/reports\n\n${KEY_PASS}\nevince\n\n"
	var out bytes.Buffer

	wiz := NewWizard(strings.NewReader(input), &out)
	cfg, err := wiz.RunInit()
	if err != nil {
		t.Fatalf("RunInit: %v", err)
	}

	want := config.Default()
	want.Project = "Alpha"
	want.Output.Dir = "out"
	want.Export.Engine = "weasyprint"
	want.Export.PageFormat = "Letter"
	want.Export.MarginPt = 20
	want.Publish = config.PublishConfig{
		Host:       "reports.example.com",
		Port:       2222,
		User:       "qa",
		RemoteDir:  "/srv/reports",
		Passphrase: "${KEY_PASS}",
	}
	want.Apps.PDF = "evince"

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if err := config.Validate(cfg); err != nil {
		t.Errorf("wizard output should validate: %v", err)
	}
}

func TestWizardRunInitDefaultPortOmitted(t *testing.T) {
	input := "\n\n\n1\n\n\n\ny\nhost\n\nqa\n\n\n\n\n\n"
	wiz := NewWizard(strings.NewReader(input), &bytes.Buffer{})
	cfg, err := wiz.RunInit()
	if err != nil {
		t.Fatalf("RunInit: %v", err)
	}
	if cfg.Publish.Port != 0 {
		t.Errorf("expected port left at default, got %d", cfg.Publish.Port)
	}
	if cfg.Publish.Host != "host" || cfg.Publish.User != "qa" {
		t.Errorf("unexpected publish config: %+v", cfg.Publish)
	}
}

func TestWizardRunInitInvalidPort(t *testing.T) {
	input := "\n\n\n3\n\n\ny\nhost\nnot-a-port\n"
	wiz := NewWizard(strings.NewReader(input), &bytes.Buffer{})
	if _, err := wiz.RunInit(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestWizardRunInitPublishWithoutHost(t *testing.T) {
	input := "\n\n\n3\n\n\ny\n\n"
	var out bytes.Buffer
	wiz := NewWizard(strings.NewReader(input), &out)
	cfg, err := wiz.RunInit()
	if err != nil {
		t.Fatalf("RunInit: %v", err)
	}
	if cfg.Publish.Enabled() {
		t.Error("publishing should stay off without a host")
	}
	if !strings.Contains(out.String(), "publishing stays off") {
		t.Errorf("expected notice, got:\n%s", out.String())
	}
}

func TestWizardRunModify(t *testing.T) {
	cfg := config.Default()
	// Export menu, engine=wkhtmltopdf, keep page and margins, stop.
	input := "2\n4\n\n\nn\n"
	var out bytes.Buffer

	wiz := NewWizard(strings.NewReader(input), &out)
	if err := wiz.RunModify(cfg); err != nil {
		t.Fatalf("RunModify: %v", err)
	}
	if cfg.Export.Engine != "wkhtmltopdf" {
		t.Errorf("expected wkhtmltopdf, got %q", cfg.Export.Engine)
	}
	if cfg.Export.PageFormat != "A4" || cfg.Export.MarginPt != 30 {
		t.Errorf("page settings changed: %+v", cfg.Export)
	}
	if !strings.Contains(out.String(), "Publish: off") {
		t.Errorf("expected summary, got:\n%s", out.String())
	}
}

func TestWizardRunModifyInvalidAnswers(t *testing.T) {
	cfg := config.Default()
	input := "2\n9\n\nabc\nxyz\nn\n"
	var out bytes.Buffer

	wiz := NewWizard(strings.NewReader(input), &out)
	if err := wiz.RunModify(cfg); err != nil {
		t.Fatalf("RunModify: %v", err)
	}
	if diff := cmp.Diff(config.Default(), cfg); diff != "" {
		t.Errorf("config should be unchanged (-want +got):\n%s", diff)
	}
	for _, want := range []string{"Invalid choice, keeping auto.", "Invalid choice, keeping A4.", "Not a number, keeping 30."} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q", want)
		}
	}
}
