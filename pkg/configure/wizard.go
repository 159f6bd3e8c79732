// Package configure provides the prompt-driven setup for verdict's
// config.yaml.
package configure

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jcadam/verdict/pkg/config"
)

// engines are the PDF engine choices in menu order.
var engines = []string{"auto", "chrome", "weasyprint", "wkhtmltopdf", "pandoc"}

// pageFormats are the page format choices in menu order.
var pageFormats = []string{"A4", "Letter", "Legal"}

// Wizard provides a structured configuration interface.
type Wizard struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewWizard creates a wizard with the given IO.
func NewWizard(r io.Reader, w io.Writer) *Wizard {
	return &Wizard{
		reader: bufio.NewReader(r),
		writer: w,
	}
}

// RunInit walks through initial verdict configuration, starting from the
// defaults. Pressing Enter keeps the default for any question.
func (w *Wizard) RunInit() (*config.Config, error) {
	cfg := config.Default()

	w.print("\n  verdict: manual test reports\n")
	w.print("  ────────────────────────────\n\n")
	w.print("  Let's set up your configuration. Press Enter to keep a default.\n\n")

	w.configureReport(cfg)
	w.configureExport(cfg)
	if err := w.configurePublish(cfg); err != nil {
		return nil, err
	}
	w.configureApps(cfg)

	return cfg, nil
}

// RunModify presents the current config and applies user-requested changes.
func (w *Wizard) RunModify(cfg *config.Config) error {
	w.print("\n  Current Configuration\n")
	w.print("  ────────────────────\n\n")
	w.printConfigSummary(cfg)

	w.print("\n  What would you like to change?\n")
	w.print("  1) Report\n")
	w.print("  2) PDF export\n")
	w.print("  3) Publishing\n")
	w.print("  4) App settings\n")
	w.print("  5) Done\n\n")

	for {
		choice := w.prompt("  Choice [1-5]: ")
		switch strings.TrimSpace(choice) {
		case "1":
			w.configureReport(cfg)
		case "2":
			w.configureExport(cfg)
		case "3":
			if err := w.configurePublish(cfg); err != nil {
				return err
			}
		case "4":
			w.configureApps(cfg)
		case "5", "":
			return nil
		default:
			w.print("  Invalid choice.\n")
		}

		w.print("\n  Continue editing? (y/n): ")
		ans := w.prompt("")
		if strings.ToLower(strings.TrimSpace(ans)) != "y" {
			return nil
		}
	}
}

func (w *Wizard) configureReport(cfg *config.Config) {
	w.print("  Report\n")
	w.print("  ──────\n")
	if v := w.ask("Project name", orDefault(cfg.Project, "report")); v != "report" || cfg.Project != "" {
		cfg.Project = v
	}
	if v := w.ask("Output directory", orDefault(cfg.Output.Dir, "current directory")); v != "current directory" {
		cfg.Output.Dir = v
	}
	if v := w.ask("Screenshot directory", orDefault(cfg.Editor.ScreenshotDir, "current directory")); v != "current directory" {
		cfg.Editor.ScreenshotDir = v
	}
	w.print("\n")
}

func (w *Wizard) configureExport(cfg *config.Config) {
	w.print("  PDF Export\n")
	w.print("  ──────────\n")
	cfg.Export.Engine = w.choose("PDF engine", engines, cfg.Export.Engine)
	if cfg.Export.Engine == "chrome" || cfg.Export.Engine == "auto" {
		if v := w.ask("Chrome binary", orDefault(cfg.Export.ChromeBin, "detect")); v != "detect" {
			cfg.Export.ChromeBin = v
		}
	}
	cfg.Export.PageFormat = w.choose("Page format", pageFormats, cfg.Export.PageFormat)

	margin := w.ask("Margins in points", strconv.FormatFloat(cfg.Export.MarginPt, 'f', -1, 64))
	if f, err := strconv.ParseFloat(margin, 64); err == nil && f >= 0 {
		cfg.Export.MarginPt = f
	} else {
		w.print("  Not a number, keeping " + strconv.FormatFloat(cfg.Export.MarginPt, 'f', -1, 64) + ".\n")
	}
	w.print("\n")
}

func (w *Wizard) configurePublish(cfg *config.Config) error {
	w.print("  Publishing\n")
	w.print("  ──────────\n")
	w.print("  Upload exported PDFs over SCP? (y/n): ")
	ans := w.prompt("")
	if strings.ToLower(strings.TrimSpace(ans)) != "y" {
		w.print("\n")
		return nil
	}

	p := cfg.Publish
	p.Host = w.ask("Host", p.Host)
	if p.Host == "" {
		w.print("  No host given, publishing stays off.\n\n")
		return nil
	}
	port := w.ask("Port", strconv.Itoa(orPort(p.Port)))
	n, err := strconv.Atoi(port)
	if err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("invalid port %q", port)
	}
	if n != 22 {
		p.Port = n
	}
	p.User = w.ask("User", p.User)
	p.RemoteDir = w.ask("Remote directory", p.RemoteDir)
	if v := w.ask("Private key", orDefault(p.KeyFile, "~/.ssh/id_ed25519")); v != "~/.ssh/id_ed25519" {
		p.KeyFile = v
	}
	p.Passphrase = w.ask("Key passphrase (or $ENV_VAR, Enter for none)", p.Passphrase)

	cfg.Publish = p
	w.print("\n")
	return nil
}

func (w *Wizard) configureApps(cfg *config.Config) {
	w.print("  App Settings (press Enter for system default)\n")
	w.print("  ─────────────────────────────────────────────\n")

	pdf := w.prompt("  PDF viewer [default]: ")
	if strings.TrimSpace(pdf) != "" {
		cfg.Apps.PDF = strings.TrimSpace(pdf)
	}
	browser := w.prompt("  Browser [default]: ")
	if strings.TrimSpace(browser) != "" {
		cfg.Apps.Browser = strings.TrimSpace(browser)
	}
	w.print("\n")
}

func (w *Wizard) printConfigSummary(cfg *config.Config) {
	w.print(fmt.Sprintf("  Project: %s\n", orDefault(cfg.Project, "(blank, files are named test-report-report.pdf)")))
	w.print(fmt.Sprintf("  Output:  %s\n", orDefault(cfg.Output.Dir, "current directory")))
	w.print(fmt.Sprintf("  Export:  engine=%s page=%s margins=%gpt\n",
		cfg.Export.Engine, cfg.Export.PageFormat, cfg.Export.MarginPt))
	if cfg.Publish.Enabled() {
		w.print(fmt.Sprintf("  Publish: %s@%s:%s\n", cfg.Publish.User, cfg.Publish.Host, cfg.Publish.RemoteDir))
	} else {
		w.print("  Publish: off\n")
	}
}

// ask prompts for a free-text value, returning def when the answer is blank.
func (w *Wizard) ask(label, def string) string {
	msg := "  " + label + ": "
	if def != "" {
		msg = fmt.Sprintf("  %s [%s]: ", label, def)
	}
	v := strings.TrimSpace(w.prompt(msg))
	if v == "" {
		return def
	}
	return v
}

// choose presents a numbered menu and returns the chosen option, or current
// when the answer is blank or out of range.
func (w *Wizard) choose(label string, options []string, current string) string {
	for i, o := range options {
		w.print(fmt.Sprintf("  %d) %s\n", i+1, o))
	}
	v := strings.TrimSpace(w.prompt(fmt.Sprintf("  %s [%s]: ", label, current)))
	if v == "" {
		return current
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > len(options) {
		w.print("  Invalid choice, keeping " + current + ".\n")
		return current
	}
	return options[n-1]
}

func (w *Wizard) prompt(msg string) string {
	if msg != "" {
		fmt.Fprint(w.writer, msg)
	}
	line, err := w.reader.ReadString('\n')
	if err != nil && line == "" {
		// EOF or read error with no data; return empty to let callers use defaults.
		return ""
	}
	return strings.TrimRight(line, "\n\r")
}

func (w *Wizard) print(msg string) {
	fmt.Fprint(w.writer, msg)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orPort(p int) int {
	if p == 0 {
		return 22
	}
	return p
}
