package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/jcadam/verdict/pkg/app"
	"github.com/jcadam/verdict/pkg/cases"
	"github.com/jcadam/verdict/pkg/config"
	"github.com/jcadam/verdict/pkg/debug"
	"github.com/jcadam/verdict/pkg/editor"
	"github.com/jcadam/verdict/pkg/export"
	"github.com/jcadam/verdict/pkg/report"
)

var (
	pdfFlag     bool
	htmlFlag    bool
	publishFlag bool
	openFlag    bool
)

func init() {
	compileCmd.Flags().BoolVar(&pdfFlag, "pdf", true, "export the report as a PDF")
	compileCmd.Flags().BoolVar(&htmlFlag, "html", false, "also write the report as HTML next to the PDF")
	compileCmd.Flags().BoolVar(&publishFlag, "publish", false, "upload the PDF to the configured publish host")
	compileCmd.Flags().BoolVar(&openFlag, "open", false, "open the PDF (or the HTML when --pdf=false) when done")
	rootCmd.AddCommand(compileCmd)
}

var compileCmd = &cobra.Command{
	Use:   "compile <cases.yaml>",
	Short: "Compile a report from a cases file",
	Long: `Reads test cases from a YAML file and exports the report without the form.

The file lists cases in report order:

  project: Alpha
  cases:
    - name: Login
      status: pass
      notes: |
        Works as expected.
        ![login](shots/login.png)
    - name: Logout
      status: fail

Screenshot paths are resolved relative to the cases file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		verdictDir, err := config.VerdictDir()
		if err != nil {
			return err
		}
		cfg, err := loadConfig(verdictDir)
		if err != nil {
			return err
		}

		var log *debug.Logger
		if debugFlag {
			log = debug.NewLogger(os.Stderr)
			defer log.Sync()
		}

		return runCompile(cmd.Context(), cmd.OutOrStdout(), cfg, args[0], log)
	},
}

// caseFile is the batch input format.
type caseFile struct {
	Project string     `yaml:"project"`
	Cases   []caseSpec `yaml:"cases"`
}

type caseSpec struct {
	Name   string `yaml:"name"`
	Status string `yaml:"status"`
	Notes  string `yaml:"notes"`
}

func loadCaseFile(path string) (*caseFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cases: %w", err)
	}
	var cf caseFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cf, nil
}

func runCompile(ctx context.Context, out io.Writer, cfg *config.Config, path string, log *debug.Logger) error {
	cf, err := loadCaseFile(path)
	if err != nil {
		return err
	}
	if cfg.Editor.ScreenshotDir == "" {
		cfg.Editor.ScreenshotDir = filepath.Dir(path)
	}
	if projectFlag == "" && cf.Project != "" {
		cfg.Project = cf.Project
	}

	a, err := buildApp(cfg, log, true)
	if err != nil {
		return err
	}
	if err := fillCases(a, cf.Cases); err != nil {
		return err
	}

	doc, err := a.Compile()
	if err != nil {
		return fmt.Errorf("compiling report: %w", err)
	}
	fmt.Fprintf(out, "Compiled %d cases: %d pass, %d fail, %d skip\n",
		len(doc.Items), doc.Aggregate.Pass, doc.Aggregate.Fail, doc.Aggregate.Skip)

	// The standalone HTML has no use for the download button.
	var page string
	if htmlFlag {
		page, err = staticHTML(doc, cfg)
		if err != nil {
			return err
		}
	}

	if pdfFlag && publishFlag && !a.Publisher.Enabled() {
		return fmt.Errorf("--publish: no publish host configured")
	}

	var htmlPath, pdfPath, dest string
	g, gctx := errgroup.WithContext(ctx)
	if htmlFlag {
		g.Go(func() error {
			dir := a.Exporter.Dir()
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			p := filepath.Join(dir, strings.TrimSuffix(export.FileName(doc.Project), ".pdf")+".html")
			if err := os.WriteFile(p, []byte(page), 0o644); err != nil {
				return fmt.Errorf("writing HTML: %w", err)
			}
			htmlPath = p
			return nil
		})
	}
	if pdfFlag {
		g.Go(func() error {
			p, err := doc.Download.Trigger(gctx)
			if err != nil {
				return err
			}
			pdfPath = p
			if publishFlag {
				dest, err = a.Publisher.Upload(gctx, p)
			}
			return err
		})
	}
	err = g.Wait()

	for _, p := range []string{htmlPath, pdfPath} {
		if p != "" {
			fmt.Fprintf(out, "Wrote %s\n", p)
		}
	}
	if dest != "" {
		fmt.Fprintf(out, "Published %s\n", dest)
	}
	if err != nil || !openFlag {
		return err
	}
	switch {
	case pdfPath != "":
		return a.Handoff.OpenPDF(pdfPath)
	case htmlPath != "":
		return a.Handoff.OpenURL(htmlPath)
	}
	return nil
}

// fillCases adds one registry entry per spec, in file order.
func fillCases(a *app.App, specs []caseSpec) error {
	for i, spec := range specs {
		status, err := cases.ParseStatus(spec.Status)
		if err != nil {
			return fmt.Errorf("case %d: %w", i+1, err)
		}
		id := a.Registry.Add()
		if err := a.Registry.SetName(id, spec.Name); err != nil {
			return err
		}
		if err := a.Registry.SetStatus(id, status); err != nil {
			return err
		}
		if spec.Notes == "" {
			continue
		}
		h, ok := a.Registry.Editor(id)
		if !ok {
			return fmt.Errorf("case %d: no editor bound", i+1)
		}
		s, ok := h.(*editor.Surface)
		if !ok {
			return fmt.Errorf("case %d: editor does not accept text", i+1)
		}
		s.SetValue(spec.Notes)
	}
	return nil
}

func staticHTML(doc *report.Document, cfg *config.Config) (string, error) {
	wasVisible := doc.Download.Visible()
	doc.Download.Hide()
	defer func() {
		if wasVisible {
			doc.Download.Show()
		}
	}()
	page, err := doc.HTML(report.Page{Size: cfg.Export.PageFormat, MarginPt: cfg.Export.MarginPt})
	if err != nil {
		return "", fmt.Errorf("rendering HTML: %w", err)
	}
	return page, nil
}
