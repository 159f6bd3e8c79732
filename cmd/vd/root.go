package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jcadam/verdict/pkg/app"
	"github.com/jcadam/verdict/pkg/charts"
	"github.com/jcadam/verdict/pkg/config"
	"github.com/jcadam/verdict/pkg/debug"
	"github.com/jcadam/verdict/pkg/editor"
	"github.com/jcadam/verdict/pkg/export"
	"github.com/jcadam/verdict/pkg/form"
)

// Flags shared by the interactive form and the batch compile.
var (
	debugFlag   bool
	projectFlag string
	outFlag     string
	engineFlag  string
)

// selectCapturer picks the PDF engine; replaced in tests.
var selectCapturer = export.Select

var rootCmd = &cobra.Command{
	Use:           "vd",
	Short:         "verdict: manual test reports",
	Long:          "verdict records manual test-case outcomes, compiles them into a report with a summary chart, and exports the report as a PDF.",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("vd needs an interactive terminal; use 'vd compile <cases.yaml>' for batch mode")
		}

		verdictDir, err := config.VerdictDir()
		if err != nil {
			return err
		}
		cfg, err := loadConfig(verdictDir)
		if err != nil {
			return err
		}

		// The form owns the terminal, so debug output goes to a file.
		var log *debug.Logger
		if debugFlag {
			f, err := openDebugLog(verdictDir)
			if err != nil {
				return err
			}
			defer f.Close()
			log = debug.NewLogger(f)
			defer log.Sync()
		}

		a, err := buildApp(cfg, log, false)
		if err != nil {
			return err
		}
		return form.Run(cmd.Context(), a)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "write debug logs (to $VERDICT_DIR/debug.log in the form, stderr in batch mode)")
	rootCmd.PersistentFlags().StringVar(&projectFlag, "project", "", "project name used in the report title and PDF file name")
	rootCmd.PersistentFlags().StringVar(&outFlag, "out", "", "directory the PDF is written to (default: output.dir or the working directory)")
	rootCmd.PersistentFlags().StringVar(&engineFlag, "engine", "", "PDF engine: auto, chrome, weasyprint, wkhtmltopdf, pandoc")
}

// loadConfig reads config.yaml from verdictDir, falling back to defaults
// when none exists, then applies the command-line overrides.
func loadConfig(verdictDir string) (*config.Config, error) {
	cfg, err := config.Load(verdictDir)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if outFlag != "" {
		cfg.Output.Dir = outFlag
	}
	if engineFlag != "" {
		cfg.Export.Engine = engineFlag
	}
	return cfg, nil
}

// buildApp selects a PDF engine and builds the application. A missing engine
// is not fatal: the report can still be compiled and viewed, and the
// download fails with the selection error.
func buildApp(cfg *config.Config, log *debug.Logger, noInitialCase bool) (*app.App, error) {
	capturer, err := selectCapturer(cfg.Export.Engine, cfg.Export.ChromeBin)
	if err != nil {
		log.Printf("no PDF engine: %v", err)
		capturer = export.Unavailable{Err: err}
	}
	return app.New(cfg, app.Options{
		Editors:       editor.TextareaFactory{},
		Charts:        charts.PNGRenderer{},
		Capturer:      capturer,
		Log:           log,
		Project:       projectFlag,
		NoInitialCase: noInitialCase,
	})
}

func openDebugLog(verdictDir string) (io.WriteCloser, error) {
	if err := os.MkdirAll(verdictDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", verdictDir, err)
	}
	path := filepath.Join(verdictDir, "debug.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening debug log: %w", err)
	}
	return f, nil
}
