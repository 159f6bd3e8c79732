// Package app wires the registry, compiler, exporter and publisher into the
// single application instance shared by the form and the batch command.
package app

import (
	"errors"
	"fmt"

	"github.com/jcadam/verdict/pkg/actions"
	"github.com/jcadam/verdict/pkg/cases"
	"github.com/jcadam/verdict/pkg/charts"
	"github.com/jcadam/verdict/pkg/config"
	"github.com/jcadam/verdict/pkg/debug"
	"github.com/jcadam/verdict/pkg/editor"
	"github.com/jcadam/verdict/pkg/export"
	"github.com/jcadam/verdict/pkg/publish"
	"github.com/jcadam/verdict/pkg/report"
)

// ErrMissingCollaborator is returned by New when a required dependency is nil.
var ErrMissingCollaborator = errors.New("missing required collaborator")

// Options supplies the collaborators New cannot build from config alone.
type Options struct {
	Editors  editor.Factory  // required
	Charts   charts.Renderer // required
	Capturer export.Capturer // required
	Log      *debug.Logger
	// Project overrides cfg.Project when non-empty.
	Project string
	// NoInitialCase skips creating the first empty case.
	NoInitialCase bool
}

// App is the running application.
type App struct {
	Config    *config.Config
	Registry  *cases.Registry
	Compiler  *report.Compiler
	Exporter  *export.Exporter
	Publisher *publish.Publisher
	Handoff   *actions.Handoff
	Log       *debug.Logger

	project string
}

// New validates cfg and builds the application. Unless opts.NoInitialCase is
// set the registry starts with one empty case.
func New(cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config", ErrMissingCollaborator)
	}
	switch {
	case opts.Editors == nil:
		return nil, fmt.Errorf("%w: editor factory", ErrMissingCollaborator)
	case opts.Charts == nil:
		return nil, fmt.Errorf("%w: chart renderer", ErrMissingCollaborator)
	case opts.Capturer == nil:
		return nil, fmt.Errorf("%w: PDF capturer", ErrMissingCollaborator)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	resolved := cfg.DeepCopy()
	config.ResolveEnvVars(resolved)

	log := opts.Log
	exporter := export.New(opts.Capturer, resolved.Output.Dir,
		export.WithOptions(export.Options{
			Scale:        resolved.Export.Scale,
			ImageQuality: resolved.Export.ImageQuality,
			PageFormat:   resolved.Export.PageFormat,
			Margins:      resolved.Export.MarginPt,
		}),
		export.WithTimeout(resolved.ExportTimeout()),
		export.WithLogger(log.With("component", "export")),
	)

	compilerOpts := []report.CompilerOption{report.WithLogger(log.With("component", "report"))}
	if resolved.Chart.Width > 0 && resolved.Chart.Height > 0 {
		compilerOpts = append(compilerOpts, report.WithChartSize(resolved.Chart.Width, resolved.Chart.Height))
	}

	registry := cases.New(opts.Editors, editor.Config{
		Toolbar:     resolved.EditorControls(),
		Placeholder: resolved.Editor.Placeholder,
		Height:      resolved.Editor.Height,
		BaseDir:     resolved.Editor.ScreenshotDir,
	})

	a := &App{
		Config:   cfg,
		Registry: registry,
		Compiler: report.NewCompiler(opts.Charts, exporter.Export, compilerOpts...),
		Exporter: exporter,
		Handoff:  actions.NewHandoff(resolved.Apps),
		Log:      log,
		project:  cfg.Project,
	}
	if resolved.Publish.Enabled() {
		a.Publisher = publish.New(resolved.Publish, log.With("component", "publish"))
	}
	if opts.Project != "" {
		a.project = opts.Project
	}
	if !opts.NoInitialCase {
		a.Registry.Add()
	}
	log.Printf("app: started with engine %s, output %q", opts.Capturer.Name(), exporter.Dir())
	return a, nil
}

// Project returns the project name as typed, possibly blank.
func (a *App) Project() string { return a.project }

// SetProject updates the project name used for the next compile.
func (a *App) SetProject(name string) { a.project = name }

// Compile builds and shows a report for the current cases.
func (a *App) Compile() (*report.Document, error) {
	a.Log.Section("compile")
	return a.Compiler.Submit(a.Registry, a.project)
}
