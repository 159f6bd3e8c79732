// Package export saves a compiled report document as a PDF file.
//
// The document's HTML is handed to a Capturer (headless Chrome or an
// external converter) which owns layout and pagination. Exporter wraps the
// capture with the download control hidden, at most one export at a time,
// and an atomic write into the output directory.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/jcadam/verdict/pkg/debug"
	"github.com/jcadam/verdict/pkg/report"
	"github.com/jcadam/verdict/pkg/slug"
)

var (
	// ErrExportInFlight is returned when an export starts while another is running.
	ErrExportInFlight = errors.New("an export is already in progress")
	// ErrNoCapturer is returned when no PDF engine is available.
	ErrNoCapturer = errors.New("no PDF engine available")
)

// Options control the capture.
type Options struct {
	Scale        float64 // device pixels per CSS pixel for raster content
	ImageQuality float64 // JPEG quality for embedded images, 0-1; 0 keeps PNGs
	PageFormat   string  // "A4", "Letter" or "Legal"
	Margins      float64 // page margin on all sides, in points
}

// DefaultOptions returns the capture settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Scale:        2,
		ImageQuality: 0.7,
		PageFormat:   "A4",
		Margins:      30,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Scale <= 0 {
		o.Scale = d.Scale
	}
	if o.PageFormat == "" {
		o.PageFormat = d.PageFormat
	}
	if o.Margins < 0 {
		o.Margins = 0
	}
	return o
}

// Capturer turns a self-contained HTML page into PDF bytes.
type Capturer interface {
	Name() string
	Capture(ctx context.Context, html string, opts Options) ([]byte, error)
}

// FileName returns the PDF file name for project.
func FileName(project string) string {
	return "test-report-" + slug.FileComponent(report.ProjectName(project), report.DefaultProject) + ".pdf"
}

// Exporter writes report PDFs into a directory.
type Exporter struct {
	capturer Capturer
	dir      string
	opts     Options
	timeout  time.Duration
	log      *debug.Logger
	sem      *semaphore.Weighted
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithOptions sets the capture options.
func WithOptions(o Options) Option {
	return func(e *Exporter) { e.opts = o.withDefaults() }
}

// WithTimeout bounds each capture. Zero means no limit beyond the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(e *Exporter) { e.timeout = d }
}

// WithLogger sets the debug logger.
func WithLogger(l *debug.Logger) Option {
	return func(e *Exporter) { e.log = l }
}

// New creates an Exporter that captures with c and writes into dir.
func New(c Capturer, dir string, opts ...Option) *Exporter {
	e := &Exporter{
		capturer: c,
		dir:      dir,
		opts:     DefaultOptions(),
		sem:      semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dir returns the output directory.
func (e *Exporter) Dir() string { return e.dir }

// Export captures doc and saves it as FileName(project) in the output
// directory, returning the written path. The download control is hidden for
// the duration of the capture and restored afterwards whatever the outcome.
// On failure no file is left behind.
func (e *Exporter) Export(ctx context.Context, doc *report.Document, project string) (string, error) {
	if e.capturer == nil {
		return "", ErrNoCapturer
	}
	if !e.sem.TryAcquire(1) {
		return "", ErrExportInFlight
	}
	defer e.sem.Release(1)

	release := hold(doc.Download)
	defer release()

	html, err := doc.HTML(report.Page{Size: e.opts.PageFormat, MarginPt: e.opts.Margins})
	if err != nil {
		return "", err
	}
	html = RecompressImages(html, e.opts.ImageQuality)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	e.log.Printf("export: capturing report %s with %s", doc.ID, e.capturer.Name())
	start := time.Now()
	pdf, err := e.capturer.Capture(ctx, html, e.opts)
	if err != nil {
		e.log.Printf("export: capture failed after %s: %v", time.Since(start).Round(time.Millisecond), err)
		return "", fmt.Errorf("capturing PDF with %s: %w", e.capturer.Name(), err)
	}

	path := filepath.Join(e.dir, FileName(project))
	if err := writeFileAtomic(path, pdf); err != nil {
		return "", err
	}
	e.log.Printf("export: wrote %s (%d bytes) in %s", path, len(pdf), time.Since(start).Round(time.Millisecond))
	return path, nil
}

// hold hides c and returns a func that restores its previous visibility.
func hold(c *report.Control) func() {
	wasVisible := c.Visible()
	c.Hide()
	return func() {
		if wasVisible {
			c.Show()
		}
	}
}

// writeFileAtomic writes data to a temp file beside path and renames it
// into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".test-report-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing PDF: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing PDF: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing PDF: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("saving PDF: %w", err)
	}
	return nil
}

// Unavailable is a Capturer that always fails with Err. It stands in when no
// engine could be selected, so the report can still be compiled and viewed.
type Unavailable struct {
	Err error
}

// Name implements Capturer.
func (Unavailable) Name() string { return "none" }

// Capture implements Capturer.
func (u Unavailable) Capture(context.Context, string, Options) ([]byte, error) {
	if u.Err == nil {
		return nil, ErrNoCapturer
	}
	return nil, u.Err
}
