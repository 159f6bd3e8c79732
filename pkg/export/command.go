package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// lookPath is exec.LookPath; replaced in tests.
var lookPath = exec.LookPath

// converterOrder is the preference order for external converters.
var converterOrder = []string{"weasyprint", "wkhtmltopdf", "pandoc"}

// Command converts with an external HTML-to-PDF tool.
type Command struct {
	Tool string // weasyprint, wkhtmltopdf or pandoc
	Path string // resolved binary
}

// Name implements Capturer.
func (c *Command) Name() string { return c.Tool }

// Capture writes html to a temp dir, runs the tool and reads the PDF back.
func (c *Command) Capture(ctx context.Context, html string, opts Options) ([]byte, error) {
	dir, err := os.MkdirTemp("", "verdict-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "report.html")
	out := filepath.Join(dir, "report.pdf")
	if err := os.WriteFile(in, []byte(html), 0o600); err != nil {
		return nil, fmt.Errorf("writing HTML: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.Path, c.args(in, out, opts)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", c.Tool, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", c.Tool, err)
	}

	pdf, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("reading %s output: %w", c.Tool, err)
	}
	return pdf, nil
}

// args builds the command line. weasyprint reads page size and margins
// from the document's @page rule.
func (c *Command) args(in, out string, opts Options) []string {
	switch c.Tool {
	case "wkhtmltopdf":
		margin := fmt.Sprintf("%.1fmm", opts.Margins*25.4/72)
		return []string{
			"--quiet",
			"--enable-local-file-access",
			"--page-size", pageFormatName(opts.PageFormat),
			"--margin-top", margin,
			"--margin-bottom", margin,
			"--margin-left", margin,
			"--margin-right", margin,
			in, out,
		}
	case "pandoc":
		return []string{
			in, "-o", out,
			"-V", "papersize=" + strings.ToLower(pageFormatName(opts.PageFormat)),
			"-V", fmt.Sprintf("geometry:margin=%gpt", opts.Margins),
		}
	default:
		return []string{in, out}
	}
}

func pageFormatName(format string) string {
	switch strings.ToLower(format) {
	case "letter":
		return "Letter"
	case "legal":
		return "Legal"
	}
	return "A4"
}

// findPDFConverter returns the first available converter in preference
// order, or nil.
func findPDFConverter() *Command {
	for _, tool := range converterOrder {
		if path, err := lookPath(tool); err == nil {
			return &Command{Tool: tool, Path: path}
		}
	}
	return nil
}

// Select picks a capturer for engine: "chrome", one of the converter names,
// or "auto" (also the empty string) which prefers Chrome and falls back to
// the converters in order. chromeBin overrides the Chrome lookup.
func Select(engine, chromeBin string) (Capturer, error) {
	switch engine := strings.ToLower(strings.TrimSpace(engine)); engine {
	case "", "auto":
		if chromeBin != "" {
			return Chrome{Bin: chromeBin}, nil
		}
		if bin, ok := chromePath(); ok {
			return Chrome{Bin: bin}, nil
		}
		if conv := findPDFConverter(); conv != nil {
			return conv, nil
		}
		return nil, fmt.Errorf("%w: install Chrome or Chromium, or one of %s",
			ErrNoCapturer, strings.Join(converterOrder, ", "))

	case "chrome":
		if chromeBin != "" {
			return Chrome{Bin: chromeBin}, nil
		}
		bin, ok := chromePath()
		if !ok {
			return nil, fmt.Errorf("%w: Chrome or Chromium not found", ErrNoCapturer)
		}
		return Chrome{Bin: bin}, nil

	default:
		for _, tool := range converterOrder {
			if tool != engine {
				continue
			}
			path, err := lookPath(tool)
			if err != nil {
				if errors.Is(err, exec.ErrNotFound) {
					return nil, fmt.Errorf("%w: %s not found in PATH", ErrNoCapturer, tool)
				}
				return nil, fmt.Errorf("locating %s: %w", tool, err)
			}
			return &Command{Tool: tool, Path: path}, nil
		}
		return nil, fmt.Errorf("unknown PDF engine %q (want auto, chrome, %s)", engine, strings.Join(converterOrder, ", "))
	}
}
