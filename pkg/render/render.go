// Package render draws compiled reports in the terminal and hosts the
// scrollable report viewer.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/muesli/termenv"

	"github.com/jcadam/verdict/pkg/report"
)

// RenderMarkdown renders markdown to styled terminal output using Glamour.
// theme is "dark", "light" or "auto"; auto asks the terminal for its
// background. Terminals with inline images get the verdict style.
func RenderMarkdown(markdown string, width int, theme string, tier ImageTier) (string, error) {
	if width <= 0 {
		width = 80
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(styleFor(theme, tier)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}

// RenderReport renders doc with its summary chart drawn in place. The
// markdown is rendered in two parts around the chart marker so word
// wrapping never reaches the marker itself.
func RenderReport(doc *report.Document, width int, theme string, tier ImageTier) (string, error) {
	head, tail, found := strings.Cut(doc.Markdown(), report.ChartMarker)
	out, err := RenderMarkdown(head, width, theme, tier)
	if err != nil {
		return "", err
	}
	if found {
		rest, err := RenderMarkdown(tail, width, theme, tier)
		if err != nil {
			return "", err
		}
		out = joinChart(out, rest, doc.Canvas(), tier)
	}
	return processHyperlinks(out, tier), nil
}

func styleFor(theme string, tier ImageTier) ansi.StyleConfig {
	dark := true
	switch strings.ToLower(theme) {
	case "light":
		dark = false
	case "dark":
	default:
		dark = termenv.HasDarkBackground()
	}
	switch {
	case !dark:
		return styles.LightStyleConfig
	case tier != TierNone:
		return verdictStyle()
	default:
		return styles.DarkStyleConfig
	}
}

// verdictStyle returns a custom Glamour style based on TokyoNight with a
// subtle H1 banner and Unicode horizontal rules.
func verdictStyle() ansi.StyleConfig {
	s := styles.TokyoNightStyleConfig

	// H1: subtle dark background for a banner effect
	s.H1.BackgroundColor = stringPtr("#1a1b26")

	s.HorizontalRule.Format = "\n──────────\n"

	return s
}

func stringPtr(s string) *string { return &s }
