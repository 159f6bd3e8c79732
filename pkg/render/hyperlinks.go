package render

import (
	"net/url"
	"path/filepath"
	"regexp"

	"github.com/charmbracelet/x/ansi"
)

// urlPattern matches HTTP(S) URLs, stopping before whitespace, ANSI escapes,
// closing parens/brackets/angles, or trailing punctuation.
var urlPattern = regexp.MustCompile(`https?://[^\s\x1b)\]>]+`)

// processHyperlinks wraps URLs in the rendered output with OSC 8 hyperlink
// escape sequences so they become clickable in supporting terminals.
// On TierNone this is a no-op.
func processHyperlinks(rendered string, tier ImageTier) string {
	if tier == TierNone {
		return rendered
	}

	return urlPattern.ReplaceAllStringFunc(rendered, func(url string) string {
		return ansi.SetHyperlink(url) + url + ansi.ResetHyperlink()
	})
}

// fileLink displays path, linked to its file:// URL on capable terminals.
func fileLink(path string, tier ImageTier) string {
	if tier == TierNone {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return ansi.SetHyperlink(u.String()) + path + ansi.ResetHyperlink()
}
