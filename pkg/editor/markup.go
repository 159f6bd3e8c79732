package editor

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// md allows raw HTML so <u> from the underline control survives.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// ToHTML converts markdown to HTML markup. Image destinations that point at
// readable local files are replaced with base64 data URIs so the markup is
// self-contained. Unreadable paths are left as-is.
func ToHTML(source, baseDir string) (string, error) {
	if strings.TrimSpace(source) == "" {
		return "", nil
	}
	src := []byte(source)
	doc := md.Parser().Parse(text.NewReader(src))

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if img, ok := n.(*ast.Image); ok {
			if uri, ok := inlineImage(string(img.Destination), baseDir); ok {
				img.Destination = []byte(uri)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("walking markdown: %w", err)
	}

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, src, doc); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}

// inlineImage reads a local image and returns it as a data URI.
func inlineImage(dest, baseDir string) (string, bool) {
	if dest == "" || strings.Contains(dest, "://") || strings.HasPrefix(dest, "data:") {
		return "", false
	}
	path := dest
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}

	ctype := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if !strings.HasPrefix(ctype, "image/") {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return "data:" + ctype + ";base64," + base64.StdEncoding.EncodeToString(data), true
}

var formattingPatterns = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`), "$1"},
	{regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`), "$1"},
	{regexp.MustCompile(`\*\*([^*]*)\*\*`), "$1"},
	{regexp.MustCompile(`__([^_]*)__`), "$1"},
	{regexp.MustCompile(`\b_([^_]*)_\b`), "$1"},
	{regexp.MustCompile(`\*([^*]*)\*`), "$1"},
	{regexp.MustCompile(`</?u>`), ""},
	{regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+\.)\s+`), ""},
}

// StripFormatting removes inline markdown formatting and list markers,
// keeping the visible text.
func StripFormatting(s string) string {
	for _, p := range formattingPatterns {
		s = p.re.ReplaceAllString(s, p.repl)
	}
	return s
}
