package report

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

var blankLines = regexp.MustCompile(`\n{3,}`)

// MarkupText converts case markup to markdown-ish plain text for the
// terminal. Images become "[image: alt]"; unknown tags are dropped.
func MarkupText(markup string) string {
	z := html.NewTokenizer(strings.NewReader(markup))
	var b strings.Builder
	listDepth := 0
	ordered := []int{}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				out := blankLines.ReplaceAllString(b.String(), "\n\n")
				return strings.TrimSpace(out)
			}
			return strings.TrimSpace(b.String())

		case html.TextToken:
			b.Write(z.Text())

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "p", "div", "h1", "h2", "h3", "h4", "h5", "h6", "pre", "blockquote":
				b.WriteString("\n\n")
			case "br":
				b.WriteString("\n")
			case "strong", "b":
				b.WriteString("**")
			case "em", "i":
				b.WriteString("_")
			case "ul":
				listDepth++
				ordered = append(ordered, 0)
			case "ol":
				listDepth++
				ordered = append(ordered, 1)
			case "li":
				if !strings.HasSuffix(b.String(), "\n") {
					b.WriteString("\n")
				}
				b.WriteString(strings.Repeat("  ", max(listDepth-1, 0)))
				if n := len(ordered); n > 0 && ordered[n-1] > 0 {
					b.WriteString(strconv.Itoa(ordered[n-1]) + ". ")
					ordered[n-1]++
				} else {
					b.WriteString("- ")
				}
			case "img":
				alt := ""
				for hasAttr {
					var key, val []byte
					key, val, hasAttr = z.TagAttr()
					if string(key) == "alt" {
						alt = string(val)
					}
				}
				b.WriteString("[image: " + alt + "]")
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "strong", "b":
				b.WriteString("**")
			case "em", "i":
				b.WriteString("_")
			case "ul", "ol":
				if listDepth > 0 {
					listDepth--
					ordered = ordered[:len(ordered)-1]
				}
				b.WriteString("\n")
			case "p", "div", "pre", "blockquote":
				b.WriteString("\n")
			}
		}
	}
}
