package render

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BourgeoisBear/rasterm"
	"golang.org/x/term"
)

// ImageTier is how the summary chart reaches the terminal.
type ImageTier int

const (
	TierNone  ImageTier = iota // table only
	TierKitty                  // kitty graphics protocol
	TierIterm                  // OSC 1337 (iTerm2, WezTerm)
)

// chartCols is the width, in cells, the chart image is scaled to.
const chartCols = 40

var isTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

// DetectImageTier maps the rendering.images setting to a tier. "text"
// and unknown values draw the table only; "inline" trusts the terminal
// even when stdout is redirected; "auto" also requires a TTY.
func DetectImageTier(mode string) ImageTier {
	switch strings.ToLower(mode) {
	case "inline":
	case "", "auto":
		if !isTerminal() {
			return TierNone
		}
	default:
		return TierNone
	}
	switch {
	case rasterm.IsKittyCapable():
		return TierKitty
	case rasterm.IsItermCapable():
		return TierIterm
	}
	// rasterm's sixel writer takes a paletted image, and the chart is PNG.
	return TierNone
}

// writeChartImage writes the chart PNG as an inline image chartCols wide.
func writeChartImage(w io.Writer, png []byte, tier ImageTier) error {
	var err error
	switch tier {
	case TierKitty:
		err = rasterm.KittyCopyPNGInline(w, bytes.NewReader(png), rasterm.KittyImgOpts{DstCols: chartCols})
	case TierIterm:
		err = rasterm.ItermCopyFileInlineWithOptions(w, bytes.NewReader(png), rasterm.ItermImgOpts{
			Name:          "summary.png",
			Width:         fmt.Sprint(chartCols),
			Size:          int64(len(png)),
			DisplayInline: true,
		})
	}
	if err != nil {
		return fmt.Errorf("writing chart image: %w", err)
	}
	return nil
}
