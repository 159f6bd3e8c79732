package export

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// chromePath finds a local Chrome or Chromium; replaced in tests.
var chromePath = launcher.LookPath

// paperSizes maps page formats to width and height in inches.
var paperSizes = map[string][2]float64{
	"a4":     {8.27, 11.69},
	"letter": {8.5, 11},
	"legal":  {8.5, 14},
}

// Chrome prints through a headless Chrome started for each capture.
type Chrome struct {
	Bin string // browser binary; empty means look it up
}

// Name implements Capturer.
func (Chrome) Name() string { return "chrome" }

// Capture loads html into a blank tab and prints it to PDF.
func (c Chrome) Capture(ctx context.Context, html string, opts Options) ([]byte, error) {
	bin := c.Bin
	if bin == "" {
		found, ok := chromePath()
		if !ok {
			return nil, fmt.Errorf("chrome not found: %w", ErrNoCapturer)
		}
		bin = found
	}

	l := launcher.New().Context(ctx).Bin(bin).Headless(true)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}
	defer l.Cleanup()
	defer l.Kill()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open tab: %w", err)
	}
	if err := page.SetViewport(viewport(opts)); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}
	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait for report: %w", err)
	}

	r, err := page.PDF(printRequest(opts))
	if err != nil {
		return nil, fmt.Errorf("print: %w", err)
	}
	return io.ReadAll(r)
}

// viewport sizes the tab to the paper width at opts.Scale device pixels per
// CSS pixel, so raster content is captured at that resolution.
func viewport(opts Options) *proto.EmulationSetDeviceMetricsOverride {
	w, h := paperSize(opts.PageFormat)
	return &proto.EmulationSetDeviceMetricsOverride{
		Width:             int(w * 96),
		Height:            int(h * 96),
		DeviceScaleFactor: deviceScale(opts.Scale),
	}
}

// printRequest builds the print parameters. Chrome takes inches.
func printRequest(opts Options) *proto.PagePrintToPDF {
	w, h := paperSize(opts.PageFormat)
	margin := opts.Margins / 72
	return &proto.PagePrintToPDF{
		PrintBackground: true,
		PaperWidth:      &w,
		PaperHeight:     &h,
		MarginTop:       &margin,
		MarginBottom:    &margin,
		MarginLeft:      &margin,
		MarginRight:     &margin,
	}
}

func paperSize(format string) (float64, float64) {
	if s, ok := paperSizes[strings.ToLower(format)]; ok {
		return s[0], s[1]
	}
	s := paperSizes["a4"]
	return s[0], s[1]
}

// deviceScale maps scale to a device scale factor. Chrome reads 0 as
// "no override", so non-positive values fall back to 1. Higher factors
// are passed through; they only raise the raster resolution.
func deviceScale(scale float64) float64 {
	if scale <= 0 {
		return 1
	}
	return scale
}
