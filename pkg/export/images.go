package export

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"regexp"
)

var pngDataURI = regexp.MustCompile(`data:image/png;base64,([A-Za-z0-9+/=]+)`)

// RecompressImages re-encodes PNG data URIs in html as JPEG at quality
// (0-1). Transparent areas become white. Images that fail to decode are
// left unchanged. A quality of 0 or less disables recompression.
func RecompressImages(html string, quality float64) string {
	if quality <= 0 {
		return html
	}
	q := int(quality * 100)
	q = min(max(q, 1), 100)

	return pngDataURI.ReplaceAllStringFunc(html, func(uri string) string {
		raw, err := base64.StdEncoding.DecodeString(uri[len("data:image/png;base64,"):])
		if err != nil {
			return uri
		}
		img, err := png.Decode(bytes.NewReader(raw))
		if err != nil {
			return uri
		}
		flat := image.NewRGBA(img.Bounds())
		draw.Draw(flat, flat.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
		draw.Draw(flat, flat.Bounds(), img, img.Bounds().Min, draw.Over)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: q}); err != nil {
			return uri
		}
		return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
	})
}
