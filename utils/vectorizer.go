package utils

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// Every pointStride-th boundary point becomes an SVG node, capped at
	// maxTracePoints so pathological images stay bounded.
	pointStride    = 10
	maxTracePoints = 1000
)

// Vectorizer traces a raster image into a compact SVG: downscale, threshold
// to a bitmap, collect boundary pixels, emit them as filtered circles.
type Vectorizer struct {
	MaxDim    int
	Threshold uint8
	Watermark string
}

func NewVectorizer() *Vectorizer {
	return &Vectorizer{
		MaxDim:    256,
		Threshold: 128,
		Watermark: "lumora",
	}
}

// Trace converts raster bytes (PNG, JPEG or WebP) into an SVG document.
func (v *Vectorizer) Trace(data []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	img = v.downscale(img)
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("image has no pixels")
	}

	bitmap := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			bitmap[y*w+x] = g.Y < v.Threshold
		}
	}

	points := boundaryPoints(bitmap, w, h)
	zap.L().Debug("traced raster image",
		zap.String("format", format),
		zap.Int("width", w), zap.Int("height", h),
		zap.Int("boundary_points", len(points)))

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n", w, h, w, h)
	sb.WriteString(`<filter id="posterize"><feComponentTransfer>` +
		`<feFuncR type="discrete" tableValues="0 0.5 1"/>` +
		`<feFuncG type="discrete" tableValues="0 0.5 1"/>` +
		`<feFuncB type="discrete" tableValues="0 0.5 1"/>` +
		`</feComponentTransfer></filter>` + "\n")
	fmt.Fprintf(&sb, `<rect width="%d" height="%d" fill="white"/>`+"\n", w, h)

	sb.WriteString(`<g fill="black" filter="url(#posterize)">` + "\n")
	emitted := 0
	for i := 0; i < len(points) && emitted < maxTracePoints; i += pointStride {
		fmt.Fprintf(&sb, `<circle cx="%d" cy="%d" r="1"/>`+"\n", points[i][0], points[i][1])
		emitted++
	}
	sb.WriteString("</g>\n")

	if v.Watermark != "" {
		fmt.Fprintf(&sb, `<rect x="0" y="%d" width="%d" height="12" fill="black" opacity="0.6"/>`+"\n", h-12, w)
		fmt.Fprintf(&sb, `<text x="4" y="%d" font-size="8" fill="white">%s</text>`+"\n", h-3, v.Watermark)
	}

	sb.WriteString("</svg>\n")
	return []byte(sb.String()), nil
}

func (v *Vectorizer) downscale(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if v.MaxDim <= 0 || (w <= v.MaxDim && h <= v.MaxDim) {
		return img
	}

	scale := float64(v.MaxDim) / float64(w)
	if h > w {
		scale = float64(v.MaxDim) / float64(h)
	}
	nw, nh := int(float64(w)*scale), int(float64(h)*scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}

// boundaryPoints returns dark pixels with at least one light 4-neighbor,
// scanning top to bottom.
func boundaryPoints(bitmap []bool, w, h int) [][2]int {
	var pts [][2]int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !bitmap[y*w+x] {
				continue
			}
			if x == 0 || y == 0 || x == w-1 || y == h-1 ||
				!bitmap[y*w+x-1] || !bitmap[y*w+x+1] ||
				!bitmap[(y-1)*w+x] || !bitmap[(y+1)*w+x] {
				pts = append(pts, [2]int{x, y})
			}
		}
	}
	return pts
}
