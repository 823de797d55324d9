package utils

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func squareImage(size, boxMin, boxMax int) image.Image {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if x >= boxMin && x < boxMax && y >= boxMin && y < boxMax {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func TestTraceSquare(t *testing.T) {
	v := NewVectorizer()
	out, err := v.Trace(encodePNG(t, squareImage(64, 16, 48)))
	require.NoError(t, err)

	svg := string(out)
	assert.True(t, strings.HasPrefix(svg, "<svg"), "starts with svg element")
	assert.Contains(t, svg, "<circle")
	assert.Contains(t, svg, `filter="url(#posterize)"`)
	assert.Contains(t, svg, ">lumora</text>")
	assert.LessOrEqual(t, strings.Count(svg, "<circle"), maxTracePoints)
}

func TestTraceBlankImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	out, err := NewVectorizer().Trace(encodePNG(t, img))
	require.NoError(t, err)
	svg := string(out)
	assert.Contains(t, svg, "<svg")
	assert.NotContains(t, svg, "<circle", "blank image yields no trace points")
}

func TestTraceDownscalesLargeImage(t *testing.T) {
	out, err := NewVectorizer().Trace(encodePNG(t, squareImage(600, 100, 500)))
	require.NoError(t, err)
	assert.Contains(t, string(out), `width="256"`)
}

func TestTraceRejectsGarbage(t *testing.T) {
	_, err := NewVectorizer().Trace([]byte("definitely not an image"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode image")
}

func TestTraceWithoutWatermark(t *testing.T) {
	v := NewVectorizer()
	v.Watermark = ""
	out, err := v.Trace(encodePNG(t, squareImage(64, 16, 48)))
	require.NoError(t, err)
	assert.NotContains(t, string(out), "<text")
}
