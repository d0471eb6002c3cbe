package signature

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docerrors "github.com/a3tai/sign-form/internal/document/errors"
)

func TestCanvas_PointerProtocol(t *testing.T) {
	c := NewCanvas(200, 100)
	assert.True(t, c.Empty())

	// moves without a pressed pointer draw nothing
	c.PointerMove(50, 50)
	assert.True(t, c.Empty())

	c.PointerDown(10, 10)
	c.PointerMove(100, 50)
	c.PointerMove(150, 20)
	c.PointerUp()
	c.PointerMove(190, 90)

	assert.False(t, c.Empty())

	b, err := c.PNG()
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())

	// background stays transparent, the stroke is opaque
	_, _, _, a := img.At(0, 99).RGBA()
	assert.Zero(t, a, "corner pixel should be transparent")
	assert.True(t, hasOpaquePixel(img), "stroke should leave opaque pixels")
}

func TestCanvas_Clear(t *testing.T) {
	c := NewCanvas(0, 0)
	w, h := c.Size()
	assert.Equal(t, DefaultWidth, w)
	assert.Equal(t, DefaultHeight, h)

	c.DrawStrokes([]Stroke{{{X: 10, Y: 10}, {X: 300, Y: 200}}})
	require.False(t, c.Empty())

	c.Clear()
	assert.True(t, c.Empty())

	b, err := c.PNG()
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.False(t, hasOpaquePixel(img), "cleared canvas should be fully transparent")
}

func TestParseStrokes(t *testing.T) {
	strokes, err := ParseStrokes([]byte(`[[[1,2],[3,4]],[[5,6]]]`))
	require.NoError(t, err)
	require.Len(t, strokes, 2)
	assert.Equal(t, Point{X: 3, Y: 4}, strokes[0][1])
	assert.Len(t, strokes[1], 1)

	_, err = ParseStrokes([]byte(`[[[1,2,3]]]`))
	assert.Error(t, err)
}

func TestDataURLRoundTrip(t *testing.T) {
	c := NewCanvas(300, 100)
	c.DrawStrokes([]Stroke{{{X: 5, Y: 5}, {X: 295, Y: 95}}})

	url, err := c.DataURL()
	require.NoError(t, err)
	assert.Contains(t, url, "data:image/png;base64,")

	img, err := Decode(url)
	require.NoError(t, err)
	assert.Equal(t, MIMEPNG, img.MIME)
	assert.Equal(t, 300, img.Width)
	assert.Equal(t, 100, img.Height)
	assert.Equal(t, "png", img.Extension())
	assert.Equal(t, url, img.DataURL())
}

func TestDecode(t *testing.T) {
	pngBytes := samplePNG(t, 4, 3)
	bare := base64.StdEncoding.EncodeToString(pngBytes)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"data url", "data:image/png;base64," + bare, false},
		{"bare base64", bare, false},
		{"empty", "", true},
		{"missing comma", "data:image/png;base64", true},
		{"not base64 url", "data:image/png," + bare, true},
		{"garbage payload", "data:image/png;base64,!!!", true},
		{"text payload", "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hello world")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Decode(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				var decodeErr *docerrors.ImageDecodeError
				assert.True(t, errors.As(err, &decodeErr), "want ImageDecodeError, got %T", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 4, img.Width)
			assert.Equal(t, 3, img.Height)
		})
	}
}

func samplePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func hasOpaquePixel(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a > 0 {
				return true
			}
		}
	}
	return false
}

func TestRenderStrokes(t *testing.T) {
	_, err := RenderStrokes([]Stroke{{{X: 5, Y: 5}}}, 100, 50)
	assert.ErrorIs(t, err, ErrEmpty, "a single point draws no segment")

	url, err := RenderStrokes([]Stroke{{{X: 5, Y: 5}, {X: 60, Y: 30}}}, 100, 50)
	require.NoError(t, err)

	img, err := Decode(url)
	require.NoError(t, err)
	assert.Equal(t, MIMEPNG, img.MIME)
	assert.Equal(t, 100, img.Width)
	assert.Equal(t, 50, img.Height)
}
