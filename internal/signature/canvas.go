// Package signature captures a freehand signature as a raster image and
// converts between images and data URLs.
package signature

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fogleman/gg"
)

// Default canvas geometry and pen
const (
	DefaultWidth     = 800
	DefaultHeight    = 300
	DefaultLineWidth = 2.0
)

// ErrEmpty is returned when a signature has no strokes
var ErrEmpty = errors.New("signature is empty")

// Point is a canvas coordinate. It encodes to JSON as [x, y].
type Point struct {
	X, Y float64
}

// MarshalJSON encodes the point as a two-element array
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

// UnmarshalJSON decodes a two-element array
func (p *Point) UnmarshalJSON(b []byte) error {
	var xy []float64
	if err := json.Unmarshal(b, &xy); err != nil {
		return err
	}
	if len(xy) != 2 {
		return fmt.Errorf("point must have 2 coordinates, got %d", len(xy))
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// Stroke is one continuous pen movement
type Stroke []Point

// ParseStrokes decodes strokes from JSON of the form [[[x,y],...],...]
func ParseStrokes(b []byte) ([]Stroke, error) {
	var strokes []Stroke
	if err := json.Unmarshal(b, &strokes); err != nil {
		return nil, fmt.Errorf("invalid strokes: %w", err)
	}
	return strokes, nil
}

// Canvas is a transparent drawing surface driven by pointer events.
// A Canvas is not safe for concurrent use.
type Canvas struct {
	width, height int
	dc            *gg.Context
	drawing       bool
	last          Point
	segments      int
}

// NewCanvas creates a blank canvas of the given size in pixels
func NewCanvas(width, height int) *Canvas {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	c := &Canvas{width: width, height: height}
	c.reset()
	return c
}

func (c *Canvas) reset() {
	dc := gg.NewContext(c.width, c.height)
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(DefaultLineWidth)
	dc.SetLineCapRound()
	dc.SetLineJoinRound()
	c.dc = dc
	c.drawing = false
	c.segments = 0
}

// PointerDown starts a new stroke at (x, y)
func (c *Canvas) PointerDown(x, y float64) {
	c.drawing = true
	c.last = Point{X: x, Y: y}
}

// PointerMove extends the current stroke to (x, y). It does nothing when no
// stroke is in progress.
func (c *Canvas) PointerMove(x, y float64) {
	if !c.drawing {
		return
	}
	c.dc.MoveTo(c.last.X, c.last.Y)
	c.dc.LineTo(x, y)
	c.dc.Stroke()
	c.last = Point{X: x, Y: y}
	c.segments++
}

// PointerUp ends the current stroke
func (c *Canvas) PointerUp() {
	c.drawing = false
}

// DrawStrokes replays recorded strokes onto the canvas
func (c *Canvas) DrawStrokes(strokes []Stroke) {
	for _, s := range strokes {
		if len(s) == 0 {
			continue
		}
		c.PointerDown(s[0].X, s[0].Y)
		for _, p := range s[1:] {
			c.PointerMove(p.X, p.Y)
		}
		c.PointerUp()
	}
}

// Clear erases everything drawn so far
func (c *Canvas) Clear() {
	c.reset()
}

// Empty reports whether nothing has been drawn
func (c *Canvas) Empty() bool {
	return c.segments == 0
}

// Size returns the canvas dimensions in pixels
func (c *Canvas) Size() (int, int) {
	return c.width, c.height
}

// PNG encodes the canvas as a PNG with a transparent background
func (c *Canvas) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encoding signature png: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURL encodes the canvas as a data:image/png;base64 URL
func (c *Canvas) DataURL() (string, error) {
	b, err := c.PNG()
	if err != nil {
		return "", err
	}
	return EncodeDataURL(MIMEPNG, b), nil
}

// RenderStrokes draws strokes on a fresh canvas and returns the PNG data URL.
// Strokes without any segment yield ErrEmpty.
func RenderStrokes(strokes []Stroke, width, height int) (string, error) {
	c := NewCanvas(width, height)
	c.DrawStrokes(strokes)
	if c.Empty() {
		return "", ErrEmpty
	}
	return c.DataURL()
}
