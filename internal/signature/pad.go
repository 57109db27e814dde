// Package signature converts freehand pointer traces into an encoded
// signature image.
package signature

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"log"
	"math"
)

const (
	// Logical surface size, matching the form's signature box.
	DefaultWidth  = 720
	DefaultHeight = 180

	strokeWidth = 2.2 // logical px
)

// Point is a pointer position in logical coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pad is a freehand drawing surface. It renders at scale times the logical
// size so strokes stay crisp on high-density displays.
//
// The pad is a two-state machine: idle until a pointer goes down, drawing
// until it goes up (or the pointer is cancelled or leaves the surface).
// Ending a stroke emits the encoded image, or the empty string when no ink
// was ever laid down, so callers can tell "no signature" from a blank image.
type Pad struct {
	width  int
	height int
	scale  float64

	img     *image.RGBA
	drawing bool
	last    Point
	hasInk  bool
}

// NewPad creates an idle pad. scale is the device-pixel-ratio; values below 1
// are clamped to 1.
func NewPad(width, height int, scale float64) *Pad {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if scale < 1 {
		scale = 1
	}
	p := &Pad{width: width, height: height, scale: scale}
	p.blank()
	return p
}

func (p *Pad) blank() {
	pw := int(math.Floor(float64(p.width) * p.scale))
	ph := int(math.Floor(float64(p.height) * p.scale))
	p.img = image.NewRGBA(image.Rect(0, 0, pw, ph))
	for i := range p.img.Pix {
		p.img.Pix[i] = 0xff // white, opaque
	}
}

// PointerDown starts a stroke.
func (p *Pad) PointerDown(at Point) {
	p.drawing = true
	p.last = at
}

// PointerMove extends the current stroke. Moves outside a stroke are ignored.
func (p *Pad) PointerMove(at Point) {
	if !p.drawing {
		return
	}
	if at != p.last {
		p.segment(p.last, at)
		p.hasInk = true
	}
	p.last = at
}

// PointerUp ends the stroke and returns the encoded image, or "" when the
// pad has never recorded ink.
func (p *Pad) PointerUp() string {
	return p.end()
}

// PointerCancel ends the stroke the same way PointerUp does.
func (p *Pad) PointerCancel() string {
	return p.end()
}

// PointerLeave ends the stroke the same way PointerUp does.
func (p *Pad) PointerLeave() string {
	return p.end()
}

func (p *Pad) end() string {
	if !p.drawing {
		return p.current()
	}
	p.drawing = false
	return p.current()
}

func (p *Pad) current() string {
	if !p.hasInk {
		return ""
	}
	return p.encode()
}

// Clear wipes the surface and forgets all ink. Safe to call repeatedly.
func (p *Pad) Clear() string {
	p.blank()
	p.drawing = false
	p.hasInk = false
	return ""
}

// HasInk reports whether any stroke has been recorded since the last clear.
func (p *Pad) HasInk() bool {
	return p.hasInk
}

// segment draws a round-capped line between two logical points by stamping
// discs at sub-pixel intervals in device space.
func (p *Pad) segment(from, to Point) {
	x0, y0 := from.X*p.scale, from.Y*p.scale
	x1, y1 := to.X*p.scale, to.Y*p.scale
	radius := strokeWidth * p.scale / 2

	dx, dy := x1-x0, y1-y0
	dist := math.Hypot(dx, dy)
	steps := int(math.Ceil(dist / 0.5))
	if steps < 1 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		p.disc(x0+dx*t, y0+dy*t, radius)
	}
}

func (p *Pad) disc(cx, cy, r float64) {
	minX := int(math.Floor(cx - r))
	maxX := int(math.Ceil(cx + r))
	minY := int(math.Floor(cy - r))
	maxY := int(math.Ceil(cy + r))
	bounds := p.img.Bounds()

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
				continue
			}
			fx, fy := float64(x)+0.5-cx, float64(y)+0.5-cy
			if fx*fx+fy*fy <= r*r {
				p.img.SetRGBA(x, y, color.RGBA{A: 0xff})
			}
		}
	}
}

// encode renders the bitmap as a PNG data URL.
func (p *Pad) encode() string {
	var buf bytes.Buffer
	if err := png.Encode(&buf, p.img); err != nil {
		// Encoding an in-memory RGBA image only fails on write errors, which
		// bytes.Buffer does not produce.
		log.Printf("signature: encode: %v", err)
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}
