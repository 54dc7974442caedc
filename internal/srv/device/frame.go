package device

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/bitmapfont/v2"
	"github.com/jypelle/tempoled/internal/srv/engine"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Frame is an in-memory RGBA frame buffer offering the engine drawing
// primitives. Anything outside the bounds is clipped.
type Frame struct {
	img  *image.RGBA
	face font.Face
}

func NewFrame(width, height int) *Frame {
	frame := &Frame{
		img:  image.NewRGBA(image.Rect(0, 0, width, height)),
		face: bitmapfont.Face,
	}
	frame.Clear()
	return frame
}

func (f *Frame) Width() int {
	return f.img.Bounds().Dx()
}

func (f *Frame) Height() int {
	return f.img.Bounds().Dy()
}

// Image gives direct access to the buffer, it is only valid until the next draw.
func (f *Frame) Image() *image.RGBA {
	return f.img
}

// CopyTo copies the buffer into dst, clipped to the bounds they share.
func (f *Frame) CopyTo(dst *image.RGBA) {
	draw.Draw(dst, dst.Bounds(), f.img, f.img.Bounds().Min, draw.Src)
}

func (f *Frame) Clear() {
	draw.Draw(f.img, f.img.Bounds(), image.Black, image.Point{}, draw.Src)
}

func (f *Frame) DrawPoint(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(f.img.Bounds()) {
		return
	}
	f.img.Set(x, y, c)
}

// Outcodes for line clipping
const (
	outLeft = 1 << iota
	outRight
	outTop
	outBottom
)

func (f *Frame) outcode(x, y int) int {
	code := 0
	b := f.img.Bounds()
	if x < b.Min.X {
		code |= outLeft
	} else if x >= b.Max.X {
		code |= outRight
	}
	if y < b.Min.Y {
		code |= outTop
	} else if y >= b.Max.Y {
		code |= outBottom
	}
	return code
}

// clipLine restricts the segment to the frame bounds. ok is false when
// nothing of the segment is visible.
func (f *Frame) clipLine(x0, y0, x1, y1 int) (int, int, int, int, bool) {
	b := f.img.Bounds()
	minX, minY := float64(b.Min.X), float64(b.Min.Y)
	maxX, maxY := float64(b.Max.X-1), float64(b.Max.Y-1)

	fx0, fy0, fx1, fy1 := float64(x0), float64(y0), float64(x1), float64(y1)
	code0, code1 := f.outcode(x0, y0), f.outcode(x1, y1)
	for {
		if code0|code1 == 0 {
			return round(fx0), round(fy0), round(fx1), round(fy1), true
		}
		if code0&code1 != 0 {
			return 0, 0, 0, 0, false
		}

		code := code0
		if code == 0 {
			code = code1
		}
		var x, y float64
		switch {
		case code&outBottom != 0:
			x = fx0 + (fx1-fx0)*(maxY-fy0)/(fy1-fy0)
			y = maxY
		case code&outTop != 0:
			x = fx0 + (fx1-fx0)*(minY-fy0)/(fy1-fy0)
			y = minY
		case code&outRight != 0:
			y = fy0 + (fy1-fy0)*(maxX-fx0)/(fx1-fx0)
			x = maxX
		default:
			y = fy0 + (fy1-fy0)*(minX-fx0)/(fx1-fx0)
			x = minX
		}

		if code == code0 {
			fx0, fy0 = x, y
			code0 = f.outcode(round(fx0), round(fy0))
		} else {
			fx1, fy1 = x, y
			code1 = f.outcode(round(fx1), round(fy1))
		}
	}
}

func round(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// DrawLine draws a 1 pixel wide segment, endpoints included.
func (f *Frame) DrawLine(x0, y0, x1, y1 int, c color.Color) {
	x0, y0, x1, y1, ok := f.clipLine(x0, y0, x1, y1)
	if !ok {
		return
	}

	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		f.DrawPoint(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// DrawText writes text with its top left corner at (x, y). The bitmap font has
// a single 12 pixel size, size only sets the height of the opaque box.
func (f *Frame) DrawText(x, y int, text string, size int, mode engine.TextMode, c color.Color) {
	ascent := f.face.Metrics().Ascent.Ceil()
	if mode == engine.TEXT_OPAQUE {
		height := size
		if height <= 0 {
			height = f.face.Metrics().Height.Ceil()
		}
		width := font.MeasureString(f.face, text).Ceil()
		draw.Draw(f.img, image.Rect(x, y, x+width, y+height), image.Black, image.Point{}, draw.Src)
	}

	d := &font.Drawer{
		Dst:  f.img,
		Src:  image.NewUniform(c),
		Face: f.face,
		Dot:  fixed.P(x, y+ascent),
	}
	d.DrawString(text)
}
