package engine

import "image/color"

// TextMode selects how DrawText treats the pixels behind the glyphs.
type TextMode int

const (
	// TEXT_TRANSPARENT only writes glyph pixels.
	TEXT_TRANSPARENT TextMode = iota
	// TEXT_OPAQUE fills the text box with black before writing glyphs.
	TEXT_OPAQUE
)

// Canvas is the set of drawing primitives offered by a display controller.
//
// Coordinates outside the display must be tolerated: points are dropped and
// lines are clipped.
type Canvas interface {
	Width() int
	Height() int
	Clear()
	DrawPoint(x, y int, c color.Color)
	DrawLine(x0, y0, x1, y1 int, c color.Color)
	DrawText(x, y int, text string, size int, mode TextMode, c color.Color)
	Present() error
	PowerOff() error
}
