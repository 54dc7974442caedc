package engine

import (
	"errors"
	"image/color"
)

type drawCall struct {
	op     string
	x0, y0 int
	x1, y1 int
	text   string
	color  color.Color
}

type fakeCanvas struct {
	width, height int
	calls         []drawCall
	presents      int
	poweredOff    bool
	presentErr    error
}

func newFakeCanvas(width, height int) *fakeCanvas {
	return &fakeCanvas{width: width, height: height}
}

func (c *fakeCanvas) Width() int  { return c.width }
func (c *fakeCanvas) Height() int { return c.height }

func (c *fakeCanvas) Clear() {
	c.calls = append(c.calls, drawCall{op: "clear"})
}

func (c *fakeCanvas) DrawPoint(x, y int, col color.Color) {
	c.calls = append(c.calls, drawCall{op: "point", x0: x, y0: y, color: col})
}

func (c *fakeCanvas) DrawLine(x0, y0, x1, y1 int, col color.Color) {
	c.calls = append(c.calls, drawCall{op: "line", x0: x0, y0: y0, x1: x1, y1: y1, color: col})
}

func (c *fakeCanvas) DrawText(x, y int, text string, size int, mode TextMode, col color.Color) {
	c.calls = append(c.calls, drawCall{op: "text", x0: x, y0: y, text: text, color: col})
}

func (c *fakeCanvas) Present() error {
	c.calls = append(c.calls, drawCall{op: "present"})
	c.presents++
	return c.presentErr
}

func (c *fakeCanvas) PowerOff() error {
	c.poweredOff = true
	return nil
}

func (c *fakeCanvas) count(op string) int {
	n := 0
	for _, call := range c.calls {
		if call.op == op {
			n++
		}
	}
	return n
}

func (c *fakeCanvas) reset() {
	c.calls = nil
}

var errPresent = errors.New("bus write failed")
