package device

import (
	"image"
	"image/color"
	"testing"

	"github.com/jypelle/tempoled/internal/srv/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var white = color.RGBA{255, 255, 255, 255}

func litPixels(f *Frame) int {
	count := 0
	img := f.Image()
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 || img.Pix[i+1] != 0 || img.Pix[i+2] != 0 {
			count++
		}
	}
	return count
}

func isLit(f *Frame, x, y int) bool {
	r, g, b, _ := f.Image().At(x, y).RGBA()
	return r != 0 || g != 0 || b != 0
}

func TestFrame_Clear(t *testing.T) {
	f := NewFrame(96, 64)
	assert.Equal(t, 96, f.Width())
	assert.Equal(t, 64, f.Height())

	f.DrawPoint(10, 10, white)
	require.Equal(t, 1, litPixels(f))

	f.Clear()
	assert.Equal(t, 0, litPixels(f))
	_, _, _, a := f.Image().At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), a)
}

func TestFrame_DrawPointOutside(t *testing.T) {
	f := NewFrame(96, 64)
	f.DrawPoint(-1, 10, white)
	f.DrawPoint(96, 10, white)
	f.DrawPoint(10, 64, white)
	f.DrawPoint(10, -3, white)
	assert.Equal(t, 0, litPixels(f))

	f.DrawPoint(95, 63, white)
	assert.True(t, isLit(f, 95, 63))
}

func TestFrame_DrawLine(t *testing.T) {
	f := NewFrame(96, 64)

	f.DrawLine(0, 5, 9, 5, white)
	assert.Equal(t, 10, litPixels(f))
	for x := 0; x < 10; x++ {
		assert.True(t, isLit(f, x, 5))
	}

	f.Clear()
	f.DrawLine(3, 3, 3, 3, white)
	assert.Equal(t, 1, litPixels(f))

	f.Clear()
	f.DrawLine(0, 0, 10, 10, white)
	assert.Equal(t, 11, litPixels(f))
	assert.True(t, isLit(f, 5, 5))
}

func TestFrame_DrawLineClipped(t *testing.T) {
	f := NewFrame(96, 64)

	// Fully off screen
	f.DrawLine(-100, -5, 200, -5, white)
	f.DrawLine(10, 1<<20, 20, 1<<20, white)
	assert.Equal(t, 0, litPixels(f))

	// Crossing the whole screen horizontally
	f.DrawLine(-1000, 20, 1000, 20, white)
	assert.Equal(t, 96, litPixels(f))
	assert.True(t, isLit(f, 0, 20))
	assert.True(t, isLit(f, 95, 20))

	// Diving below the bottom edge
	f.Clear()
	f.DrawLine(50, 60, 50, 1<<20, white)
	assert.Equal(t, 4, litPixels(f))
	assert.True(t, isLit(f, 50, 63))
}

func TestFrame_DrawText(t *testing.T) {
	f := NewFrame(96, 64)
	f.DrawText(0, 0, "LE[52.3]", 12, engine.TEXT_TRANSPARENT, white)
	assert.Greater(t, litPixels(f), 0)

	// Glyphs stay in the text box
	for y := 13; y < 64; y++ {
		for x := 0; x < 96; x++ {
			if isLit(f, x, y) {
				t.Fatalf("pixel %d,%d lit outside of the text box", x, y)
			}
		}
	}
}

func TestFrame_DrawTextOpaque(t *testing.T) {
	f := NewFrame(96, 64)
	for x := 0; x < 96; x++ {
		f.DrawLine(x, 0, x, 63, white)
	}
	f.DrawText(0, 0, "DU", 12, engine.TEXT_OPAQUE, white)

	// Opaque mode blanks the box behind the glyphs
	assert.Less(t, litPixels(f), 96*64)
	assert.True(t, isLit(f, 50, 30))

	g := NewFrame(96, 64)
	for x := 0; x < 96; x++ {
		g.DrawLine(x, 0, x, 63, white)
	}
	g.DrawText(0, 0, "DU", 12, engine.TEXT_TRANSPARENT, white)
	assert.Equal(t, 96*64, litPixels(g))
}

func TestFrame_CopyTo(t *testing.T) {
	f := NewFrame(96, 64)
	f.DrawPoint(1, 1, white)
	snapshot := image.NewRGBA(image.Rect(0, 0, 96, 64))
	f.CopyTo(snapshot)
	f.Clear()

	r, _, _, _ := snapshot.At(1, 1).RGBA()
	assert.NotZero(t, r)
	assert.False(t, isLit(f, 1, 1))
}
