package engine

import (
	"fmt"
	"image/color"
	"math"
)

// pixelLimit bounds coordinates handed to the canvas so that far off screen
// values still convert to int safely.
const pixelLimit = 1 << 20

// StatusText is one overlay label.
type StatusText struct {
	X     int
	Y     int
	Text  string
	Color color.Color
}

// Scene is everything a frame shows.
type Scene struct {
	Stars  []Star
	Series []*TrackedSeries
	Status []StatusText
	// Alpha is the fraction of a logic step not simulated yet.
	Alpha float64
}

// Renderer composes a scene on a canvas.
type Renderer struct {
	TextSize int
	TextMode TextMode
}

func toPixel(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	if v > pixelLimit {
		return pixelLimit
	}
	if v < -pixelLimit {
		return -pixelLimit
	}
	return int(math.Round(v))
}

// Render draws the scene and commits it to the display.
func (r Renderer) Render(c Canvas, scene Scene) error {
	c.Clear()

	for _, star := range scene.Stars {
		x := star.X + star.Tier.Speed()*scene.Alpha
		if x < 0 {
			continue
		}
		c.DrawPoint(int(x), int(star.Y), star.Tier.Color())
	}

	for _, series := range scene.Series {
		points := series.points
		for i := 0; i < len(points)-1; i++ {
			if math.IsNaN(points[i].Y) || math.IsNaN(points[i+1].Y) {
				continue
			}
			c.DrawLine(
				toPixel(points[i].X), toPixel(points[i].Y),
				toPixel(points[i+1].X), toPixel(points[i+1].Y),
				series.Color)
		}
	}

	for _, status := range scene.Status {
		c.DrawText(status.X, status.Y, status.Text, r.TextSize, r.TextMode, status.Color)
	}

	return c.Present()
}

// LayoutStatus places one label per series on two columns. Even rows stack
// from the top edge, odd rows from the bottom edge.
func LayoutStatus(series []*TrackedSeries, width, height, lineHeight int) []StatusText {
	status := make([]StatusText, 0, len(series))
	for i, s := range series {
		column := i % 2
		row := i / 2

		y := (row / 2) * lineHeight
		if row%2 == 1 {
			y = height - (row/2+1)*lineHeight
		}
		status = append(status, StatusText{
			X:     column * (width / 2),
			Y:     y,
			Text:  fmt.Sprintf("%s[%.1f]", s.Label, s.Value()),
			Color: s.Color,
		})
	}
	return status
}
