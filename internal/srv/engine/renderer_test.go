package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_SkipsNegativeStars(t *testing.T) {
	canvas := newFakeCanvas(96, 64)
	scene := Scene{
		Stars: []Star{
			{X: -3, Y: 10, Tier: TIER_1},
			{X: 0, Y: 11, Tier: TIER_2},
			{X: 40.6, Y: 12, Tier: TIER_3},
		},
	}

	require.NoError(t, Renderer{TextSize: 12}.Render(canvas, scene))

	require.Equal(t, 2, canvas.count("point"))
	assert.Equal(t, drawCall{op: "point", x0: 0, y0: 11, color: TIER_2.Color()}, canvas.calls[1])
	assert.Equal(t, drawCall{op: "point", x0: 40, y0: 12, color: TIER_3.Color()}, canvas.calls[2])
}

func TestRenderer_InterpolatesStars(t *testing.T) {
	canvas := newFakeCanvas(96, 64)
	scene := Scene{
		Stars: []Star{{X: -0.5, Y: 10, Tier: TIER_1}},
		Alpha: 0.9,
	}

	require.NoError(t, Renderer{}.Render(canvas, scene))
	require.Equal(t, 1, canvas.count("point"))
	assert.Equal(t, 0, canvas.calls[1].x0)
}

func TestRenderer_PolylineHeadToTail(t *testing.T) {
	canvas := newFakeCanvas(96, 64)
	s := testSeries(4)
	s.PushLatest(57)

	require.NoError(t, Renderer{}.Render(canvas, Scene{Series: []*TrackedSeries{s}}))

	points := s.Points()
	var lines []drawCall
	for _, call := range canvas.calls {
		if call.op == "line" {
			lines = append(lines, call)
		}
	}
	require.Len(t, lines, 3)
	for i, line := range lines {
		assert.Equal(t, toPixel(points[i].X), line.x0)
		assert.Equal(t, toPixel(points[i].Y), line.y0)
		assert.Equal(t, toPixel(points[i+1].X), line.x1)
		assert.Equal(t, toPixel(points[i+1].Y), line.y1)
		assert.Equal(t, s.Color, line.color)
	}
}

func TestRenderer_PresentError(t *testing.T) {
	canvas := newFakeCanvas(96, 64)
	canvas.presentErr = errPresent

	assert.ErrorIs(t, Renderer{}.Render(canvas, Scene{}), errPresent)
}

func TestRenderer_SkipsNaNSegments(t *testing.T) {
	canvas := newFakeCanvas(96, 64)
	series := &TrackedSeries{
		Key:    "leto",
		Color:  TIER_1.Color(),
		points: []Point{{X: 95, Y: 10}, {X: 90, Y: math.NaN()}, {X: 85, Y: 20}, {X: 80, Y: 30}},
	}

	require.NoError(t, Renderer{}.Render(canvas, Scene{Series: []*TrackedSeries{series}}))
	require.Equal(t, 1, canvas.count("line"))
	line := canvas.calls[1]
	assert.Equal(t, 85, line.x0)
	assert.Equal(t, 20, line.y0)
	assert.Equal(t, 80, line.x1)
	assert.Equal(t, 30, line.y1)
}

func TestToPixel(t *testing.T) {
	assert.Equal(t, 0, toPixel(math.NaN()))
	assert.Equal(t, 30, toPixel(29.6))
	assert.Equal(t, -24, toPixel(-24))
	assert.Equal(t, pixelLimit, toPixel(1e300))
	assert.Equal(t, -pixelLimit, toPixel(-1e300))
}

func TestLayoutStatus(t *testing.T) {
	series := []*TrackedSeries{testSeries(2), testSeries(2), testSeries(2), testSeries(2), testSeries(2)}

	status := LayoutStatus(series, 96, 64, 12)
	require.Len(t, status, 5)
	assert.Equal(t, [2]int{0, 0}, [2]int{status[0].X, status[0].Y})
	assert.Equal(t, [2]int{48, 0}, [2]int{status[1].X, status[1].Y})
	assert.Equal(t, [2]int{0, 52}, [2]int{status[2].X, status[2].Y})
	assert.Equal(t, [2]int{48, 52}, [2]int{status[3].X, status[3].Y})
	assert.Equal(t, [2]int{0, 12}, [2]int{status[4].X, status[4].Y})
	assert.Equal(t, "LE[45.0]", status[0].Text)
}
