package engine

import (
	"image/color"
)

// Point is a chart vertex in screen coordinates.
type Point struct {
	X float64
	Y float64
}

// TrackedSeries is the scrolling history of one telemetry entity.
//
// points always holds exactly capacity entries, index 0 being the newest.
type TrackedSeries struct {
	Key   string
	Label string
	Color color.Color

	value  float64
	mapper Mapper
	points []Point
}

func newTrackedSeries(def SeriesDef, capacity int, screenWidth int, mapper Mapper) *TrackedSeries {
	s := &TrackedSeries{
		Key:    def.Key,
		Label:  def.Label,
		Color:  def.Color,
		value:  def.Initial,
		mapper: mapper,
		points: make([]Point, capacity),
	}

	right := float64(screenWidth - 1)
	y := mapper.Map(def.Initial)
	for i := range s.points {
		x := right
		if capacity > 1 {
			x = right - float64(i)*right/float64(capacity-1)
		}
		s.points[i] = Point{X: x, Y: y}
	}
	return s
}

// Value returns the last value pushed into the history.
func (s *TrackedSeries) Value() float64 {
	return s.value
}

func (s *TrackedSeries) Capacity() int {
	return len(s.points)
}

// Points returns a copy of the history, head first.
func (s *TrackedSeries) Points() []Point {
	points := make([]Point, len(s.points))
	copy(points, s.points)
	return points
}

// ToScreenPoint maps value for the head slot.
func (s *TrackedSeries) ToScreenPoint(value float64) Point {
	return Point{X: s.points[0].X, Y: s.mapper.Map(value)}
}

// PushLatest scrolls the chart by one slot and writes value at the head.
// Only y moves between slots, x is bound to the slot.
func (s *TrackedSeries) PushLatest(value float64) {
	for i := len(s.points) - 1; i > 0; i-- {
		s.points[i].Y = s.points[i-1].Y
	}
	s.points[0] = s.ToScreenPoint(value)
	s.value = value
}
