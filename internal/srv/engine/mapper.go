package engine

import "fmt"

// MappingMode decides what happens to values outside the domain bounds.
type MappingMode string

const (
	// ALLOW_OFFSCREEN keeps out of range values off screen, the canvas clips them.
	ALLOW_OFFSCREEN MappingMode = "allow-offscreen"
	// CLIP_TO_BOUNDS clamps the coordinate into the chart band.
	CLIP_TO_BOUNDS MappingMode = "clip-to-bounds"
)

func ParseMappingMode(s string) (MappingMode, error) {
	switch MappingMode(s) {
	case "", ALLOW_OFFSCREEN:
		return ALLOW_OFFSCREEN, nil
	case CLIP_TO_BOUNDS:
		return CLIP_TO_BOUNDS, nil
	}
	return "", fmt.Errorf("unknown value mapping mode %q", s)
}

// Scale is the domain of a tracked value.
type Scale struct {
	Min float64
	Max float64
}

// Mapper converts a domain value into a screen y coordinate inside [MinY, MaxY].
// Higher values are drawn higher on screen (smaller y).
type Mapper struct {
	Scale
	MinY float64
	MaxY float64
	Mode MappingMode
}

// FullHeightMapper maps the domain onto the whole display height.
func FullHeightMapper(scale Scale, screenHeight int, mode MappingMode) Mapper {
	return Mapper{Scale: scale, MinY: 0, MaxY: float64(screenHeight), Mode: mode}
}

func (m Mapper) Map(value float64) float64 {
	y := m.MaxY - (value-m.Min)/(m.Max-m.Min)*(m.MaxY-m.MinY)
	if m.Mode == CLIP_TO_BOUNDS {
		if y < m.MinY {
			y = m.MinY
		} else if y > m.MaxY {
			y = m.MaxY
		}
	}
	return y
}
