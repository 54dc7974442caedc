package engine

import (
	"image/color"
	"math/rand"
)

// Tier is the depth class of a background star.
type Tier int

const (
	TIER_1 Tier = iota + 1
	TIER_2
	TIER_3
)

// Tier thresholds over a [0, 1000] draw.
const (
	tier1Chance = 100
	tier3Chance = 500
)

const (
	// RecycleMinX is the leftmost position a recycled star can restart from.
	RecycleMinX = -15
)

var tierSpeeds = map[Tier]float64{
	TIER_1: 0.7,
	TIER_2: 0.07,
	TIER_3: 0.007,
}

var tierColors = map[Tier]color.RGBA{
	TIER_1: {255, 255, 255, 255},
	TIER_2: {255 >> 1, 255 >> 1, 255 >> 1, 255},
	TIER_3: {255 >> 3, 255 >> 3, 255 >> 3, 255},
}

// Speed is the horizontal displacement per logic tick.
func (t Tier) Speed() float64 {
	return tierSpeeds[t]
}

func (t Tier) Color() color.RGBA {
	return tierColors[t]
}

func tierFromDraw(draw int) Tier {
	switch {
	case draw < tier1Chance:
		return TIER_1
	case draw < tier3Chance:
		return TIER_2
	default:
		return TIER_3
	}
}

// Star is a decorative background particle.
type Star struct {
	X    float64
	Y    float64
	Tier Tier
}

// Starfield moves a constant population of stars from left to right.
type Starfield struct {
	width  int
	height int
	rnd    *rand.Rand
	stars  []Star
}

func NewStarfield(width, height int, rnd *rand.Rand) *Starfield {
	return &Starfield{
		width:  width,
		height: height,
		rnd:    rnd,
	}
}

// randRange returns an int in [min, max].
func (f *Starfield) randRange(min, max int) int {
	return f.rnd.Intn(max-min+1) + min
}

// Seed replaces the population with count stars placed at random.
func (f *Starfield) Seed(count int) {
	f.stars = make([]Star, count)
	for i := range f.stars {
		f.stars[i] = Star{
			X:    float64(f.randRange(0, f.width)),
			Y:    float64(f.randRange(0, f.height)),
			Tier: tierFromDraw(f.randRange(0, 1000)),
		}
	}
}

// Advance moves every star by its tier speed. A star leaving the right edge
// restarts somewhere on the left, its tier is kept.
func (f *Starfield) Advance() {
	for i := range f.stars {
		star := &f.stars[i]
		star.X += star.Tier.Speed()
		if star.X > float64(f.width) {
			star.X = float64(f.randRange(RecycleMinX, -1))
			star.Y = float64(f.randRange(0, f.height-1))
		}
	}
}

func (f *Starfield) Stars() []Star {
	return f.stars
}

func (f *Starfield) Len() int {
	return len(f.stars)
}
