package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierFromDraw(t *testing.T) {
	tests := []struct {
		draw int
		want Tier
	}{
		{0, TIER_1},
		{99, TIER_1},
		{100, TIER_2},
		{499, TIER_2},
		{500, TIER_3},
		{1000, TIER_3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tierFromDraw(tt.draw), "draw %d", tt.draw)
	}
}

func TestTier_SpeedOrdering(t *testing.T) {
	assert.Greater(t, TIER_1.Speed(), TIER_2.Speed())
	assert.Greater(t, TIER_2.Speed(), TIER_3.Speed())
	assert.Greater(t, TIER_1.Color().R, TIER_2.Color().R)
	assert.Greater(t, TIER_2.Color().R, TIER_3.Color().R)
}

func TestStarfield_Seed(t *testing.T) {
	f := NewStarfield(96, 64, rand.New(rand.NewSource(1)))
	f.Seed(2000)

	require.Equal(t, 2000, f.Len())
	counts := map[Tier]int{}
	for _, star := range f.Stars() {
		assert.GreaterOrEqual(t, star.X, 0.0)
		assert.LessOrEqual(t, star.X, 96.0)
		assert.GreaterOrEqual(t, star.Y, 0.0)
		assert.LessOrEqual(t, star.Y, 64.0)
		counts[star.Tier]++
	}
	// Weights are 10%, 40% and 50%.
	assert.InDelta(t, 200, counts[TIER_1], 60)
	assert.InDelta(t, 800, counts[TIER_2], 100)
	assert.InDelta(t, 1000, counts[TIER_3], 100)
}

func TestStarfield_AdvanceMovesByTierSpeed(t *testing.T) {
	f := NewStarfield(96, 64, rand.New(rand.NewSource(2)))
	f.stars = []Star{
		{X: 10, Y: 5, Tier: TIER_1},
		{X: 10, Y: 6, Tier: TIER_2},
		{X: 10, Y: 7, Tier: TIER_3},
	}
	f.Advance()

	assert.InDelta(t, 10.7, f.stars[0].X, 1e-9)
	assert.InDelta(t, 10.07, f.stars[1].X, 1e-9)
	assert.InDelta(t, 10.007, f.stars[2].X, 1e-9)
	assert.Equal(t, 5.0, f.stars[0].Y)
}

func TestStarfield_Recycle(t *testing.T) {
	f := NewStarfield(96, 64, rand.New(rand.NewSource(3)))
	for run := 0; run < 200; run++ {
		f.stars = []Star{{X: 95.5, Y: 12, Tier: TIER_1}}

		steps := 0
		for f.stars[0].X >= 0 {
			f.Advance()
			steps++
			require.Less(t, steps, 10, "star never recycled")
		}

		star := f.stars[0]
		assert.GreaterOrEqual(t, star.X, float64(RecycleMinX))
		assert.Less(t, star.X, 0.0)
		assert.GreaterOrEqual(t, star.Y, 0.0)
		assert.Less(t, star.Y, 64.0)
		assert.Equal(t, TIER_1, star.Tier)
	}
}

func TestStarfield_PopulationConstant(t *testing.T) {
	f := NewStarfield(96, 64, rand.New(rand.NewSource(4)))
	f.Seed(48)
	for i := 0; i < 5000; i++ {
		f.Advance()
		for _, star := range f.stars {
			require.GreaterOrEqual(t, star.X, float64(RecycleMinX))
			require.LessOrEqual(t, star.X, 96.0)
		}
	}
	assert.Equal(t, 48, f.Len())
}
