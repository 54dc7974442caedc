package device

import (
	"context"
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/jypelle/tempoled/internal/srv/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedSource_Poll(t *testing.T) {
	defs := []engine.SeriesDef{
		{Key: "leto", Scale: engine.Scale{Min: 47, Max: 57}, Initial: 52},
		{Key: "duncan", Scale: engine.Scale{Min: 47, Max: 57}, Initial: 52},
	}
	source := NewSimulatedSource(defs, time.Millisecond, rand.New(rand.NewSource(1)))
	defer source.Close()

	var keys []string
	for i := 0; i < 40; i++ {
		sample, ok := source.Poll(context.Background(), time.Second)
		require.True(t, ok)
		require.NoError(t, sample.Err)
		keys = append(keys, sample.Key)

		value, err := strconv.ParseFloat(sample.Value, 64)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, value, 46.0)
		assert.LessOrEqual(t, value, 58.0)
	}
	assert.Equal(t, []string{"leto", "duncan", "leto", "duncan"}, keys[:4])
}

func TestSimulatedSource_PollTimeout(t *testing.T) {
	source := NewSimulatedSource([]engine.SeriesDef{{Key: "leto", Scale: engine.Scale{Min: 0, Max: 1}}}, time.Hour, nil)
	defer source.Close()

	_, ok := source.Poll(context.Background(), 5*time.Millisecond)
	assert.False(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok = source.Poll(ctx, time.Second)
	assert.False(t, ok)
}
