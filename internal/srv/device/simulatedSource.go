package device

import (
	"context"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/jypelle/tempoled/internal/srv/engine"
)

type simulatedSeries struct {
	key   string
	scale engine.Scale
	value float64
}

// SimulatedSource emits one random walk sample every interval, cycling over
// the series.
type SimulatedSource struct {
	series []*simulatedSeries
	rnd    *rand.Rand
	ticker *time.Ticker
	next   int
}

func NewSimulatedSource(defs []engine.SeriesDef, interval time.Duration, rnd *rand.Rand) *SimulatedSource {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	source := &SimulatedSource{
		rnd:    rnd,
		ticker: time.NewTicker(interval),
	}
	for _, def := range defs {
		source.series = append(source.series, &simulatedSeries{key: def.Key, scale: def.Scale, value: def.Initial})
	}
	return source
}

func (s *SimulatedSource) Poll(ctx context.Context, timeout time.Duration) (Sample, bool) {
	if len(s.series) == 0 {
		return Sample{}, false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return Sample{}, false
	case <-timer.C:
		return Sample{}, false
	case <-s.ticker.C:
		return s.walk(), true
	}
}

// walk moves the next series by a small step, kept slightly wider than its
// scale so that off-chart values show up too.
func (s *SimulatedSource) walk() Sample {
	series := s.series[s.next]
	s.next = (s.next + 1) % len(s.series)

	span := series.scale.Max - series.scale.Min
	series.value += s.rnd.NormFloat64() * span / 20
	series.value = math.Max(series.scale.Min-span/10, math.Min(series.scale.Max+span/10, series.value))

	return Sample{Key: series.key, Value: strconv.FormatFloat(series.value, 'f', 1, 64)}
}

func (s *SimulatedSource) Close() error {
	s.ticker.Stop()
	return nil
}
