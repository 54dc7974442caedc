package engine

import (
	"fmt"
	"math"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() []SeriesDef {
	return []SeriesDef{
		{Key: "leto", Label: "LE", Scale: Scale{Min: 47, Max: 57}, Initial: 45},
		{Key: "duncan", Label: "DU", Scale: Scale{Min: 47, Max: 57}, Initial: 45},
		{Key: "chani", Label: "CH", Scale: Scale{Min: 47, Max: 57}, Initial: 45},
		{Key: "muaddib", Label: "MU", Scale: Scale{Min: 47, Max: 57}, Initial: 45},
	}
}

func values(readings []Reading) map[string]float64 {
	out := make(map[string]float64, len(readings))
	for _, r := range readings {
		out[r.Key] = r.Value
	}
	return out
}

func TestTelemetry_InitialValues(t *testing.T) {
	tel := NewTelemetry(testRegistry())

	readings := tel.DrainLatest()
	require.Len(t, readings, 4)
	assert.Equal(t, []string{"leto", "duncan", "chani", "muaddib"},
		[]string{readings[0].Key, readings[1].Key, readings[2].Key, readings[3].Key})
	for _, r := range readings {
		assert.Equal(t, 45.0, r.Value)
		assert.False(t, r.Fresh)
	}
}

func TestTelemetry_Record(t *testing.T) {
	tel := NewTelemetry(testRegistry())

	require.NoError(t, tel.Record("duncan", "52.3"))
	require.NoError(t, tel.Record("leto", " 49.0\n"))

	readings := tel.DrainLatest()
	assert.Equal(t, 49.0, readings[0].Value)
	assert.Equal(t, 52.3, readings[1].Value)
	assert.True(t, readings[0].Fresh)
	assert.True(t, readings[1].Fresh)
	assert.False(t, readings[2].Fresh)
	assert.Greater(t, readings[0].Seq, readings[1].Seq)

	readings = tel.DrainLatest()
	assert.False(t, readings[0].Fresh)
	assert.Equal(t, 49.0, readings[0].Value)

	stats := tel.Stats()
	assert.Equal(t, uint64(2), stats.Seq)
	assert.Equal(t, uint64(2), stats.Accepted)
}

func TestTelemetry_UnknownKey(t *testing.T) {
	tel := NewTelemetry(testRegistry())
	before := values(tel.Snapshot())

	err := tel.Record("unknown-key", "50")
	assert.ErrorIs(t, err, ErrUnknownSeriesKey)

	assert.Equal(t, before, values(tel.DrainLatest()))
	stats := tel.Stats()
	assert.Equal(t, uint64(1), stats.Unknown)
	assert.Equal(t, uint64(0), stats.Seq)
}

func TestTelemetry_MalformedValue(t *testing.T) {
	tel := NewTelemetry(testRegistry())

	for _, raw := range []string{"", "hot", "51,2", "NaN", "+Inf", "1e400"} {
		err := tel.Record("leto", raw)
		assert.ErrorIs(t, err, ErrMalformedSampleValue, "raw %q", raw)
	}
	assert.ErrorIs(t, tel.RecordValue("leto", math.NaN()), ErrMalformedSampleValue)

	assert.Equal(t, 45.0, tel.Snapshot()[0].Value)
	assert.Equal(t, uint64(7), tel.Stats().Malformed)
}

func TestTelemetry_NonPrintableSample(t *testing.T) {
	tel := NewTelemetry(testRegistry())

	assert.ErrorIs(t, tel.Record("leto", "49\x00"), ErrMalformedSampleValue)
	assert.ErrorIs(t, tel.Record("le\x07to", "49"), ErrMalformedSampleValue)
	assert.ErrorIs(t, tel.Record("leto", string([]byte{0xff, 0xfe})), ErrMalformedSampleValue)

	assert.Equal(t, 45.0, tel.Snapshot()[0].Value)
	stats := tel.Stats()
	assert.Equal(t, uint64(3), stats.Malformed)
	assert.Equal(t, uint64(0), stats.Unknown)
}

func TestIsPrintable(t *testing.T) {
	assert.True(t, isPrintable("leto"))
	assert.True(t, isPrintable(" 52.3 "))
	assert.True(t, isPrintable(""))
	assert.False(t, isPrintable("\x07"))
	assert.False(t, isPrintable(string([]byte{0xff, 0xfe})))
	assert.False(t, isPrintable("52\n"))
}

func TestTelemetry_Closed(t *testing.T) {
	tel := NewTelemetry(testRegistry())
	tel.Close()

	assert.ErrorIs(t, tel.Record("leto", "50"), ErrTelemetryClosed)
	assert.Equal(t, 45.0, tel.DrainLatest()[0].Value)
}

func TestTelemetry_ConcurrentLastWriteWins(t *testing.T) {
	registry := testRegistry()
	tel := NewTelemetry(registry)

	const writes = 2000
	var wg sync.WaitGroup
	for w, def := range registry {
		wg.Add(1)
		go func(w int, key string) {
			defer wg.Done()
			for i := 1; i <= writes; i++ {
				assert.NoError(t, tel.Record(key, strconv.Itoa(w*10000+i)))
			}
		}(w, def.Key)
	}

	// A concurrent reader only ever sees values that were written.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			for w, r := range tel.DrainLatest() {
				if r.Value != 45 {
					assert.Greater(t, r.Value, float64(w*10000), fmt.Sprintf("torn read on %s", r.Key))
					assert.LessOrEqual(t, r.Value, float64(w*10000+writes))
				}
			}
		}
	}()

	wg.Wait()
	<-done

	readings := tel.DrainLatest()
	for w, r := range readings {
		assert.Equal(t, float64(w*10000+writes), r.Value, r.Key)
	}
	assert.Equal(t, uint64(len(registry)*writes), tel.Stats().Seq)
}
