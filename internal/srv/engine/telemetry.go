package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"
	"unicode/utf8"
)

// Reading is the latest value of one registered series.
type Reading struct {
	Key       string
	Value     float64
	Seq       uint64
	UpdatedAt time.Time
	// Fresh is set when the value changed since the previous drain.
	Fresh bool
}

// TelemetryStats are the diagnostic counters of the shared state.
type TelemetryStats struct {
	Seq       uint64
	Accepted  uint64
	Unknown   uint64
	Malformed uint64
}

type telemetryEntry struct {
	value     float64
	seq       uint64
	drainedAt uint64
	updatedAt time.Time
}

// Telemetry is the only state shared between the ingestion path and the
// render loop. Writers call Record, the scheduler calls DrainLatest.
type Telemetry struct {
	lock    sync.Mutex
	keys    []string
	entries map[string]*telemetryEntry
	seq     uint64
	closed  bool

	accepted  uint64
	unknown   uint64
	malformed uint64

	now func() time.Time
}

// NewTelemetry builds the state for a fixed registry of keys, each starting at
// its initial value.
func NewTelemetry(defs []SeriesDef) *Telemetry {
	t := &Telemetry{
		keys:    make([]string, 0, len(defs)),
		entries: make(map[string]*telemetryEntry, len(defs)),
		now:     time.Now,
	}
	for _, def := range defs {
		t.keys = append(t.keys, def.Key)
		t.entries[def.Key] = &telemetryEntry{value: def.Initial}
	}
	return t
}

func parseSampleValue(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedSampleValue, raw)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: %q is not finite", ErrMalformedSampleValue, raw)
	}
	return value, nil
}

func isPrintable(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

// Record parses raw and stores it as the latest value of key. Keys and values
// carrying non printable characters, surrounding whitespace aside, are malformed.
func (t *Telemetry) Record(key string, raw string) error {
	if !isPrintable(key) || !isPrintable(strings.TrimSpace(raw)) {
		atomic.AddUint64(&t.malformed, 1)
		return fmt.Errorf("%w: non printable sample for key %q", ErrMalformedSampleValue, key)
	}
	value, err := parseSampleValue(raw)
	if err != nil {
		atomic.AddUint64(&t.malformed, 1)
		return err
	}
	return t.RecordValue(key, value)
}

// RecordValue stores value as the latest value of key.
func (t *Telemetry) RecordValue(key string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		atomic.AddUint64(&t.malformed, 1)
		return fmt.Errorf("%w: %v is not finite", ErrMalformedSampleValue, value)
	}
	now := t.now()

	t.lock.Lock()
	defer t.lock.Unlock()

	if t.closed {
		return ErrTelemetryClosed
	}
	entry, ok := t.entries[key]
	if !ok {
		atomic.AddUint64(&t.unknown, 1)
		return fmt.Errorf("%w: %q", ErrUnknownSeriesKey, key)
	}
	t.seq++
	entry.value = value
	entry.seq = t.seq
	entry.updatedAt = now
	atomic.AddUint64(&t.accepted, 1)
	return nil
}

// DrainLatest returns the current value of every registered series, in
// registry order.
func (t *Telemetry) DrainLatest() []Reading {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.readings(true)
}

// Snapshot returns the same readings as DrainLatest without marking them as
// consumed.
func (t *Telemetry) Snapshot() []Reading {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.readings(false)
}

func (t *Telemetry) readings(consume bool) []Reading {
	readings := make([]Reading, len(t.keys))
	for i, key := range t.keys {
		entry := t.entries[key]
		readings[i] = Reading{
			Key:       key,
			Value:     entry.value,
			Seq:       entry.seq,
			UpdatedAt: entry.updatedAt,
			Fresh:     entry.seq > entry.drainedAt,
		}
		if consume {
			entry.drainedAt = entry.seq
		}
	}
	return readings
}

func (t *Telemetry) Stats() TelemetryStats {
	t.lock.Lock()
	seq := t.seq
	t.lock.Unlock()

	return TelemetryStats{
		Seq:       seq,
		Accepted:  atomic.LoadUint64(&t.accepted),
		Unknown:   atomic.LoadUint64(&t.unknown),
		Malformed: atomic.LoadUint64(&t.malformed),
	}
}

// Close rejects any further write. It must only be called once every writer
// has stopped.
func (t *Telemetry) Close() {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.closed = true
}
