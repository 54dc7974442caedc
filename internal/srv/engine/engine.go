// Package engine animates telemetry charts over a starfield.
//
// An Engine owns the series histories, the starfield and the fixed-timestep
// scheduler. Tick must be called from a single goroutine; the Telemetry it
// exposes is the only part safe for concurrent use.
package engine

import (
	"image/color"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

// SeriesDef describes one tracked series.
type SeriesDef struct {
	Key     string
	Label   string
	Color   color.Color
	Scale   Scale
	Initial float64
}

// Config holds the engine settings.
type Config struct {
	Series []SeriesDef

	LogicStep       time.Duration
	MaxCatchUpSteps int
	StatusRefresh   time.Duration

	HistoryCapacity int
	StarCount       int

	Mapping MappingMode
	// ChartMinY and ChartMaxY bound the chart band. Both zero means full height.
	ChartMinY int
	ChartMaxY int

	TextSize int
	TextMode TextMode

	// Rand feeds the starfield. A time seeded source is used when nil.
	Rand *rand.Rand
}

const (
	DefaultLogicStep       = 16 * time.Millisecond
	DefaultMaxCatchUpSteps = 10
	DefaultStatusRefresh   = time.Second
	DefaultHistoryCapacity = 48
	DefaultStarCount       = 48
	DefaultTextSize        = 12
)

// Engine is the handle returned by Initialize.
type Engine struct {
	config    Config
	canvas    Canvas
	telemetry *Telemetry
	scheduler *Scheduler
	starfield *Starfield
	series    []*TrackedSeries
	renderer  Renderer
	status    []StatusText

	frameCount   uint64
	presentFails uint64
	shutdown     bool
}

func (c *Config) applyDefaults() {
	if c.LogicStep == 0 {
		c.LogicStep = DefaultLogicStep
	}
	if c.StatusRefresh == 0 {
		c.StatusRefresh = DefaultStatusRefresh
	}
	if c.HistoryCapacity == 0 {
		c.HistoryCapacity = DefaultHistoryCapacity
	}
	if c.TextSize == 0 {
		c.TextSize = DefaultTextSize
	}
	if c.Mapping == "" {
		c.Mapping = ALLOW_OFFSCREEN
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
}

func (c *Config) validate(canvas Canvas) error {
	if canvas == nil {
		return initErrorf("canvas", "no display available")
	}
	if canvas.Width() <= 0 || canvas.Height() <= 0 {
		return initErrorf("canvas", "invalid display size %dx%d", canvas.Width(), canvas.Height())
	}
	if c.LogicStep <= 0 {
		return initErrorf("scheduler", "logic step must be positive, got %v", c.LogicStep)
	}
	if c.MaxCatchUpSteps < 0 {
		return initErrorf("scheduler", "max catch-up steps must not be negative, got %d", c.MaxCatchUpSteps)
	}
	if c.HistoryCapacity < 1 {
		return initErrorf("series", "history capacity must be at least 1, got %d", c.HistoryCapacity)
	}
	if c.StarCount < 0 {
		return initErrorf("starfield", "star count must not be negative, got %d", c.StarCount)
	}
	if _, err := ParseMappingMode(string(c.Mapping)); err != nil {
		return &InitError{Op: "mapper", Err: err}
	}
	if c.ChartMinY != 0 || c.ChartMaxY != 0 {
		if c.ChartMaxY <= c.ChartMinY {
			return initErrorf("mapper", "chart band [%d, %d] is empty", c.ChartMinY, c.ChartMaxY)
		}
	}
	if len(c.Series) == 0 {
		return initErrorf("registry", "no series registered")
	}
	seen := make(map[string]bool, len(c.Series))
	for _, def := range c.Series {
		if def.Key == "" {
			return initErrorf("registry", "series with empty key")
		}
		if seen[def.Key] {
			return initErrorf("registry", "duplicate series key %q", def.Key)
		}
		seen[def.Key] = true
		if def.Scale.Max <= def.Scale.Min {
			return initErrorf("registry", "series %q: scale max %v must be greater than min %v", def.Key, def.Scale.Max, def.Scale.Min)
		}
		if math.IsInf(def.Scale.Max-def.Scale.Min, 0) {
			return initErrorf("registry", "series %q: scale span is not finite", def.Key)
		}
	}
	return nil
}

// Initialize builds an engine drawing on canvas.
func Initialize(config Config, canvas Canvas) (*Engine, error) {
	config.applyDefaults()
	if err := config.validate(canvas); err != nil {
		return nil, err
	}

	width, height := canvas.Width(), canvas.Height()

	e := &Engine{
		config:    config,
		canvas:    canvas,
		telemetry: NewTelemetry(config.Series),
		scheduler: NewScheduler(config.LogicStep, config.MaxCatchUpSteps),
		starfield: NewStarfield(width, height, config.Rand),
		renderer:  Renderer{TextSize: config.TextSize, TextMode: config.TextMode},
	}
	e.starfield.Seed(config.StarCount)

	for _, def := range config.Series {
		mapper := FullHeightMapper(def.Scale, height, config.Mapping)
		if config.ChartMinY != 0 || config.ChartMaxY != 0 {
			mapper.MinY = float64(config.ChartMinY)
			mapper.MaxY = float64(config.ChartMaxY)
		}
		e.series = append(e.series, newTrackedSeries(def, config.HistoryCapacity, width, mapper))
	}
	e.refreshStatus()

	logrus.Debugf("Engine initialized: %dx%d, %d series, %d stars, logic step %v",
		width, height, len(e.series), e.starfield.Len(), config.LogicStep)

	return e, nil
}

// Telemetry is the write side handed to ingestion.
func (e *Engine) Telemetry() *Telemetry {
	return e.telemetry
}

func (e *Engine) Series() []*TrackedSeries {
	return e.series
}

func (e *Engine) Starfield() *Starfield {
	return e.starfield
}

func (e *Engine) Scheduler() *Scheduler {
	return e.scheduler
}

// FrameCount is the number of frames rendered so far.
func (e *Engine) FrameCount() uint64 {
	return e.frameCount
}

// logicStep advances the simulation by one fixed step.
func (e *Engine) logicStep() {
	readings := e.telemetry.DrainLatest()
	for i, reading := range readings {
		e.series[i].PushLatest(reading.Value)
	}
	e.starfield.Advance()
}

func (e *Engine) refreshStatus() {
	e.status = LayoutStatus(e.series, e.canvas.Width(), e.canvas.Height(), e.config.TextSize)
}

// Tick advances one frame: the pending logic steps, then exactly one render.
func (e *Engine) Tick(elapsed time.Duration) Frame {
	if e.shutdown {
		return Frame{}
	}

	frame := e.scheduler.Advance(elapsed, e.logicStep)
	if e.scheduler.StatusDue(e.config.StatusRefresh) {
		e.refreshStatus()
	}

	err := e.renderer.Render(e.canvas, Scene{
		Stars:  e.starfield.Stars(),
		Series: e.series,
		Status: e.status,
		Alpha:  frame.Alpha,
	})
	e.frameCount++
	if err != nil {
		e.presentFails++
		if e.presentFails == 1 || e.presentFails%100 == 0 {
			logrus.Warnf("Unable to present frame (%d failures): %v", e.presentFails, err)
		}
	}
	return frame
}

// Shutdown clears and powers off the display and releases the buffers.
// Ingestion must have stopped writing before it is called.
func (e *Engine) Shutdown() error {
	if e.shutdown {
		return ErrEngineShutdown
	}
	e.shutdown = true
	e.telemetry.Close()

	e.canvas.Clear()
	if err := e.canvas.Present(); err != nil {
		logrus.Warnf("Unable to clear display: %v", err)
	}
	err := e.canvas.PowerOff()

	e.series = nil
	e.status = nil
	e.starfield.stars = nil

	logrus.Debugf("Engine shut down after %d frames", e.frameCount)
	return err
}
