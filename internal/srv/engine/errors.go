package engine

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownSeriesKey     = errors.New("unknown series key")
	ErrMalformedSampleValue = errors.New("malformed sample value")
	ErrTelemetryClosed      = errors.New("telemetry state closed")
	ErrEngineShutdown       = errors.New("engine already shut down")
)

// InitError reports a fatal problem detected while initializing the engine.
type InitError struct {
	Op  string
	Err error
}

func (e *InitError) Error() string {
	return "engine init: " + e.Op + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}

func initErrorf(op string, format string, args ...interface{}) *InitError {
	return &InitError{Op: op, Err: fmt.Errorf(format, args...)}
}
