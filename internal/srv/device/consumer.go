package device

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jypelle/tempoled/internal/srv/engine"
	"github.com/sirupsen/logrus"
)

// ErrIngestionTransient wraps a stream client failure. The sample is lost but
// the consumer keeps polling.
var ErrIngestionTransient = errors.New("transient ingestion error")

// Sample is one message received from the stream. Err is set when the poll
// itself failed, Key and Value are then meaningless.
type Sample struct {
	Key   string
	Value string
	Err   error
}

// SampleSource is a stream client. Poll returns false when nothing arrived
// before the timeout or the context was cancelled.
type SampleSource interface {
	Poll(ctx context.Context, timeout time.Duration) (Sample, bool)
	Close() error
}

// Recorder stores parsed samples.
type Recorder interface {
	Record(key string, raw string) error
}

type ConsumerStats struct {
	Received  uint64
	Recorded  uint64
	Dropped   uint64
	Transient uint64
}

// Consumer moves samples from a SampleSource into a Recorder on its own
// goroutine.
type Consumer struct {
	source      SampleSource
	recorder    Recorder
	pollTimeout time.Duration

	received  uint64
	recorded  uint64
	dropped   uint64
	transient uint64

	lock   sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewConsumer(source SampleSource, recorder Recorder, pollTimeout time.Duration) *Consumer {
	if pollTimeout <= 0 {
		pollTimeout = 100 * time.Millisecond
	}
	return &Consumer{
		source:      source,
		recorder:    recorder,
		pollTimeout: pollTimeout,
	}
}

func (d *Consumer) Start(ctx context.Context) {
	logrus.Infof("Start consumer device")

	d.lock.Lock()
	defer d.lock.Unlock()
	if d.done != nil {
		return
	}

	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})
	go d.run(ctx, d.done)
}

// Stop cancels the poll loop, waits for it and closes the source.
func (d *Consumer) Stop() {
	logrus.Infof("Stop consumer device")

	d.lock.Lock()
	defer d.lock.Unlock()
	if d.done == nil {
		return
	}

	d.cancel()
	<-d.done
	d.done = nil

	if err := d.source.Close(); err != nil {
		logrus.Warnf("Unable to close sample source: %v", err)
	}
}

func (d *Consumer) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for ctx.Err() == nil {
		sample, ok := d.source.Poll(ctx, d.pollTimeout)
		if !ok {
			continue
		}
		d.handle(sample)
	}
}

func (d *Consumer) handle(sample Sample) {
	atomic.AddUint64(&d.received, 1)

	if sample.Err != nil {
		atomic.AddUint64(&d.transient, 1)
		logrus.Warnf("Consumer error: %v", sample.Err)
		return
	}

	err := d.recorder.Record(sample.Key, sample.Value)
	switch {
	case err == nil:
		atomic.AddUint64(&d.recorded, 1)
		logrus.Debugf("Sample %s = %s", sample.Key, sample.Value)
	case errors.Is(err, engine.ErrUnknownSeriesKey):
		atomic.AddUint64(&d.dropped, 1)
		logrus.Debugf("Drop sample: %v", err)
	default:
		atomic.AddUint64(&d.dropped, 1)
		logrus.Warnf("Drop sample: %v", err)
	}
}

func (d *Consumer) Stats() ConsumerStats {
	return ConsumerStats{
		Received:  atomic.LoadUint64(&d.received),
		Recorded:  atomic.LoadUint64(&d.recorded),
		Dropped:   atomic.LoadUint64(&d.dropped),
		Transient: atomic.LoadUint64(&d.transient),
	}
}
