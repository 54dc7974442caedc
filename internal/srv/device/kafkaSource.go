package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jypelle/tempoled/internal/srv/config"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// kafkaMessageReader is the part of *kafka.Reader used by kafkaSource.
type kafkaMessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaSource struct {
	reader kafkaMessageReader
}

// NewKafkaSource joins the consumer group. Without committed offsets the
// group starts from the oldest retained message.
func NewKafkaSource(param config.KafkaParam) SampleSource {
	logrus.Infof("Create kafka sample source: %s", param.String())

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        param.GetBrokers(),
		GroupID:        param.GetGroupId(),
		GroupTopics:    param.GetTopics(),
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
		MinBytes:       1,
		MaxBytes:       1 << 20,
		MaxWait:        param.GetPollTimeout(),
		ErrorLogger:    kafka.LoggerFunc(logrus.Errorf),
	})

	return &kafkaSource{reader: reader}
}

func (s *kafkaSource) Poll(ctx context.Context, timeout time.Duration) (Sample, bool) {
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	msg, err := s.reader.FetchMessage(pollCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return Sample{}, false
		}
		return Sample{Err: fmt.Errorf("%w: %v", ErrIngestionTransient, err)}, true
	}

	// Commits are batched by the reader and flushed on Close
	if err := s.reader.CommitMessages(context.Background(), msg); err != nil {
		logrus.Warnf("Unable to commit offset %d of %s/%d: %v", msg.Offset, msg.Topic, msg.Partition, err)
	}

	return Sample{Key: string(msg.Key), Value: string(msg.Value)}, true
}

func (s *kafkaSource) Close() error {
	logrus.Infof("Close kafka sample source")
	return s.reader.Close()
}
