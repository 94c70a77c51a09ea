package notify

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// messageWriter abstracts kafka.Writer for tests.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaSink publishes events to a Kafka topic. The underlying writer is
// asynchronous; delivery failures are logged and otherwise ignored.
type KafkaSink struct {
	writer messageWriter
	closer func() error
	lg     *zap.Logger
	now    func() time.Time
}

// NewKafkaSink creates a KafkaSink. brokers is a comma-separated list of
// host:port.
func NewKafkaSink(brokers, topic string, lg *zap.Logger) (*KafkaSink, error) {
	var addrs []string
	for _, a := range strings.Split(brokers, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	if len(addrs) == 0 {
		return nil, errors.New("kafka sink: no brokers")
	}
	if topic == "" {
		return nil, errors.New("kafka sink: empty topic")
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(addrs...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				lg.Warn("Notification delivery failed", zap.Int("messages", len(msgs)), zap.Error(err))
			}
		},
	}
	return &KafkaSink{writer: w, closer: w.Close, lg: lg, now: time.Now}, nil
}

func newKafkaSinkWith(w messageWriter, lg *zap.Logger) *KafkaSink {
	return &KafkaSink{writer: w, closer: func() error { return nil }, lg: lg, now: time.Now}
}

// Notify implements Sink.
func (s *KafkaSink) Notify(ctx context.Context, e Event) {
	enc := jx.GetEncoder()
	defer jx.PutEncoder(enc)
	e.Encode(enc)

	msg := kafka.Message{
		Key:   []byte(e.Severity),
		Value: append([]byte(nil), enc.Bytes()...),
		Time:  s.now(),
	}
	if err := s.writer.WriteMessages(context.WithoutCancel(ctx), msg); err != nil {
		s.lg.Warn("Notification publish failed", zap.Error(err))
	}
}

// Close flushes pending messages and releases the writer.
func (s *KafkaSink) Close() error {
	if err := s.closer(); err != nil {
		return errors.Wrap(err, "close kafka writer")
	}
	return nil
}

var _ Sink = (*KafkaSink)(nil)
