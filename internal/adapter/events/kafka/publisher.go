package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"ledger-service/internal/usecase/entry"
	"ledger-service/pkg/logger"
)

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher sends ledger entry events to a Kafka topic as JSON, keyed by entry id so
// that every change to one entry lands on the same partition.
type Publisher struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
	log     *zap.Logger
}

var _ entry.Publisher = (*Publisher)(nil)

// Config holds the writer settings.
type Config struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// batchTimeout bounds how long a synchronous write waits for its batch to fill.
const batchTimeout = 10 * time.Millisecond

// NewPublisher creates a publisher writing to cfg.Topic on cfg.Brokers.
func NewPublisher(cfg Config, log *zap.Logger) *Publisher {
	return newPublisher(newWriter(cfg), cfg.Topic, cfg.WriteTimeout, log)
}

func newWriter(cfg Config) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           batchTimeout,
		AllowAutoTopicCreation: true,
	}
}

func newPublisher(w messageWriter, topic string, timeout time.Duration, log *zap.Logger) *Publisher {
	return &Publisher{
		writer:  w,
		topic:   topic,
		timeout: timeout,
		log:     log.With(zap.String("topic", topic)),
	}
}

// Publish encodes ev and writes it synchronously.
func (p *Publisher) Publish(ctx context.Context, ev entry.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.EntryID, 10)),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}
	if requestID := logger.GetRequestID(ctx); requestID != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: logger.RequestIDHeader, Value: []byte(requestID)})
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	p.log.Debug("event published", zap.String("type", string(ev.Type)), zap.Int64("entry_id", ev.EntryID))
	return nil
}

// Close flushes pending writes and releases the connection.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
