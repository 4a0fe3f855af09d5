package kafka

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	kafka_config "resbook/pkg/kafka/config"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
)

// Producer publishes booking lifecycle events. Writes are hashed by key so
// every event for one resource lands on one partition and consumers see its
// booking history in order. When a DLQ topic is configured, a failed write
// is copied there instead of being silently lost.
type Producer struct {
	writer     *kafka.Writer
	dlqWriter  *kafka.Writer
	topic      string
	dlqTopic   string
	middleware []ProducerMiddleware
	closed     bool
	mu         sync.RWMutex
}

// ProducerMiddleware wraps Publish. The middleware decides whether to call
// next, so it can short-circuit, measure, or annotate the message.
type ProducerMiddleware func(ctx context.Context, msg Message, next func(ctx context.Context, msg Message) error) error

// NewProducer builds a producer for topic. An empty dlqTopic disables the
// dead letter copy on failed writes.
func NewProducer(cfg *kafka_config.Config, topic string, dlqTopic string) (*Producer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}

	codec := compressionCodec(cfg.ProducerCompression)
	p := &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: requiredAcks(cfg.ProducerRequireAcks),
			Compression:  codec,
			MaxAttempts:  cfg.ProducerMaxAttempts,
			BatchTimeout: cfg.ProducerBatchTimeout,
			Async:        cfg.ProducerAsync,
			Logger:       kafka.LoggerFunc(func(string, ...any) {}),
			ErrorLogger:  kafka.LoggerFunc(log.Printf),
		},
		topic:    topic,
		dlqTopic: dlqTopic,
	}
	if dlqTopic != "" {
		p.dlqWriter = newDLQWriter(cfg.Brokers, dlqTopic, codec)
	}
	return p, nil
}

func compressionCodec(name string) compress.Compression {
	switch name {
	case "gzip":
		return compress.Gzip
	case "lz4":
		return compress.Lz4
	case "zstd":
		return compress.Zstd
	default:
		return compress.Snappy
	}
}

func requiredAcks(acks int) kafka.RequiredAcks {
	switch acks {
	case 0:
		return kafka.RequireNone
	case 1:
		return kafka.RequireOne
	default:
		return kafka.RequireAll
	}
}

// newDLQWriter builds the writer both producer and consumer dead-letter
// through. It always waits for all replicas: losing the DLQ copy loses the
// event for good.
func newDLQWriter(brokers []string, topic string, codec compress.Compression) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  codec,
		MaxAttempts:  3,
		Logger:       kafka.LoggerFunc(func(string, ...any) {}),
		ErrorLogger:  kafka.LoggerFunc(log.Printf),
	}
}

// wireMessage lowers the package envelope onto a kafka-go message.
func wireMessage(msg Message, at time.Time) kafka.Message {
	out := kafka.Message{
		Key:   []byte(msg.Key),
		Value: msg.Value,
		Time:  at,
	}
	for k, v := range msg.Headers {
		out.Headers = append(out.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return out
}

// Use appends middleware. The first registered runs outermost.
func (p *Producer) Use(mw ProducerMiddleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.middleware = append(p.middleware, mw)
}

// Publish sends one event through the middleware chain and the writer.
func (p *Producer) Publish(ctx context.Context, msg Message) error {
	if err := p.guard(); err != nil {
		return err
	}
	if msg.Key == "" {
		return ErrEmptyKey
	}
	if len(msg.Value) == 0 {
		return ErrEmptyValue
	}

	publish := p.write
	for i := len(p.middleware) - 1; i >= 0; i-- {
		mw, next := p.middleware[i], publish
		publish = func(ctx context.Context, m Message) error {
			return mw(ctx, m, next)
		}
	}
	return publish(ctx, msg)
}

// PublishBatch writes several events in one round trip, dropping entries
// without a key or payload. Middleware does not run for batches.
func (p *Producer) PublishBatch(ctx context.Context, messages []Message) error {
	if err := p.guard(); err != nil {
		return err
	}

	batch := make([]kafka.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Key == "" || len(msg.Value) == 0 {
			continue
		}
		batch = append(batch, wireMessage(msg, msg.Timestamp))
	}
	if len(batch) == 0 {
		return ErrInvalidMessage
	}
	return p.writer.WriteMessages(ctx, batch...)
}

func (p *Producer) guard() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProducerClosed
	}
	return nil
}

// write hands one message to the writer, dead-lettering it on failure.
func (p *Producer) write(ctx context.Context, msg Message) error {
	err := p.writer.WriteMessages(ctx, wireMessage(msg, msg.Timestamp))
	if err == nil {
		return nil
	}
	if p.dlqWriter != nil {
		if dlqErr := p.deadLetter(ctx, msg, err); dlqErr != nil {
			return fmt.Errorf("failed to send to DLQ: %v (original error: %v)", dlqErr, err)
		}
	}
	return err
}

// deadLetter copies a failed event to the DLQ topic with the failure
// recorded in the headers.
func (p *Producer) deadLetter(ctx context.Context, msg Message, cause error) error {
	out := wireMessage(msg, time.Now())
	out.Headers = append(out.Headers,
		kafka.Header{Key: HeaderOriginalTopic, Value: []byte(p.topic)},
		kafka.Header{Key: "dlq-error", Value: []byte(cause.Error())},
		kafka.Header{Key: "dlq-timestamp", Value: []byte(time.Now().Format(time.RFC3339))},
	)
	return p.dlqWriter.WriteMessages(ctx, out)
}

// Close flushes and closes both writers. Safe to call more than once.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	err := p.writer.Close()
	if p.dlqWriter != nil {
		if dlqErr := p.dlqWriter.Close(); err == nil {
			err = dlqErr
		}
	}
	return err
}

// Stats reports the underlying writer statistics.
func (p *Producer) Stats() kafka.WriterStats {
	return p.writer.Stats()
}
