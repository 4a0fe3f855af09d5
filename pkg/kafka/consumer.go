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

// Consumer reads booking events as part of a consumer group. An offset is
// committed only after the handler and its retries settle, so a crash
// replays the in-flight event rather than dropping it. Events that keep
// failing move to the DLQ topic when one is configured.
type Consumer struct {
	reader     *kafka.Reader
	dlqWriter  *kafka.Writer
	topic      string
	groupID    string
	dlqTopic   string
	maxRetries int
	handler    MessageHandler
	middleware []ConsumerMiddleware
	closed     bool
	mu         sync.RWMutex
	wg         sync.WaitGroup
}

// ConsumerMiddleware wraps the handler. The first registered runs outermost.
type ConsumerMiddleware func(ctx context.Context, msg Message, next MessageHandler) error

// NewConsumer builds a group consumer for topic. An empty dlqTopic drops
// exhausted events instead of dead-lettering them.
func NewConsumer(cfg *kafka_config.Config, topic string, groupID string, dlqTopic string, handler MessageHandler) (*Consumer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	if groupID == "" {
		return nil, fmt.Errorf("group ID cannot be empty")
	}
	if handler == nil {
		return nil, fmt.Errorf("message handler cannot be nil")
	}

	c := &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           cfg.Brokers,
			Topic:             topic,
			GroupID:           groupID,
			MinBytes:          cfg.ConsumerMinBytes,
			MaxBytes:          cfg.ConsumerMaxBytes,
			MaxWait:           cfg.ConsumerMaxWait,
			CommitInterval:    cfg.ConsumerCommitInterval,
			HeartbeatInterval: cfg.ConsumerHeartbeatInterval,
			SessionTimeout:    cfg.ConsumerSessionTimeout,
			RebalanceTimeout:  cfg.ConsumerRebalanceTimeout,
			StartOffset:       cfg.ConsumerStartOffset,
			Logger:            kafka.LoggerFunc(func(string, ...any) {}),
			ErrorLogger:       kafka.LoggerFunc(log.Printf),
		}),
		topic:      topic,
		groupID:    groupID,
		dlqTopic:   dlqTopic,
		maxRetries: cfg.ConsumerMaxRetries,
		handler:    handler,
	}
	if dlqTopic != "" {
		c.dlqWriter = newDLQWriter(cfg.Brokers, dlqTopic, compress.Snappy)
	}
	return c, nil
}

// Use appends middleware around the handler.
func (c *Consumer) Use(mw ConsumerMiddleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.middleware = append(c.middleware, mw)
}

// Start fetches and processes messages until ctx is cancelled. Fetch errors
// other than cancellation are logged and retried after a pause.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return ErrConsumerClosed
	}

	c.wg.Add(1)
	defer c.wg.Done()

	for {
		raw, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("kafka consumer error fetching message: %v", err)
			time.Sleep(time.Second)
			continue
		}

		if err := c.processMessage(ctx, c.convertMessage(raw)); err != nil {
			// Retries and dead-lettering already ran. The offset still
			// advances so one poison event cannot wedge the partition.
			log.Printf("kafka consumer error processing message: %v", err)
		}

		if err := c.reader.CommitMessages(ctx, raw); err != nil {
			log.Printf("kafka consumer error committing offset: %v", err)
		}
	}
}

// processMessage runs the middleware chain and handler, retrying transient
// failures in place up to the configured budget.
func (c *Consumer) processMessage(ctx context.Context, msg Message) error {
	handle := c.handler
	for i := len(c.middleware) - 1; i >= 0; i-- {
		mw, next := c.middleware[i], handle
		handle = func(ctx context.Context, m Message) error {
			return mw(ctx, m, next)
		}
	}

	var err error
	for {
		if err = handle(ctx, msg); err == nil {
			return nil
		}
		if !ShouldRetry(err, msg.GetRetryCount(), c.maxRetries) {
			break
		}
		msg.IncrementRetryCount()
		log.Printf("retrying message (attempt %d/%d): %v", msg.GetRetryCount(), c.maxRetries, err)
	}

	if c.dlqWriter != nil {
		if dlqErr := c.deadLetter(ctx, msg, err); dlqErr != nil {
			log.Printf("failed to send message to DLQ: %v (original error: %v)", dlqErr, err)
		} else {
			log.Printf("message sent to DLQ after %d retries: %v", msg.GetRetryCount(), err)
		}
	}
	return err
}

// deadLetter copies an exhausted event to the DLQ with the consumer group
// and failure recorded in the headers.
func (c *Consumer) deadLetter(ctx context.Context, msg Message, cause error) error {
	out := wireMessage(msg, time.Now())
	out.Headers = append(out.Headers,
		kafka.Header{Key: HeaderOriginalTopic, Value: []byte(c.topic)},
		kafka.Header{Key: "dlq-error", Value: []byte(cause.Error())},
		kafka.Header{Key: "dlq-timestamp", Value: []byte(time.Now().Format(time.RFC3339))},
		kafka.Header{Key: "dlq-consumer-group", Value: []byte(c.groupID)},
	)
	return c.dlqWriter.WriteMessages(ctx, out)
}

// convertMessage lifts a kafka-go message into the package envelope. The
// header map is always allocated so handlers can annotate it.
func (c *Consumer) convertMessage(raw kafka.Message) Message {
	msg := Message{
		Key:       string(raw.Key),
		Value:     raw.Value,
		Headers:   make(map[string]string, len(raw.Headers)),
		Topic:     raw.Topic,
		Partition: raw.Partition,
		Offset:    raw.Offset,
		Timestamp: raw.Time,
	}
	for _, h := range raw.Headers {
		msg.Headers[h.Key] = string(h.Value)
	}
	return msg
}

// Close stops the consumer after in-flight processing finishes. Safe to
// call more than once.
func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.wg.Wait()

	err := c.reader.Close()
	if c.dlqWriter != nil {
		if dlqErr := c.dlqWriter.Close(); err == nil {
			err = dlqErr
		}
	}
	return err
}

// Stats reports the underlying reader statistics.
func (c *Consumer) Stats() kafka.ReaderStats {
	return c.reader.Stats()
}

// Lag reports how far the group trails the head of the topic.
func (c *Consumer) Lag() (int64, error) {
	return c.reader.Stats().Lag, nil
}
