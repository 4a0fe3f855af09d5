// Package kafka_middleware carries the cross-cutting hooks wired around
// booking event producers and consumers.
package kafka_middleware

import (
	"context"
	"time"

	"resbook/pkg/kafka"
	"resbook/pkg/logger"
)

// LoggingProducerMiddleware records every publish with its outcome and the
// time spent in the writer.
func LoggingProducerMiddleware(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)

		attrs := []any{
			"topic", msg.Topic,
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"duration", time.Since(start).String(),
		}
		if err != nil {
			log.Error("Failed to publish booking event", append(attrs, "error", err)...)
		} else {
			log.Debug("Published booking event", attrs...)
		}
		return err
	}
}

// LoggingConsumerMiddleware records every handled event with its partition
// coordinates, so a stuck offset can be traced to a payload.
func LoggingConsumerMiddleware(log *logger.Logger) kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)

		attrs := []any{
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"duration", time.Since(start).String(),
		}
		if err != nil {
			log.Error("Failed to process booking event", append(attrs, "error", err)...)
		} else {
			log.Debug("Processed booking event", attrs...)
		}
		return err
	}
}
