package kafka_middleware

import (
	"context"
	"sync/atomic"
	"time"

	"resbook/pkg/kafka"
)

// Metrics counts event traffic for the process. The middleware only counts;
// exposing the numbers is the caller's concern.
type Metrics struct {
	published       atomic.Int64
	publishFailures atomic.Int64
	publishNanos    atomic.Int64

	consumed        atomic.Int64
	consumeFailures atomic.Int64
	consumeNanos    atomic.Int64
}

var globalMetrics Metrics

// GetMetrics returns the process-wide counters.
func GetMetrics() *Metrics {
	return &globalMetrics
}

// Reset zeroes all counters.
func (m *Metrics) Reset() {
	m.published.Store(0)
	m.publishFailures.Store(0)
	m.publishNanos.Store(0)
	m.consumed.Store(0)
	m.consumeFailures.Store(0)
	m.consumeNanos.Store(0)
}

func (m *Metrics) Published() int64       { return m.published.Load() }
func (m *Metrics) PublishFailures() int64 { return m.publishFailures.Load() }
func (m *Metrics) Consumed() int64        { return m.consumed.Load() }
func (m *Metrics) ConsumeFailures() int64 { return m.consumeFailures.Load() }

// AvgPublishDuration reports the mean writer time per successful publish.
func (m *Metrics) AvgPublishDuration() time.Duration {
	n := m.published.Load()
	if n == 0 {
		return 0
	}
	return time.Duration(m.publishNanos.Load() / n)
}

// AvgConsumeDuration reports the mean handler time per successful event.
func (m *Metrics) AvgConsumeDuration() time.Duration {
	n := m.consumed.Load()
	if n == 0 {
		return 0
	}
	return time.Duration(m.consumeNanos.Load() / n)
}

// MetricsProducerMiddleware counts publishes and their latency.
func MetricsProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)

		globalMetrics.publishNanos.Add(int64(time.Since(start)))
		if err != nil {
			globalMetrics.publishFailures.Add(1)
		} else {
			globalMetrics.published.Add(1)
		}
		return err
	}
}

// MetricsConsumerMiddleware counts handled events and their latency.
func MetricsConsumerMiddleware() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)

		globalMetrics.consumeNanos.Add(int64(time.Since(start)))
		if err != nil {
			globalMetrics.consumeFailures.Add(1)
		} else {
			globalMetrics.consumed.Add(1)
		}
		return err
	}
}
