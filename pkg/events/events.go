package events

import (
	"context"
	"time"

	"resbook/pkg/kafka"
	"resbook/pkg/logger"
	"resbook/pkg/model"
)

// Event types carried in the event-type message header.
const (
	TypeBookingCreated      = "booking.created"
	TypeBookingRejected     = "booking.conflict_rejected"
	TypeOccurrenceCancelled = "booking.occurrence_cancelled"
	TypeSeriesDeleted       = "booking.series_deleted"
)

const schemaVersion = "1"

// BookingCreatedEvent is emitted after a booking series commits.
type BookingCreatedEvent struct {
	SeriesID   string    `json:"series_id"`
	ResourceID string    `json:"resource_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Recurring  bool      `json:"recurring"`
	Unbounded  bool      `json:"unbounded"`
	Instances  int       `json:"instances"`
	CreatedAt  time.Time `json:"created_at"`
}

// BookingRejectedEvent is emitted when a create attempt is turned away with
// a conflict outcome. Nothing was written for the attempt.
type BookingRejectedEvent struct {
	ResourceID string    `json:"resource_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Recurring  bool      `json:"recurring"`
	Conflicts  int       `json:"conflicts"`
	RejectedAt time.Time `json:"rejected_at"`
}

// OccurrenceCancelledEvent is emitted when a single occurrence is excluded
// from its series.
type OccurrenceCancelledEvent struct {
	SeriesID    string    `json:"series_id"`
	ResourceID  string    `json:"resource_id"`
	StartTime   time.Time `json:"start_time"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// SeriesDeletedEvent is emitted when a whole series and its instances are
// removed.
type SeriesDeletedEvent struct {
	SeriesID   string    `json:"series_id"`
	ResourceID string    `json:"resource_id"`
	Removed    int64     `json:"removed_instances"`
	DeletedAt  time.Time `json:"deleted_at"`
}

// Publisher fans out booking lifecycle events. Publishing is best effort:
// callers log failures and move on, a lost event never fails the booking.
type Publisher interface {
	BookingCreated(ctx context.Context, series *model.BookingSeries, instances int) error
	BookingRejected(ctx context.Context, req *model.BookingRequest, conflicts int) error
	OccurrenceCancelled(ctx context.Context, seriesID, resourceID string, start time.Time) error
	SeriesDeleted(ctx context.Context, seriesID, resourceID string, removed int64) error
	Close() error
}

// NopPublisher drops every event. Used when Kafka is not configured and in
// tests.
type NopPublisher struct{}

func NewNopPublisher() *NopPublisher { return &NopPublisher{} }

func (*NopPublisher) BookingCreated(context.Context, *model.BookingSeries, int) error {
	return nil
}

func (*NopPublisher) BookingRejected(context.Context, *model.BookingRequest, int) error {
	return nil
}

func (*NopPublisher) OccurrenceCancelled(context.Context, string, string, time.Time) error {
	return nil
}

func (*NopPublisher) SeriesDeleted(context.Context, string, string, int64) error {
	return nil
}

func (*NopPublisher) Close() error { return nil }

// KafkaPublisher publishes events to a single topic, keyed by resource ID so
// consumers see each resource's events in order.
type KafkaPublisher struct {
	producer *kafka.Producer
	source   string
	log      *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, source string, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		source:   source,
		log:      log,
	}
}

func (p *KafkaPublisher) BookingCreated(ctx context.Context, series *model.BookingSeries, instances int) error {
	event := BookingCreatedEvent{
		SeriesID:   series.ID,
		ResourceID: series.ResourceID,
		StartTime:  series.StartTime,
		EndTime:    series.EndTime,
		Recurring:  series.IsRecurring(),
		Unbounded:  series.IsUnbounded(),
		Instances:  instances,
		CreatedAt:  series.CreatedAt,
	}
	return p.publish(ctx, TypeBookingCreated, series.ResourceID, event)
}

func (p *KafkaPublisher) BookingRejected(ctx context.Context, req *model.BookingRequest, conflicts int) error {
	event := BookingRejectedEvent{
		ResourceID: req.ResourceID,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Recurring:  req.Recurrence != nil,
		Conflicts:  conflicts,
		RejectedAt: time.Now().UTC(),
	}
	return p.publish(ctx, TypeBookingRejected, req.ResourceID, event)
}

func (p *KafkaPublisher) OccurrenceCancelled(ctx context.Context, seriesID, resourceID string, start time.Time) error {
	event := OccurrenceCancelledEvent{
		SeriesID:    seriesID,
		ResourceID:  resourceID,
		StartTime:   start,
		CancelledAt: time.Now().UTC(),
	}
	return p.publish(ctx, TypeOccurrenceCancelled, resourceID, event)
}

func (p *KafkaPublisher) SeriesDeleted(ctx context.Context, seriesID, resourceID string, removed int64) error {
	event := SeriesDeletedEvent{
		SeriesID:   seriesID,
		ResourceID: resourceID,
		Removed:    removed,
		DeletedAt:  time.Now().UTC(),
	}
	return p.publish(ctx, TypeSeriesDeleted, resourceID, event)
}

func (p *KafkaPublisher) publish(ctx context.Context, eventType, key string, payload any) error {
	msg := kafka.NewMessage().
		WithKey(key).
		WithValue(payload).
		WithEventType(eventType).
		WithSchemaVersion(schemaVersion).
		WithSource(p.source).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Warn("Failed to publish event",
			"event_type", eventType,
			"key", key,
			"error", err,
		)
		return err
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
