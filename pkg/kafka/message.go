// Package kafka wraps segmentio/kafka-go with the message envelope, retry
// accounting, and dead-letter plumbing shared by every booking event
// producer and consumer.
package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Header keys shared by producers and consumers, kept as plain strings on
// the wire so non-Go consumers can read them.
const (
	HeaderEventID       = "event-id"
	HeaderEventType     = "event-type"
	HeaderCorrelationID = "correlation-id"
	HeaderSchemaVersion = "schema-version"
	HeaderSource        = "source"
	HeaderTimestamp     = "timestamp"
	HeaderRetryCount    = "retry-count"
	HeaderOriginalTopic = "original-topic"
)

// Message is one event on the wire. Key picks the partition, which is what
// gives per-resource ordering; Value carries the JSON payload. Partition and
// Offset are only meaningful on messages read back from a broker.
type Message struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
}

// MessageHandler processes one consumed message. A nil return commits the
// offset; an error hands the message to the retry and dead-letter path.
type MessageHandler func(ctx context.Context, msg Message) error

// DecodeValue unmarshals the JSON payload into v.
func (m *Message) DecodeValue(v interface{}) error {
	return json.Unmarshal(m.Value, v)
}

// GetHeader looks up a header, reporting whether it was present.
func (m *Message) GetHeader(key string) (string, bool) {
	value, exists := m.Headers[key]
	return value, exists
}

func (m *Message) GetEventID() string {
	return m.Headers[HeaderEventID]
}

func (m *Message) GetEventType() string {
	return m.Headers[HeaderEventType]
}

func (m *Message) GetCorrelationID() string {
	return m.Headers[HeaderCorrelationID]
}

// GetRetryCount reads the retry header. A missing or unreadable header
// counts as zero, so a fresh message always starts at the first attempt.
func (m *Message) GetRetryCount() int {
	if countStr, exists := m.Headers[HeaderRetryCount]; exists {
		if count, err := strconv.Atoi(countStr); err == nil {
			return count
		}
	}
	return 0
}

// IncrementRetryCount bumps the retry header before a redelivery attempt.
func (m *Message) IncrementRetryCount() {
	m.Headers[HeaderRetryCount] = strconv.Itoa(m.GetRetryCount() + 1)
}

// MessageBuilder assembles a Message field by field. Build fills in the
// identifiers a well-formed event always carries.
type MessageBuilder struct {
	msg Message
}

func NewMessage() *MessageBuilder {
	return &MessageBuilder{
		msg: Message{
			Headers:   make(map[string]string),
			Timestamp: time.Now(),
		},
	}
}

// WithKey sets the partition key. Booking events key on resource ID.
func (b *MessageBuilder) WithKey(key string) *MessageBuilder {
	b.msg.Key = key
	return b
}

// WithValue JSON-encodes the payload. An unencodable payload leaves Value
// nil, which the producer rejects at publish time.
func (b *MessageBuilder) WithValue(value interface{}) *MessageBuilder {
	data, err := json.Marshal(value)
	if err != nil {
		b.msg.Value = nil
		return b
	}
	b.msg.Value = data
	return b
}

// WithRawValue sets an already encoded payload.
func (b *MessageBuilder) WithRawValue(value []byte) *MessageBuilder {
	b.msg.Value = value
	return b
}

// WithHeader sets an arbitrary header.
func (b *MessageBuilder) WithHeader(key, value string) *MessageBuilder {
	b.msg.Headers[key] = value
	return b
}

// WithEventID sets the event ID, minting one when the argument is empty.
func (b *MessageBuilder) WithEventID(eventID string) *MessageBuilder {
	if eventID == "" {
		eventID = uuid.New().String()
	}
	b.msg.Headers[HeaderEventID] = eventID
	return b
}

func (b *MessageBuilder) WithEventType(eventType string) *MessageBuilder {
	b.msg.Headers[HeaderEventType] = eventType
	return b
}

func (b *MessageBuilder) WithCorrelationID(correlationID string) *MessageBuilder {
	b.msg.Headers[HeaderCorrelationID] = correlationID
	return b
}

func (b *MessageBuilder) WithSchemaVersion(version string) *MessageBuilder {
	b.msg.Headers[HeaderSchemaVersion] = version
	return b
}

func (b *MessageBuilder) WithSource(source string) *MessageBuilder {
	b.msg.Headers[HeaderSource] = source
	return b
}

// Build finalizes the message, backfilling the event ID and timestamp
// headers when the caller set neither.
func (b *MessageBuilder) Build() Message {
	if b.msg.Headers[HeaderEventID] == "" {
		b.msg.Headers[HeaderEventID] = uuid.New().String()
	}
	if b.msg.Headers[HeaderTimestamp] == "" {
		b.msg.Headers[HeaderTimestamp] = b.msg.Timestamp.Format(time.RFC3339)
	}
	return b.msg
}
