package kafka

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrProducerClosed = errors.New("kafka producer is closed")
	ErrConsumerClosed = errors.New("kafka consumer is closed")
	ErrInvalidMessage = errors.New("invalid message")
	ErrEmptyKey       = errors.New("message key cannot be empty")
	ErrEmptyValue     = errors.New("message value cannot be empty")
)

// ErrorType drives the retry decision: transient failures get redelivered,
// everything else goes straight to the dead-letter queue.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeTransient
	ErrorTypePermanent
	ErrorTypeBusiness
)

// KafkaError carries an explicit classification so handlers can opt out of
// the pattern matching in ClassifyError.
type KafkaError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

func (e *KafkaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *KafkaError) Unwrap() error {
	return e.Err
}

func (e *KafkaError) IsTransient() bool {
	return e.Type == ErrorTypeTransient
}

func (e *KafkaError) IsPermanent() bool {
	return e.Type == ErrorTypePermanent
}

// WithDetail attaches context that ends up in dead-letter headers and logs.
func (e *KafkaError) WithDetail(key string, value interface{}) *KafkaError {
	e.Details[key] = value
	return e
}

// NewTransientError marks a failure worth retrying, such as a broker that
// is briefly unreachable.
func NewTransientError(message string, err error) *KafkaError {
	return newKafkaError(ErrorTypeTransient, message, err)
}

// NewPermanentError marks a failure that redelivery cannot fix, such as a
// payload the handler cannot decode.
func NewPermanentError(message string, err error) *KafkaError {
	return newKafkaError(ErrorTypePermanent, message, err)
}

// NewBusinessError marks a domain rejection. It is not retried: the event
// was understood and refused.
func NewBusinessError(message string, err error) *KafkaError {
	return newKafkaError(ErrorTypeBusiness, message, err)
}

func newKafkaError(t ErrorType, message string, err error) *KafkaError {
	return &KafkaError{
		Type:    t,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// transientPatterns match the network and broker hiccups that clear on
// their own. Matched against lowercased error text.
var transientPatterns = []string{
	"connection refused",
	"timeout",
	"deadline exceeded",
	"no such host",
	"network is unreachable",
	"broken pipe",
	"connection reset",
	"i/o timeout",
	"temporary failure",
}

var permanentPatterns = []string{
	"invalid message",
	"schema mismatch",
	"deserialization failed",
	"unknown topic",
	"invalid configuration",
}

// ClassifyError decides how a failure should be handled. A typed KafkaError
// anywhere in the chain wins; otherwise the error text is matched against
// the known transient and permanent patterns. Unmatched errors classify as
// permanent, so an unrecognized failure lands in the dead-letter queue
// where it is visible instead of looping through retries.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	var kafkaErr *KafkaError
	if errors.As(err, &kafkaErr) {
		return kafkaErr.Type
	}

	errorMsg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(errorMsg, pattern) {
			return ErrorTypeTransient
		}
	}
	for _, pattern := range permanentPatterns {
		if strings.Contains(errorMsg, pattern) {
			return ErrorTypePermanent
		}
	}
	return ErrorTypePermanent
}

// ShouldRetry reports whether a failed delivery gets another attempt.
func ShouldRetry(err error, currentRetries, maxRetries int) bool {
	if err == nil {
		return false
	}
	if currentRetries >= maxRetries {
		return false
	}
	return ClassifyError(err) == ErrorTypeTransient
}
