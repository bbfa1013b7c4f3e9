package messaging

import (
	"context"
	"errors"
	"io"
	"maps"
	"time"

	"github.com/shandysiswandi/gostore/internal/pkg/instrument"
)

// HeaderCorrelationID carries the correlation ID across the broker.
const HeaderCorrelationID = "x-correlation-id"

var (
	ErrTopicRequired   = errors.New("messaging: topic is required")
	ErrHandlerRequired = errors.New("messaging: handler is required")
	ErrGroupRequired   = errors.New("messaging: consumer group is required")
	ErrClosed          = errors.New("messaging: client is closed")
)

type Messaging interface {
	io.Closer
	Publisher
	Consumer
}

type Publisher interface {
	Publish(ctx context.Context, topic string, msg Message) error
}

type Consumer interface {
	// Consume blocks until ctx is done or the subscription fails.
	Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes one delivery. A nil error acknowledges it.
type Handler func(ctx context.Context, d Delivery) error

// Message is what gets published. Key orders messages on Kafka and Pub/Sub.
// NSQ has no header support and drops Headers.
type Message struct {
	Key     string
	Body    []byte
	Headers map[string]string
}

// Delivery is a received message.
type Delivery struct {
	ID        string
	Topic     string
	Key       string
	Body      []byte
	Headers   map[string]string
	Timestamp time.Time
	// Attempt starts at 1 when the broker reports redeliveries, 0 otherwise.
	Attempt int
}

// withCorrelation returns msg headers with the context correlation ID added.
func withCorrelation(ctx context.Context, msg Message) map[string]string {
	cid := instrument.GetCorrelationID(ctx)
	if cid == "" || msg.Headers[HeaderCorrelationID] != "" {
		return msg.Headers
	}
	h := make(map[string]string, len(msg.Headers)+1)
	maps.Copy(h, msg.Headers)
	h[HeaderCorrelationID] = cid
	return h
}

func validatePublish(ctx context.Context, topic string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}
	return nil
}

func validateConsume(ctx context.Context, topic string, handler Handler) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	return nil
}
