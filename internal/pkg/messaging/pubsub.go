package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub/v2"
	"google.golang.org/api/option"
)

var ErrPubSubProjectIDRequired = errors.New("messaging: pubsub project id is required")

type PubSubConfig struct {
	ProjectID     string
	ClientOptions []option.ClientOption
}

// PubSub publishes to topics and receives from subscriptions. The group
// option names the subscription; without it the topic name is used as the
// subscription name. Headers travel as attributes.
type PubSub struct {
	client *pubsub.Client

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
	closed     bool
}

func NewPubSub(ctx context.Context, cfg PubSubConfig) (*PubSub, error) {
	if cfg.ProjectID == "" {
		return nil, ErrPubSubProjectIDRequired
	}
	c, err := pubsub.NewClient(ctx, cfg.ProjectID, cfg.ClientOptions...)
	if err != nil {
		return nil, fmt.Errorf("messaging: pubsub new client: %w", err)
	}
	return &PubSub{client: c, publishers: map[string]*pubsub.Publisher{}}, nil
}

func (p *PubSub) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	pubs := p.publishers
	p.publishers = nil
	p.mu.Unlock()

	for _, pub := range pubs {
		pub.Stop()
	}
	return p.client.Close()
}

func (p *PubSub) Publish(ctx context.Context, topic string, msg Message) error {
	if err := validatePublish(ctx, topic); err != nil {
		return err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	pub, ok := p.publishers[topic]
	if !ok {
		pub = p.client.Publisher(topic)
		pub.EnableMessageOrdering = true
		p.publishers[topic] = pub
	}
	p.mu.Unlock()

	res := pub.Publish(ctx, &pubsub.Message{
		Data:        msg.Body,
		Attributes:  withCorrelation(ctx, msg),
		OrderingKey: msg.Key,
	})
	if _, err := res.Get(ctx); err != nil {
		if msg.Key != "" {
			pub.ResumePublish(msg.Key)
		}
		return fmt.Errorf("messaging: pubsub publish: %w", err)
	}
	return nil
}

func (p *PubSub) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(ctx, topic, handler); err != nil {
		return err
	}
	co := newConsumeOptions(opts...)

	subscription := co.group
	if subscription == "" {
		subscription = topic
	}

	sub := p.client.Subscriber(subscription)
	sub.ReceiveSettings.NumGoroutines = co.concurrency
	if co.maxInFlight > 0 {
		sub.ReceiveSettings.MaxOutstandingMessages = co.maxInFlight
	}

	return sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		d := Delivery{
			ID:        m.ID,
			Topic:     topic,
			Key:       m.OrderingKey,
			Body:      m.Data,
			Headers:   m.Attributes,
			Timestamp: m.PublishTime,
		}
		if m.DeliveryAttempt != nil {
			d.Attempt = *m.DeliveryAttempt
		}

		if err := dispatch(ctx, DriverGooglePubSub, handler, d); err != nil {
			m.Nack()
			return
		}
		m.Ack()
	})
}
