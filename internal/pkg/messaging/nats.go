package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

var ErrNATSURLRequired = errors.New("messaging: nats url is required")

type NATSConfig struct {
	URL     string
	Options []nats.Option
}

// NATS uses core subjects. With WithGroup deliveries are load-balanced over a
// queue group; there is no redelivery on handler failure.
type NATS struct {
	conn *nats.Conn

	mu     sync.Mutex
	closed bool
}

func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}
	conn, err := nats.Connect(cfg.URL, cfg.Options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}
	return &NATS{conn: conn}, nil
}

func (n *NATS) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil
	}
	n.closed = true
	err := n.conn.Drain()
	n.conn.Close()
	return err
}

func (n *NATS) Publish(ctx context.Context, topic string, msg Message) error {
	if err := validatePublish(ctx, topic); err != nil {
		return err
	}

	nm := nats.NewMsg(topic)
	nm.Data = msg.Body
	for key, val := range withCorrelation(ctx, msg) {
		nm.Header.Set(key, val)
	}
	if msg.Key != "" {
		nm.Header.Set("key", msg.Key)
	}

	if err := n.conn.PublishMsg(nm); err != nil {
		return fmt.Errorf("messaging: nats publish: %w", err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("messaging: nats flush: %w", err)
	}
	return nil
}

func (n *NATS) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(ctx, topic, handler); err != nil {
		return err
	}
	co := newConsumeOptions(opts...)

	msgs := make(chan *nats.Msg, co.concurrency)
	sub, err := n.conn.QueueSubscribe(topic, co.group, func(m *nats.Msg) {
		select {
		case msgs <- m:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return fmt.Errorf("messaging: nats subscribe: %w", err)
	}

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for m := range msgs {
				d := natsDelivery(m)
				if err := dispatch(ctx, DriverNATS, handler, d); err != nil {
					_ = m.Nak()
					continue
				}
				_ = m.Ack()
			}
		})
	}

	<-ctx.Done()
	err = sub.Drain()
	close(msgs)
	wg.Wait()
	return errors.Join(ctx.Err(), err)
}

func natsDelivery(m *nats.Msg) Delivery {
	d := Delivery{Topic: m.Subject, Body: m.Data, Timestamp: time.Now()}
	if len(m.Header) > 0 {
		d.Headers = make(map[string]string, len(m.Header))
		for k := range m.Header {
			d.Headers[k] = m.Header.Get(k)
		}
		d.Key = m.Header.Get("key")
	}
	return d
}
