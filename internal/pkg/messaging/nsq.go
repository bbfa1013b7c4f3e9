package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	nsq "github.com/nsqio/go-nsq"
)

var (
	ErrNSQProducerAddrRequired  = errors.New("messaging: nsq producer address is required")
	ErrNSQConsumerAddrsRequired = errors.New("messaging: nsq nsqd or lookupd addresses are required")
)

type NSQConfig struct {
	ProducerAddr         string
	ConsumerNSQDAddrs    []string
	ConsumerLookupdAddrs []string
}

// NSQ maps groups to channels. A handler error requeues the message with the
// client's backoff.
type NSQ struct {
	producer *nsq.Producer
	cfg      NSQConfig

	mu        sync.Mutex
	consumers []*nsq.Consumer
	closed    bool
}

func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	n := &NSQ{cfg: cfg}
	if cfg.ProducerAddr != "" {
		p, err := nsq.NewProducer(cfg.ProducerAddr, nsq.NewConfig())
		if err != nil {
			return nil, fmt.Errorf("messaging: nsq new producer: %w", err)
		}
		p.SetLoggerLevel(nsq.LogLevelError)
		n.producer = p
	}
	return n, nil
}

func (n *NSQ) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	consumers := n.consumers
	n.consumers = nil
	n.mu.Unlock()

	for _, c := range consumers {
		c.Stop()
		<-c.StopChan
	}
	if n.producer != nil {
		n.producer.Stop()
	}
	return nil
}

func (n *NSQ) Publish(ctx context.Context, topic string, msg Message) error {
	if err := validatePublish(ctx, topic); err != nil {
		return err
	}
	if n.producer == nil {
		return ErrNSQProducerAddrRequired
	}
	if err := n.producer.Publish(topic, msg.Body); err != nil {
		return fmt.Errorf("messaging: nsq publish: %w", err)
	}
	return nil
}

func (n *NSQ) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(ctx, topic, handler); err != nil {
		return err
	}
	if len(n.cfg.ConsumerNSQDAddrs) == 0 && len(n.cfg.ConsumerLookupdAddrs) == 0 {
		return ErrNSQConsumerAddrsRequired
	}
	co := newConsumeOptions(opts...)
	if co.group == "" {
		return ErrGroupRequired
	}

	ccfg := nsq.NewConfig()
	ccfg.MaxInFlight = max(co.maxInFlight, co.concurrency)

	consumer, err := nsq.NewConsumer(topic, co.group, ccfg)
	if err != nil {
		return fmt.Errorf("messaging: nsq new consumer: %w", err)
	}
	consumer.SetLoggerLevel(nsq.LogLevelError)
	consumer.AddConcurrentHandlers(nsq.HandlerFunc(func(m *nsq.Message) error {
		return dispatch(ctx, DriverNSQ, handler, Delivery{
			ID:        string(m.ID[:]),
			Topic:     topic,
			Body:      m.Body,
			Timestamp: time.Unix(0, m.Timestamp),
			Attempt:   int(m.Attempts),
		})
	}), co.concurrency)

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return ErrClosed
	}
	n.consumers = append(n.consumers, consumer)
	n.mu.Unlock()

	if len(n.cfg.ConsumerLookupdAddrs) > 0 {
		err = consumer.ConnectToNSQLookupds(n.cfg.ConsumerLookupdAddrs)
	} else {
		err = consumer.ConnectToNSQDs(n.cfg.ConsumerNSQDAddrs)
	}
	if err != nil {
		consumer.Stop()
		<-consumer.StopChan
		return fmt.Errorf("messaging: nsq connect: %w", err)
	}

	select {
	case <-ctx.Done():
		consumer.Stop()
		<-consumer.StopChan
		return ctx.Err()
	case <-consumer.StopChan:
		return nil
	}
}
