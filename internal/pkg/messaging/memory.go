package messaging

import (
	"context"
	"maps"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const (
	memoryBuffer      = 256
	memoryMaxAttempts = 5
)

// Memory is an in-process broker for local runs and tests. Each group
// receives a copy of every message published after it subscribed, and
// consumers of the same group compete. Failed deliveries are retried up to
// memoryMaxAttempts times.
type Memory struct {
	mu     sync.Mutex
	topics map[string]map[string]chan Delivery
	closed bool
	seq    atomic.Uint64
}

func NewMemory() *Memory {
	return &Memory{topics: map[string]map[string]chan Delivery{}}
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *Memory) Publish(ctx context.Context, topic string, msg Message) error {
	if err := validatePublish(ctx, topic); err != nil {
		return err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	queues := make([]chan Delivery, 0, len(m.topics[topic]))
	for _, q := range m.topics[topic] {
		queues = append(queues, q)
	}
	m.mu.Unlock()

	d := Delivery{
		ID:        strconv.FormatUint(m.seq.Add(1), 10),
		Topic:     topic,
		Key:       msg.Key,
		Body:      append([]byte(nil), msg.Body...),
		Headers:   maps.Clone(withCorrelation(ctx, msg)),
		Timestamp: time.Now(),
		Attempt:   1,
	}

	for _, q := range queues {
		select {
		case q <- d:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (m *Memory) queue(topic, group string) (chan Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	groups, ok := m.topics[topic]
	if !ok {
		groups = map[string]chan Delivery{}
		m.topics[topic] = groups
	}
	q, ok := groups[group]
	if !ok {
		q = make(chan Delivery, memoryBuffer)
		groups[group] = q
	}
	return q, nil
}

// Subscribed reports whether every named group listens on topic, or any
// group when none is named.
func (m *Memory) Subscribed(topic string, groups ...string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	subs := m.topics[topic]
	if len(groups) == 0 {
		return len(subs) > 0
	}
	for _, g := range groups {
		if _, ok := subs[g]; !ok {
			return false
		}
	}
	return true
}

func (m *Memory) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(ctx, topic, handler); err != nil {
		return err
	}
	co := newConsumeOptions(opts...)

	q, err := m.queue(topic, co.group)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case d := <-q:
					if dispatch(ctx, DriverMemory, handler, d) == nil || d.Attempt >= memoryMaxAttempts {
						continue
					}
					d.Attempt++
					select {
					case q <- d:
					case <-ctx.Done():
						return
					}
				}
			}
		})
	}
	wg.Wait()
	return ctx.Err()
}
