package messaging

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

var ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")

type KafkaConfig struct {
	Brokers []string
	Dialer  *kafka.Dialer
}

// Kafka publishes through one writer per topic and consumes through a
// consumer-group reader per Consume call. Offsets are committed only for
// handled deliveries.
type Kafka struct {
	brokers []string
	dialer  *kafka.Dialer

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	readers map[*kafka.Reader]struct{}
	closed  bool
}

func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}
	return &Kafka{
		brokers: append([]string(nil), cfg.Brokers...),
		dialer:  cfg.Dialer,
		writers: map[string]*kafka.Writer{},
		readers: map[*kafka.Reader]struct{}{},
	}, nil
}

func (k *Kafka) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	writers, readers := k.writers, k.readers
	k.writers, k.readers = nil, nil
	k.mu.Unlock()

	var err error
	for r := range readers {
		err = errors.Join(err, r.Close())
	}
	for _, w := range writers {
		err = errors.Join(err, w.Close())
	}
	return err
}

func (k *Kafka) Publish(ctx context.Context, topic string, msg Message) error {
	if err := validatePublish(ctx, topic); err != nil {
		return err
	}

	w, err := k.writer(topic)
	if err != nil {
		return err
	}

	km := kafka.Message{Key: []byte(msg.Key), Value: msg.Body, Time: time.Now()}
	for key, val := range withCorrelation(ctx, msg) {
		km.Headers = append(km.Headers, kafka.Header{Key: key, Value: []byte(val)})
	}

	if err := w.WriteMessages(ctx, km); err != nil {
		return fmt.Errorf("messaging: kafka publish: %w", err)
	}
	return nil
}

func (k *Kafka) writer(topic string) (*kafka.Writer, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return nil, ErrClosed
	}
	if w, ok := k.writers[topic]; ok {
		return w, nil
	}

	//nolint:staticcheck // WriterConfig keeps Dialer support for SASL/TLS
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  k.brokers,
		Topic:    topic,
		Balancer: &kafka.Hash{},
		Dialer:   k.dialer,
	})
	k.writers[topic] = w
	return w, nil
}

func (k *Kafka) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(ctx, topic, handler); err != nil {
		return err
	}
	co := newConsumeOptions(opts...)
	if co.group == "" {
		return ErrGroupRequired
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  k.brokers,
		GroupID:  co.group,
		Topic:    topic,
		MaxBytes: 10e6,
		Dialer:   k.dialer,
	})

	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return errors.Join(ErrClosed, reader.Close())
	}
	k.readers[reader] = struct{}{}
	k.mu.Unlock()

	err := k.consume(ctx, reader, handler, co.concurrency)

	k.mu.Lock()
	_, owned := k.readers[reader]
	delete(k.readers, reader)
	k.mu.Unlock()

	if owned {
		err = errors.Join(err, reader.Close())
	}
	return err
}

func (k *Kafka) consume(ctx context.Context, reader *kafka.Reader, handler Handler, concurrency int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	msgs := make(chan kafka.Message)
	errc := make(chan error, concurrency+1)

	go func() {
		defer close(msgs)
		for {
			m, err := reader.FetchMessage(ctx)
			if err != nil {
				errc <- err
				return
			}
			select {
			case msgs <- m:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for range concurrency {
		wg.Go(func() {
			for m := range msgs {
				if dispatch(ctx, DriverKafka, handler, kafkaDelivery(m)) != nil {
					continue
				}
				if err := reader.CommitMessages(ctx, m); err != nil {
					errc <- err
					cancel()
					return
				}
			}
		})
	}

	var err error
	select {
	case err = <-errc:
	case <-ctx.Done():
		err = ctx.Err()
	}
	cancel()
	wg.Wait()

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("messaging: kafka consume: %w", err)
}

func kafkaDelivery(m kafka.Message) Delivery {
	d := Delivery{
		ID:        m.Topic + "/" + strconv.Itoa(m.Partition) + "/" + strconv.FormatInt(m.Offset, 10),
		Topic:     m.Topic,
		Key:       string(m.Key),
		Body:      m.Value,
		Timestamp: m.Time,
	}
	if len(m.Headers) > 0 {
		d.Headers = make(map[string]string, len(m.Headers))
		for _, h := range m.Headers {
			d.Headers[h.Key] = string(h.Value)
		}
	}
	return d
}
