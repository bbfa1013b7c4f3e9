package messaging

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/gostore/internal/pkg/instrument"
)

func consumeAsync(t *testing.T, m *Memory, topic string, h Handler, opts ...ConsumeOption) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Consume(ctx, topic, h, opts...) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	group := newConsumeOptions(opts...).group
	require.Eventually(t, func() bool { return m.Subscribed(topic, group) }, time.Second, 5*time.Millisecond)
}

func TestMemory_FanOutPerGroup(t *testing.T) {
	m := NewMemory()

	var mu sync.Mutex
	got := map[string][]string{}
	record := func(group string) Handler {
		return func(_ context.Context, d Delivery) error {
			mu.Lock()
			defer mu.Unlock()
			got[group] = append(got[group], string(d.Body))
			return nil
		}
	}

	consumeAsync(t, m, "identity.user.registered", record("commerce"), WithGroup("commerce"))
	consumeAsync(t, m, "identity.user.registered", record("notification"), WithGroup("notification"))

	require.NoError(t, m.Publish(context.Background(), "identity.user.registered", Message{Body: []byte("u1")}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got["commerce"]) == 1 && len(got["notification"]) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestMemory_SubscribedPerGroup(t *testing.T) {
	m := NewMemory()
	assert.False(t, m.Subscribed("u"))

	consumeAsync(t, m, "u", func(context.Context, Delivery) error { return nil }, WithGroup("commerce"))

	assert.True(t, m.Subscribed("u"))
	assert.True(t, m.Subscribed("u", "commerce"))
	assert.False(t, m.Subscribed("u", "commerce", "notification"))
}

func TestMemory_RetriesFailedDelivery(t *testing.T) {
	m := NewMemory()

	var calls atomic.Int32
	consumeAsync(t, m, "t", func(_ context.Context, d Delivery) error {
		if calls.Add(1) < 3 {
			return errors.New("transient")
		}
		assert.Equal(t, 3, d.Attempt)
		return nil
	})

	require.NoError(t, m.Publish(context.Background(), "t", Message{Body: []byte("x")}))
	assert.Eventually(t, func() bool { return calls.Load() == 3 }, time.Second, 5*time.Millisecond)
}

func TestMemory_GivesUpAfterMaxAttempts(t *testing.T) {
	m := NewMemory()

	var calls atomic.Int32
	consumeAsync(t, m, "t", func(context.Context, Delivery) error {
		calls.Add(1)
		panic("always")
	})

	require.NoError(t, m.Publish(context.Background(), "t", Message{Body: []byte("x")}))
	assert.Eventually(t, func() bool { return calls.Load() == memoryMaxAttempts }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(memoryMaxAttempts), calls.Load())
}

func TestMemory_PropagatesCorrelationID(t *testing.T) {
	m := NewMemory()

	seen := make(chan string, 1)
	consumeAsync(t, m, "t", func(ctx context.Context, d Delivery) error {
		seen <- instrument.GetCorrelationID(ctx)
		return nil
	})

	ctx := instrument.SetCorrelationID(context.Background(), "cid-42")
	require.NoError(t, m.Publish(ctx, "t", Message{Body: []byte("x")}))

	select {
	case cid := <-seen:
		assert.Equal(t, "cid-42", cid)
	case <-time.After(time.Second):
		t.Fatal("no delivery")
	}
}

func TestMemory_Validation(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	assert.ErrorIs(t, m.Publish(ctx, "", Message{}), ErrTopicRequired)
	assert.ErrorIs(t, m.Consume(ctx, "t", nil), ErrHandlerRequired)

	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.Publish(ctx, "t", Message{}), ErrClosed)
}

func TestNewFromDriver(t *testing.T) {
	ctx := context.Background()

	m, err := NewFromDriver(ctx, " memory ", FactoryOptions{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, m)

	_, err = NewFromDriver(ctx, "rabbitmq", FactoryOptions{})
	assert.ErrorIs(t, err, ErrUnknownDriver)

	_, err = NewFromDriver(ctx, DriverKafka, FactoryOptions{})
	assert.ErrorIs(t, err, ErrKafkaBrokersRequired)

	_, err = NewFromDriver(ctx, DriverNATS, FactoryOptions{})
	assert.ErrorIs(t, err, ErrNATSURLRequired)

	_, err = NewFromDriver(ctx, DriverGooglePubSub, FactoryOptions{})
	assert.ErrorIs(t, err, ErrPubSubProjectIDRequired)
}

func TestKafkaDelivery(t *testing.T) {
	d := kafkaDelivery(kafka.Message{
		Topic:     "orders",
		Partition: 2,
		Offset:    17,
		Key:       []byte("k"),
		Value:     []byte("v"),
		Headers:   []kafka.Header{{Key: HeaderCorrelationID, Value: []byte("c")}},
	})
	assert.Equal(t, "orders/2/17", d.ID)
	assert.Equal(t, "k", d.Key)
	assert.Equal(t, map[string]string{HeaderCorrelationID: "c"}, d.Headers)
}
