package messaging

type consumeOptions struct {
	// group is the Kafka consumer group, NSQ channel, NATS queue group or
	// Pub/Sub subscription.
	group       string
	concurrency int
	maxInFlight int
}

type ConsumeOption func(*consumeOptions)

func newConsumeOptions(opts ...ConsumeOption) consumeOptions {
	co := consumeOptions{concurrency: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&co)
		}
	}
	if co.concurrency <= 0 {
		co.concurrency = 1
	}
	return co
}

// WithGroup sets the name that load-balances deliveries between consumers.
func WithGroup(group string) ConsumeOption {
	return func(o *consumeOptions) { o.group = group }
}

// WithConcurrency sets how many handler goroutines process deliveries.
func WithConcurrency(n int) ConsumeOption {
	return func(o *consumeOptions) { o.concurrency = n }
}

// WithMaxInFlight limits unacknowledged deliveries where the broker supports it.
func WithMaxInFlight(n int) ConsumeOption {
	return func(o *consumeOptions) { o.maxInFlight = n }
}
