// Package idempotency guards message handlers against redelivery with a
// Redis-backed state per key.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrAlreadyInProgress = errors.New("idempotency: operation already in progress")
	ErrAlreadyCompleted  = errors.New("idempotency: operation already completed")
	ErrInvalidState      = errors.New("idempotency: invalid state")
)

type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

func (s State) String() string {
	return string(s)
}

type Idempotency interface {
	Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error)
	MarkCompleted(ctx context.Context, key string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

// StateTracker stores one key per operation:
// missing -> in_progress (lock TTL) -> completed (state TTL).
// A failed operation deletes its key so a redelivery can run it again.
type StateTracker struct {
	client redis.Cmdable
	prefix string
}

func New(client redis.Cmdable) *StateTracker {
	return &StateTracker{client: client, prefix: "idempotency:"}
}

const (
	defaultLockDuration = time.Minute
	defaultStateTTL     = 24 * time.Hour
)

type Option func(*execOptions)

type execOptions struct {
	lockDuration time.Duration
	stateTTL     time.Duration
}

// WithLockDuration bounds how long a crashed worker can block the key.
func WithLockDuration(d time.Duration) Option {
	return func(o *execOptions) { o.lockDuration = d }
}

// WithStateTTL sets how long a completed key is remembered.
func WithStateTTL(d time.Duration) Option {
	return func(o *execOptions) { o.stateTTL = d }
}

func (s *StateTracker) Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error) {
	fk := s.prefix + key

	ok, err := s.client.SetNX(ctx, fk, StateInProgress.String(), lockDuration).Result()
	if err != nil {
		return "", err
	}
	if ok {
		return StateNone, nil
	}

	current, err := s.client.Get(ctx, fk).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET
		return s.Acquire(ctx, key, lockDuration)
	}
	if err != nil {
		return "", err
	}

	switch State(current) {
	case StateInProgress, StateCompleted:
		return State(current), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidState, current)
	}
}

func (s *StateTracker) MarkCompleted(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, StateCompleted.String(), ttl).Err()
}

func (s *StateTracker) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// Exec runs fn at most once per key while the completed state is retained.
func (s *StateTracker) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := &execOptions{lockDuration: defaultLockDuration, stateTTL: defaultStateTTL}
	for _, opt := range opts {
		opt(o)
	}
	if o.lockDuration <= 0 {
		o.lockDuration = defaultLockDuration
	}
	if o.stateTTL <= 0 {
		o.stateTTL = defaultStateTTL
	}

	state, err := s.Acquire(ctx, key, o.lockDuration)
	if err != nil {
		return err
	}

	switch state {
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	}

	if err := fn(ctx); err != nil {
		if relErr := s.Release(context.WithoutCancel(ctx), key); relErr != nil {
			return errors.Join(err, relErr)
		}
		return err
	}

	return s.MarkCompleted(context.WithoutCancel(ctx), key, o.stateTTL)
}
