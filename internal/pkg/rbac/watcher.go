package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
)

type reloadMessage struct {
	Method string `json:"method"`
	ID     string `json:"id,omitempty"`
}

func reloadPayload(id string) string {
	//nolint:errchkjson // static struct
	b, _ := json.Marshal(reloadMessage{Method: "reload", ID: id})
	return string(b)
}

// Watcher implements persist.Watcher over Postgres LISTEN/NOTIFY. Every
// message triggers a full reload through the update callback.
type Watcher struct {
	pool    *pgxpool.Pool
	channel string
	localID string

	mu       sync.RWMutex
	callback func(string)
	cancel   context.CancelFunc
	done     chan struct{}
}

type WatcherOption func(*Watcher)

func WithWatcherChannel(name string) WatcherOption {
	return func(w *Watcher) {
		if name != "" {
			w.channel = name
		}
	}
}

// NewWatcher starts listening in the background until Close. Lost
// connections are retried with a Fibonacci backoff capped at five seconds.
func NewWatcher(ctx context.Context, pool *pgxpool.Pool, opts ...WatcherOption) *Watcher {
	w := &Watcher{pool: pool, channel: DefaultChannel, localID: uuid.NewString(), done: make(chan struct{})}
	for _, opt := range opts {
		opt(w)
	}

	ctx, w.cancel = context.WithCancel(ctx)
	go func() {
		defer close(w.done)
		b := retry.WithCappedDuration(5*time.Second, retry.NewFibonacci(200*time.Millisecond))
		err := retry.Do(ctx, b, func(ctx context.Context) error {
			err := w.listen(ctx)
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			slog.Error("rbac watcher lost its listener", "channel", w.channel, "error", err)
			return retry.RetryableError(err)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("rbac watcher stopped", "error", err)
		}
	}()

	return w
}

// ReloadCallback reloads every policy into e.
func ReloadCallback(e casbin.IEnforcer) func(string) {
	return func(payload string) {
		if err := e.LoadPolicy(); err != nil {
			slog.Error("rbac failed to reload policy", "payload", payload, "error", err)
		}
	}
}

func (w *Watcher) SetUpdateCallback(cb func(string)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callback = cb
	return nil
}

// Update is called by casbin after a local policy change.
func (w *Watcher) Update() error {
	_, err := w.pool.Exec(context.Background(), "SELECT pg_notify($1, $2)", w.channel, reloadPayload(w.localID))
	return err
}

func (w *Watcher) Close() {
	w.cancel()
	<-w.done
}

func (w *Watcher) listen(ctx context.Context) error {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{w.channel}.Sanitize()); err != nil {
		return err
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}

		var msg reloadMessage
		if err := json.Unmarshal([]byte(n.Payload), &msg); err != nil {
			slog.Warn("rbac watcher ignored malformed payload", "payload", n.Payload)
			continue
		}
		if msg.ID == w.localID {
			continue
		}

		w.mu.RLock()
		cb := w.callback
		w.mu.RUnlock()
		if cb != nil {
			cb(n.Payload)
		}
	}
}
