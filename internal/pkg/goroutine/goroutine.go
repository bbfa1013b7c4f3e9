// Package goroutine runs background work with a concurrency cap and panic
// recovery, and lets shutdown wait for everything that was started.
package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/gostore/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is multiplied by NumCPU when no limit is configured.
const DefaultMaxGoroutine int = 100

// ErrPanic is recorded when a task panics.
var ErrPanic = errors.New("goroutine: task panicked")

type Manager struct {
	wg   sync.WaitGroup
	sema chan struct{}

	mu     sync.Mutex
	errs   []error
	closed bool
}

func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}
	return &Manager{sema: make(chan struct{}, maxGoroutine)}
}

// Go runs f in a new goroutine. The task is dropped with a warning when the
// manager is closed or saturated, and skipped when ctx is already done.
// Errors returned by f are collected for Wait.
func (g *Manager) Go(ctx context.Context, f func(ctx context.Context) error) bool {
	if g == nil {
		return false
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		slog.WarnContext(ctx, "goroutine manager is closed, task dropped")
		return false
	}

	select {
	case g.sema <- struct{}{}:
		g.wg.Add(1)
		g.mu.Unlock()
	default:
		g.mu.Unlock()
		slog.WarnContext(ctx, "goroutine limit reached, task dropped", "limit", cap(g.sema))
		return false
	}

	go func() {
		defer g.wg.Done()
		defer func() { <-g.sema }()
		defer g.recover(ctx)

		if err := ctx.Err(); err != nil {
			slog.WarnContext(ctx, "goroutine canceled before start", "because", err)
			return
		}

		if err := f(ctx); err != nil {
			g.collect(err)
		}
	}()

	return true
}

func (g *Manager) recover(ctx context.Context) {
	rvr := recover()
	if rvr == nil {
		return
	}

	stack := debug.Stack()
	if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
		slog.ErrorContext(ctx, "panic occurred in goroutine", "panic", rvr, "stack", paths)
	} else {
		slog.ErrorContext(ctx, "panic occurred in goroutine", "panic", rvr, "stack", string(stack))
	}
	g.collect(ErrPanic)
}

func (g *Manager) collect(err error) {
	g.mu.Lock()
	g.errs = append(g.errs, err)
	g.mu.Unlock()
}

// Wait closes the manager, blocks until every started task returns and joins
// their errors.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}
