package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/shandysiswandi/gostore/internal/pkg/instrument"
	"github.com/shandysiswandi/gostore/internal/pkg/stacktrace"
)

// dispatch runs handler with the delivery correlation ID in ctx and turns a
// panic into an error so the broker redelivers.
func dispatch(ctx context.Context, driver string, handler Handler, d Delivery) (err error) {
	if cid := d.Headers[HeaderCorrelationID]; cid != "" {
		ctx = instrument.SetCorrelationID(ctx, cid)
	}

	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}
		stack := debug.Stack()
		if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
			slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "topic", d.Topic, "panic", rvr, "stack", paths)
		} else {
			slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "topic", d.Topic, "panic", rvr, "stack", string(stack))
		}
		err = fmt.Errorf("messaging: panic in %s handler: %v", driver, rvr)
	}()

	if err := handler(ctx, d); err != nil {
		slog.WarnContext(ctx, "messaging handler failed", "driver", driver, "topic", d.Topic, "id", d.ID, "error", err)
		return err
	}
	return nil
}
