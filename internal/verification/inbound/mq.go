package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/gostore/internal/pkg/config"
	"github.com/shandysiswandi/gostore/internal/pkg/goroutine"
	"github.com/shandysiswandi/gostore/internal/pkg/instrument"
	"github.com/shandysiswandi/gostore/internal/pkg/messaging"
	"github.com/shandysiswandi/gostore/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Consumer,
	uc uc,
	ins instrument.Instrumentation,
) {
	handler := &MQHandler{uc: uc, ins: ins}

	enabled := cfg.GetArray("modules.verification.consumer_names")

	consumers := []struct {
		name    string
		topic   string
		handler messaging.Handler
	}{
		{
			name:    event.UserRegisteredConsumerVerification,
			topic:   event.UserRegisteredDestination,
			handler: handler.UserRegistered,
		},
	}

	for _, consumer := range consumers {
		if !slices.Contains(enabled, consumer.name) {
			continue
		}
		routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
			return messenger.Consume(pCtx,
				consumer.topic,
				consumer.handler,
				messaging.WithGroup(consumer.name),
				messaging.WithConcurrency(cfg.GetInt("modules.verification.consumer_concurrency")),
				messaging.WithMaxInFlight(cfg.GetInt("modules.verification.consumer_concurrency")),
			)
		})
	}
}
