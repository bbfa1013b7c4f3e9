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
	mqHandler := &MQHandler{uc: uc, ins: ins}

	if !slices.Contains(cfg.GetArray("modules.commerce.consumer_names"), event.UserRegisteredConsumerCommerce) {
		return
	}

	routine.Go(ctx, func(pCtx context.Context) error {
		slog.InfoContext(ctx, "Running job for handling consumer", "consumer", event.UserRegisteredConsumerCommerce)
		return messenger.Consume(pCtx,
			event.UserRegisteredDestination,
			mqHandler.UserRegistered,
			messaging.WithGroup(event.UserRegisteredConsumerCommerce),
			messaging.WithConcurrency(cfg.GetInt("modules.commerce.consumer_concurrency")),
			messaging.WithMaxInFlight(cfg.GetInt("modules.commerce.consumer_concurrency")),
		)
	})
}
