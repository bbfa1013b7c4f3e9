package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/gostore/internal/notification/usecase"
	"github.com/shandysiswandi/gostore/internal/pkg/config"
	"github.com/shandysiswandi/gostore/internal/pkg/goroutine"
	"github.com/shandysiswandi/gostore/internal/pkg/instrument"
	"github.com/shandysiswandi/gostore/internal/pkg/messaging"
	"github.com/shandysiswandi/gostore/internal/shared/event"
)

type uc interface {
	ConsumeOTPRequested(ctx context.Context, in usecase.ConsumeOTPRequestedInput) error
	ConsumeUserRegistered(ctx context.Context, in usecase.ConsumeUserRegisteredInput) error
	ConsumeUserPasswordReset(ctx context.Context, in usecase.ConsumeUserPasswordResetInput) error
}

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Consumer,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.notification.consumer_names")
	concurrency := cfg.GetInt("modules.notification.consumer_concurrency")

	var consumers = []struct {
		name    string
		topic   string // destination where publisher sent message
		handler messaging.Handler
	}{
		{
			name:    event.OTPRequestedConsumerNotification,
			topic:   event.OTPRequestedDestination,
			handler: mqHandler.OTPRequested,
		},
		{
			name:    event.UserRegisteredConsumerNotification,
			topic:   event.UserRegisteredDestination,
			handler: mqHandler.UserRegistered,
		},
		{
			name:    event.UserPasswordResetConsumerNotification,
			topic:   event.UserPasswordResetDestination,
			handler: mqHandler.UserPasswordReset,
		},
	}

	for _, consumer := range consumers {
		if !slices.Contains(enableConsumerNames, consumer.name) {
			continue
		}
		routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
			return messenger.Consume(pCtx,
				consumer.topic,
				consumer.handler,
				messaging.WithGroup(consumer.name),
				messaging.WithConcurrency(concurrency),
				messaging.WithMaxInFlight(concurrency),
			)
		})
	}
}
