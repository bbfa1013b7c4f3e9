package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/gostore/internal/commerce/usecase"
	"github.com/shandysiswandi/gostore/internal/pkg/instrument"
	"github.com/shandysiswandi/gostore/internal/pkg/messaging"
	"github.com/shandysiswandi/gostore/internal/shared/event"
)

type MQHandler struct {
	uc  uc
	ins instrument.Instrumentation
}

func (h *MQHandler) UserRegistered(ctx context.Context, d messaging.Delivery) error {
	ctx, span := h.ins.Tracer("commerce.inbound.mq").Start(ctx, "UserRegistered")
	defer span.End()

	slog.InfoContext(ctx, "consume: user registered cart", "msg_body", string(d.Body))

	var payload event.UserRegisteredMessage
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of user registered cart", "msg_body", string(d.Body), "error", err)
		return nil
	}

	return h.uc.ConsumeUserRegistered(ctx, usecase.ConsumeUserRegisteredInput{
		EventID: payload.EventID,
		UserID:  payload.UserID,
	})
}
