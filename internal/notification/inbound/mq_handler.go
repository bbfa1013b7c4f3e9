package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/gostore/internal/notification/usecase"
	"github.com/shandysiswandi/gostore/internal/pkg/instrument"
	"github.com/shandysiswandi/gostore/internal/pkg/messaging"
	"github.com/shandysiswandi/gostore/internal/shared/event"
)

type MQHandler struct {
	uc  uc
	ins instrument.Instrumentation
}

// OTPRequested never logs the body, it carries the code in clear.
func (h *MQHandler) OTPRequested(ctx context.Context, d messaging.Delivery) error {
	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "OTPRequested")
	defer span.End()

	slog.InfoContext(ctx, "consume: otp requested", "delivery_id", d.ID, "attempt", d.Attempt)

	var payload event.OTPRequestedMessage
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of otp requested", "delivery_id", d.ID, "error", err)
		return nil
	}

	if err := h.uc.ConsumeOTPRequested(ctx, usecase.ConsumeOTPRequestedInput{
		EventID:   payload.EventID,
		Contact:   payload.Contact,
		Channel:   payload.Channel,
		Purpose:   payload.Purpose,
		Code:      payload.Code,
		FullName:  payload.FullName,
		ExpiresAt: payload.ExpiresAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume otp requested", "event_id", payload.EventID, "error", err)
		return err
	}

	return nil
}

func (h *MQHandler) UserRegistered(ctx context.Context, d messaging.Delivery) error {
	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "UserRegistered")
	defer span.End()

	slog.InfoContext(ctx, "consume: user registered notification", "msg_body", string(d.Body))

	var payload event.UserRegisteredMessage
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of user registered notification", "msg_body", string(d.Body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeUserRegistered(ctx, usecase.ConsumeUserRegisteredInput{
		EventID:  payload.EventID,
		UserID:   payload.UserID,
		Email:    payload.Email,
		Phone:    payload.Phone,
		FullName: payload.FullName,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume user registered", "msg_body", string(d.Body), "error", err)
		return err
	}

	return nil
}

func (h *MQHandler) UserPasswordReset(ctx context.Context, d messaging.Delivery) error {
	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "UserPasswordReset")
	defer span.End()

	slog.InfoContext(ctx, "consume: user password reset notification", "msg_body", string(d.Body))

	var payload event.UserPasswordResetMessage
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of user password reset notification", "msg_body", string(d.Body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeUserPasswordReset(ctx, usecase.ConsumeUserPasswordResetInput{
		EventID:    payload.EventID,
		UserID:     payload.UserID,
		Email:      payload.Email,
		Phone:      payload.Phone,
		OccurredAt: payload.OccurredAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume user password reset", "msg_body", string(d.Body), "error", err)
		return err
	}

	return nil
}
