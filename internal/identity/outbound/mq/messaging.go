package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/shandysiswandi/gostore/internal/identity/usecase"
	"github.com/shandysiswandi/gostore/internal/pkg/instrument"
	"github.com/shandysiswandi/gostore/internal/pkg/messaging"
	"github.com/shandysiswandi/gostore/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) publish(ctx context.Context, span trace.Span, topic, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := m.client.Publish(ctx, topic, messaging.Message{Key: key, Body: body}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (m *Messaging) PublishOTPRequested(ctx context.Context, msg usecase.OTPRequestedEvent) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, "PublishOTPRequested")
	defer span.End()

	return m.publish(ctx, span, event.OTPRequestedDestination, msg.Contact, event.OTPRequestedMessage{
		EventID:   msg.EventID,
		Contact:   msg.Contact,
		Channel:   msg.Channel,
		Purpose:   msg.Purpose,
		Code:      msg.Code,
		FullName:  msg.FullName,
		ExpiresAt: msg.ExpiresAt,
	})
}

func (m *Messaging) PublishUserRegistered(ctx context.Context, msg usecase.UserRegisteredEvent) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, "PublishUserRegistered")
	defer span.End()

	return m.publish(ctx, span, event.UserRegisteredDestination, strconv.FormatInt(msg.UserID, 10), event.UserRegisteredMessage{
		EventID:    msg.EventID,
		UserID:     msg.UserID,
		Email:      msg.Email,
		Phone:      msg.Phone,
		FullName:   msg.FullName,
		Contact:    msg.Contact,
		Channel:    msg.Channel,
		OccurredAt: msg.OccurredAt,
	})
}

func (m *Messaging) PublishUserPasswordReset(ctx context.Context, msg usecase.UserPasswordResetEvent) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, "PublishUserPasswordReset")
	defer span.End()

	return m.publish(ctx, span, event.UserPasswordResetDestination, strconv.FormatInt(msg.UserID, 10), event.UserPasswordResetMessage{
		EventID:    msg.EventID,
		UserID:     msg.UserID,
		Email:      msg.Email,
		Phone:      msg.Phone,
		Channel:    msg.Channel,
		OccurredAt: msg.OccurredAt,
	})
}
