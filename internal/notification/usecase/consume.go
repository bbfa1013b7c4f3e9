package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/shandysiswandi/gostore/internal/notification/entity"
	"github.com/shandysiswandi/gostore/internal/pkg/valueobject"
)

type ConsumeOTPRequestedInput struct {
	EventID   string `validate:"required"`
	Contact   string `validate:"required"`
	Channel   string `validate:"required,oneof=email sms"`
	Purpose   string `validate:"required"`
	Code      string `validate:"required"`
	FullName  string
	ExpiresAt time.Time
}

// ConsumeOTPRequested delivers a freshly issued code to the contact it was
// issued for.
func (s *Usecase) ConsumeOTPRequested(ctx context.Context, in ConsumeOTPRequestedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeOTPRequested")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	tk, ok := entity.TriggerKeyForPurpose(in.Purpose)
	if !ok {
		slog.ErrorContext(ctx, "unknown otp purpose", "event_id", in.EventID, "purpose", in.Purpose)
		return nil
	}

	ch := entity.ChannelFromString(in.Channel)
	to := entity.Recipient{FullName: in.FullName}
	if ch == entity.ChannelEmail {
		to.Email = in.Contact
	} else {
		to.Phone = in.Contact
	}

	if !in.ExpiresAt.IsZero() && !s.clock.Now().Before(in.ExpiresAt) {
		slog.WarnContext(ctx, "otp expired before delivery", "event_id", in.EventID, "purpose", in.Purpose)
		return nil
	}

	return s.exec(ctx, "otp_requested:"+in.EventID, func(ctx context.Context) error {
		return s.deliver(ctx, entity.Request{
			To:       []entity.Channel{ch},
			Template: tk,
			TemplateData: valueobject.JSONMap{
				"code":               in.Code,
				"expires_in_minutes": s.minutesLeft(in.ExpiresAt),
			},
		}, to)
	})
}

type ConsumeUserRegisteredInput struct {
	EventID  string `validate:"required"`
	UserID   int64  `validate:"required"`
	Email    string
	Phone    string
	FullName string
}

// ConsumeUserRegistered sends the welcome message on every channel the new
// account has an address for.
func (s *Usecase) ConsumeUserRegistered(ctx context.Context, in ConsumeUserRegisteredInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeUserRegistered")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	to := entity.Recipient{UserID: in.UserID, Email: in.Email, Phone: in.Phone, FullName: in.FullName}

	return s.exec(ctx, "user_registered:"+in.EventID, func(ctx context.Context) error {
		return s.deliver(ctx, entity.Request{
			To:       addressedChannels(to),
			Template: entity.TriggerKeyUserWelcome,
		}, to)
	})
}

type ConsumeUserPasswordResetInput struct {
	EventID    string `validate:"required"`
	UserID     int64  `validate:"required"`
	Email      string
	Phone      string
	OccurredAt time.Time
}

// ConsumeUserPasswordReset tells the account owner their password changed.
func (s *Usecase) ConsumeUserPasswordReset(ctx context.Context, in ConsumeUserPasswordResetInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeUserPasswordReset")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	to := entity.Recipient{UserID: in.UserID, Email: in.Email, Phone: in.Phone}
	occurred := in.OccurredAt
	if occurred.IsZero() {
		occurred = s.clock.Now()
	}

	return s.exec(ctx, "user_password_reset:"+in.EventID, func(ctx context.Context) error {
		return s.deliver(ctx, entity.Request{
			To:           addressedChannels(to),
			Template:     entity.TriggerKeyPasswordChanged,
			TemplateData: valueobject.JSONMap{"occurred_at": occurred.UTC().Format(time.RFC1123)},
		}, to)
	})
}

func addressedChannels(to entity.Recipient) []entity.Channel {
	var out []entity.Channel
	if to.Email != "" {
		out = append(out, entity.ChannelEmail)
	}
	if to.Phone != "" {
		out = append(out, entity.ChannelSMS)
	}
	return out
}

func (s *Usecase) minutesLeft(expiresAt time.Time) string {
	if expiresAt.IsZero() {
		return "a few"
	}
	left := math.Ceil(expiresAt.Sub(s.clock.Now()).Minutes())
	return fmt.Sprintf("%.0f", math.Max(left, 1))
}
