package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/gostore/internal/commerce/entity"
	"github.com/shandysiswandi/gostore/internal/pkg/idempotency"
)

type ConsumeUserRegisteredInput struct {
	EventID string `validate:"required"`
	UserID  int64  `validate:"required,gt=0"`
}

// ConsumeUserRegistered opens the default cart of a new account.
func (s *Usecase) ConsumeUserRegistered(ctx context.Context, in ConsumeUserRegisteredInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeUserRegistered")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	err := s.idemp.Exec(ctx, "commerce:user_registered:"+in.EventID, func(ctx context.Context) error {
		created, err := s.repoDB.CreateCart(ctx, entity.Cart{ID: s.uid.Generate(), UserID: in.UserID})
		if err != nil {
			return err
		}
		if !created {
			slog.InfoContext(ctx, "cart already exists", "user_id", in.UserID)
		}
		return nil
	})
	if errors.Is(err, idempotency.ErrAlreadyCompleted) {
		slog.InfoContext(ctx, "event already handled", "event_id", in.EventID)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to create default cart", "event_id", in.EventID, "user_id", in.UserID, "error", err)
		return err
	}

	return nil
}
