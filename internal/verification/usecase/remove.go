package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
	"github.com/shandysiswandi/gostore/internal/pkg/idempotency"
	"github.com/shandysiswandi/gostore/internal/pkg/rbac"
	"github.com/shandysiswandi/gostore/internal/verification/entity"
)

func (s *Usecase) Remove(ctx context.Context, contact string, purpose entity.Purpose) error {
	ctx, span := s.startSpan(ctx, "Remove")
	defer span.End()

	if err := s.store.Delete(ctx, contact, purpose, ""); err != nil {
		slog.ErrorContext(ctx, "failed to store delete record", "contact", contact, "purpose", purpose.String(), "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

func (s *Usecase) ClearRateLimit(ctx context.Context, contact string) error {
	ctx, span := s.startSpan(ctx, "ClearRateLimit")
	defer span.End()

	if err := s.store.ClearRateLimit(ctx, contact); err != nil {
		slog.ErrorContext(ctx, "failed to store clear rate limit", "contact", contact, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

type RateLimitInput struct {
	Contact string `validate:"required,max=254"`
}

// ClearContactRateLimit is the administrative reset of a contact's tracker.
func (s *Usecase) ClearContactRateLimit(ctx context.Context, in RateLimitInput) error {
	ctx, span := s.startSpan(ctx, "ClearContactRateLimit")
	defer span.End()

	clm, err := rbac.Authorize(ctx, s.enforcer, "verification:rate-limit", "delete")
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if err := s.ClearRateLimit(ctx, in.Contact); err != nil {
		return err
	}

	slog.InfoContext(ctx, "rate limit cleared by admin", "contact", in.Contact, "user_id", clm.Subject)
	return nil
}

func (s *Usecase) GetContactRateLimit(ctx context.Context, in RateLimitInput) (*entity.RateLimit, error) {
	ctx, span := s.startSpan(ctx, "GetContactRateLimit")
	defer span.End()

	if _, err := rbac.Authorize(ctx, s.enforcer, "verification:rate-limit", "read"); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	rl, err := s.store.GetRateLimit(ctx, in.Contact)
	if errors.Is(err, goerror.ErrNotFound) {
		return &entity.RateLimit{Contact: in.Contact}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to store get rate limit", "contact", in.Contact, "error", err)
		return nil, goerror.NewServer(err)
	}

	return rl, nil
}

type ConsumeUserRegisteredInput struct {
	EventID string `validate:"required"`
	Contact string `validate:"required"`
}

// ConsumeUserRegistered drops the spent registration record and clears the
// tracker of a contact that finished registration. Redeliveries of the same
// event are skipped.
func (s *Usecase) ConsumeUserRegistered(ctx context.Context, in ConsumeUserRegisteredInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeUserRegistered")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	err := s.idemp.Exec(ctx, "verification:user_registered:"+in.EventID, func(ctx context.Context) error {
		if err := s.store.Delete(ctx, in.Contact, entity.PurposeRegistration, ""); err != nil {
			return err
		}
		return s.store.ClearRateLimit(ctx, in.Contact)
	})
	if errors.Is(err, idempotency.ErrAlreadyCompleted) {
		slog.InfoContext(ctx, "event already handled", "event_id", in.EventID)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to clean up registration from event", "event_id", in.EventID, "error", err)
		return err
	}

	return nil
}
