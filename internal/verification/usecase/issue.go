package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
	"github.com/shandysiswandi/gostore/internal/verification/entity"
)

type IssueInput struct {
	Contact string         `validate:"required,max=254"`
	Purpose entity.Purpose `validate:"required,oneof=registration password_reset"`
	Channel entity.Channel `validate:"required,oneof=email sms"`
	Payload entity.Payload `validate:"required"`
}

type IssueOutput struct {
	Code      string
	ExpiresAt time.Time
}

func (s *Usecase) Issue(ctx context.Context, in IssueInput) (*IssueOutput, error) {
	ctx, span := s.startSpan(ctx, "Issue")
	defer span.End()

	in.Contact = NormalizeContact(in.Contact, in.Channel)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if err := s.validateContact(in.Contact, in.Channel); err != nil {
		return nil, err
	}

	if in.Payload.Purpose() != in.Purpose {
		return nil, goerror.NewInvalidInput(nil, "payload", "payload does not belong to purpose "+in.Purpose.String())
	}

	code, err := s.code.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate verification code", "error", err)
		return nil, goerror.NewServer(err)
	}

	codeHash, err := s.hmac.Hash(codeMaterial(in.Purpose, in.Contact, code))
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash verification code", "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	rec := entity.Record{
		ID:          s.oid.Generate(),
		Contact:     in.Contact,
		Purpose:     in.Purpose,
		Channel:     in.Channel,
		CodeHash:    string(codeHash),
		Payload:     in.Payload,
		IssuedAt:    now,
		ExpiresAt:   now.Add(s.expiration()),
		MaxAttempts: s.maxAttempts(),
	}

	err = s.store.Save(ctx, rec, s.rateLimitRule())
	if errors.Is(err, entity.ErrRateLimited) {
		slog.InfoContext(ctx, "verification issuance throttled", "contact", in.Contact, "purpose", in.Purpose.String())
		return nil, errTooManyRequests
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to store save record", "contact", in.Contact, "purpose", in.Purpose.String(), "error", err)
		return nil, goerror.NewServer(err)
	}

	return &IssueOutput{Code: code, ExpiresAt: rec.ExpiresAt}, nil
}
