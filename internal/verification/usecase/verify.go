package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
	"github.com/shandysiswandi/gostore/internal/verification/entity"
)

type VerifyInput struct {
	Contact string         `validate:"required,max=254"`
	Code    string         `validate:"required,otp_code"`
	Purpose entity.Purpose `validate:"required,oneof=registration password_reset"`
	Channel entity.Channel `validate:"required,oneof=email sms"`
}

type VerifyOutput struct {
	Payload entity.Payload
}

// Verify checks the code against the live record. A match leaves the record
// in place; the caller removes it once the payload is consumed.
func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	in.Contact = NormalizeContact(in.Contact, in.Channel)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if len(in.Code) != s.code.Length() {
		return nil, goerror.NewInvalidInput(nil, "code", "code has the wrong length")
	}

	rec, err := s.store.Find(ctx, in.Contact, in.Purpose)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "verification record not found", "contact", in.Contact, "purpose", in.Purpose.String())
		return nil, errInvalidCode
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to store find record", "contact", in.Contact, "purpose", in.Purpose.String(), "error", err)
		return nil, goerror.NewServer(err)
	}

	if rec.Expired(s.clock.Now()) {
		if err := s.store.Delete(ctx, in.Contact, in.Purpose, rec.ID); err != nil {
			slog.ErrorContext(ctx, "failed to store delete expired record", "record_id", rec.ID, "error", err)
		}
		return nil, errCodeExpired
	}

	if rec.Channel != in.Channel {
		slog.WarnContext(ctx, "verification channel mismatch", "record_id", rec.ID, "channel", in.Channel.String())
		return nil, errChannelMismatch
	}

	if !s.hmac.Verify(rec.CodeHash, codeMaterial(in.Purpose, in.Contact, in.Code)) {
		attempts, err := s.store.IncrementAttempts(ctx, in.Contact, in.Purpose, rec.ID)
		if errors.Is(err, goerror.ErrNotFound) || errors.Is(err, entity.ErrRecordReplaced) {
			return nil, errInvalidCode
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to store increment attempts", "record_id", rec.ID, "error", err)
			return nil, goerror.NewServer(err)
		}

		if attempts >= rec.MaxAttempts {
			slog.WarnContext(ctx, "verification record exhausted", "record_id", rec.ID, "attempts", attempts)
		}
		return nil, errInvalidCode
	}

	return &VerifyOutput{Payload: rec.Payload}, nil
}
