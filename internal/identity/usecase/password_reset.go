package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
	ventity "github.com/shandysiswandi/gostore/internal/verification/entity"
	vusecase "github.com/shandysiswandi/gostore/internal/verification/usecase"
)

type PasswordResetInput struct {
	Channel string `validate:"required,oneof=email sms"`
	Contact string `validate:"required,max=254"`
	Code    string `validate:"required,otp_code"`
}

func (s *Usecase) PasswordReset(ctx context.Context, in PasswordResetInput) error {
	ctx, span := s.startSpan(ctx, "PasswordReset")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	ch := ventity.Channel(in.Channel)
	contact := vusecase.NormalizeContact(in.Contact, ch)

	out, err := s.verifier.Verify(ctx, vusecase.VerifyInput{
		Contact: contact,
		Code:    in.Code,
		Purpose: ventity.PurposePasswordReset,
		Channel: ch,
	})
	if err != nil {
		return err
	}

	switch p := out.Payload.(type) {
	case ventity.PasswordResetPayload:
		return s.CompletePasswordReset(ctx, p, contact, ch)
	default:
		slog.ErrorContext(ctx, "unexpected payload for password reset", "purpose", out.Payload.Purpose().String())
		return goerror.NewServer(ventity.ErrPayloadMalformed)
	}
}
