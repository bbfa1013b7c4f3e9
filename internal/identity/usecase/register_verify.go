package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
	ventity "github.com/shandysiswandi/gostore/internal/verification/entity"
	vusecase "github.com/shandysiswandi/gostore/internal/verification/usecase"
)

type RegisterVerifyInput struct {
	Channel string `validate:"required,oneof=email sms"`
	Contact string `validate:"required,max=254"`
	Code    string `validate:"required,otp_code"`
}

func (s *Usecase) RegisterVerify(ctx context.Context, in RegisterVerifyInput) (*CompleteRegistrationOutput, error) {
	ctx, span := s.startSpan(ctx, "RegisterVerify")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	ch := ventity.Channel(in.Channel)
	contact := vusecase.NormalizeContact(in.Contact, ch)

	out, err := s.verifier.Verify(ctx, vusecase.VerifyInput{
		Contact: contact,
		Code:    in.Code,
		Purpose: ventity.PurposeRegistration,
		Channel: ch,
	})
	if err != nil {
		return nil, err
	}

	switch p := out.Payload.(type) {
	case ventity.RegistrationPayload:
		return s.CompleteRegistration(ctx, contact, ch, p)
	default:
		slog.ErrorContext(ctx, "unexpected payload for registration", "purpose", out.Payload.Purpose().String())
		return nil, goerror.NewServer(ventity.ErrPayloadMalformed)
	}
}
