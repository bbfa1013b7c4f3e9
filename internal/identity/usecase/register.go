package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
	ventity "github.com/shandysiswandi/gostore/internal/verification/entity"
	vusecase "github.com/shandysiswandi/gostore/internal/verification/usecase"
)

type RegisterInput struct {
	Channel  string `validate:"required,oneof=email sms"`
	Email    string `validate:"required_if=Channel email,omitempty,email,max=254"`
	Phone    string `validate:"required_if=Channel sms,omitempty,phone"`
	FullName string `validate:"required,min=3,max=100"`
	Password string `validate:"required,password"`
}

type RegisterOutput struct {
	ExpiresAt time.Time
}

// Register issues a registration code to the chosen contact. No account row
// is written until the code is verified.
func (s *Usecase) Register(ctx context.Context, in RegisterInput) (*RegisterOutput, error) {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.FullName = strings.TrimSpace(in.FullName)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	ch := ventity.Channel(in.Channel)
	contact := in.Email
	if ch == ventity.ChannelSMS {
		contact = in.Phone
	}

	encPassword, err := s.box.Encrypt(scope(contact, ventity.PurposeRegistration), in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt password", "error", err)
		return nil, goerror.NewServer(err)
	}

	out, err := s.verifier.Issue(ctx, vusecase.IssueInput{
		Contact: contact,
		Purpose: ventity.PurposeRegistration,
		Channel: ch,
		Payload: ventity.RegistrationPayload{
			Email:             in.Email,
			Phone:             in.Phone,
			FullName:          in.FullName,
			EncryptedPassword: encPassword,
		},
	})
	if err != nil {
		return nil, err
	}

	// Checked after Issue so account lookups are throttled per contact.
	if err := s.ensureNotRegistered(ctx, in.Email, in.Phone); err != nil {
		if rErr := s.verifier.Remove(context.WithoutCancel(ctx), contact, ventity.PurposeRegistration); rErr != nil {
			slog.WarnContext(ctx, "failed to remove unused registration code", "contact", contact, "error", rErr)
		}
		return nil, err
	}

	if err := s.repoMessaging.PublishOTPRequested(ctx, OTPRequestedEvent{
		EventID:   s.uuid.Generate(),
		Contact:   contact,
		Channel:   ch.String(),
		Purpose:   ventity.PurposeRegistration.String(),
		Code:      out.Code,
		FullName:  in.FullName,
		ExpiresAt: out.ExpiresAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish otp requested", "contact", contact, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &RegisterOutput{ExpiresAt: out.ExpiresAt}, nil
}

func (s *Usecase) ensureNotRegistered(ctx context.Context, email, phone string) error {
	if email != "" {
		_, err := s.repoDB.GetUserByEmail(ctx, email)
		if err == nil {
			return goerror.NewBusiness("Email already registered", goerror.CodeConflict)
		}
		if !errors.Is(err, goerror.ErrNotFound) {
			slog.ErrorContext(ctx, "failed to repo get user by email", "email", email, "error", err)
			return goerror.NewServer(err)
		}
	}

	if phone != "" {
		_, err := s.repoDB.GetUserByPhone(ctx, phone)
		if err == nil {
			return goerror.NewBusiness("Phone already registered", goerror.CodeConflict)
		}
		if !errors.Is(err, goerror.ErrNotFound) {
			slog.ErrorContext(ctx, "failed to repo get user by phone", "phone", phone, "error", err)
			return goerror.NewServer(err)
		}
	}

	return nil
}
