package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gostore/internal/identity/entity"
	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
	ventity "github.com/shandysiswandi/gostore/internal/verification/entity"
	vusecase "github.com/shandysiswandi/gostore/internal/verification/usecase"
)

type PasswordForgotInput struct {
	Channel     string `validate:"required,oneof=email sms"`
	Contact     string `validate:"required,max=254"`
	NewPassword string `validate:"required,password"`
}

type PasswordForgotOutput struct {
	ExpiresAt time.Time
}

// PasswordForgot answers the same way whether or not the contact has an
// account. Unknown contacts go through the rate limiter and get a record
// whose code is never delivered.
func (s *Usecase) PasswordForgot(ctx context.Context, in PasswordForgotInput) (*PasswordForgotOutput, error) {
	ctx, span := s.startSpan(ctx, "PasswordForgot")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	ch := ventity.Channel(in.Channel)
	contact := vusecase.NormalizeContact(in.Contact, ch)

	user, err := s.findUser(ctx, contact, ch)
	if errors.Is(err, goerror.ErrNotFound) {
		user = nil
	} else if err != nil {
		slog.ErrorContext(ctx, "failed to repo find user by contact", "contact", contact, "error", err)
		return nil, goerror.NewServer(err)
	}

	if user != nil {
		if err := user.Status.Err(); err != nil {
			slog.WarnContext(ctx, "password reset requested for ineligible user", "user_id", user.ID, "status", user.Status.String())
			user = nil
		}
	}

	resetToken := s.oid.Generate()
	encPassword, err := s.box.Encrypt(scope(contact, ventity.PurposePasswordReset), in.NewPassword)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt password", "error", err)
		return nil, goerror.NewServer(err)
	}

	out, err := s.verifier.Issue(ctx, vusecase.IssueInput{
		Contact: contact,
		Purpose: ventity.PurposePasswordReset,
		Channel: ch,
		Payload: ventity.PasswordResetPayload{EncryptedPassword: encPassword, ResetToken: resetToken},
	})
	if err != nil {
		return nil, err
	}

	if user == nil {
		slog.WarnContext(ctx, "password reset requested for unavailable user", "contact", contact)
		return &PasswordForgotOutput{ExpiresAt: out.ExpiresAt}, nil
	}

	tokenHash, err := s.hmac.Hash(resetToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash reset token", "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoDB.CreatePasswordReset(ctx, entity.PasswordReset{
		ID:        s.uid.Generate(),
		UserID:    user.ID,
		TokenHash: string(tokenHash),
		ExpiresAt: s.clock.Now().Add(s.passwordResetTTL()),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo create password reset", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishOTPRequested(ctx, OTPRequestedEvent{
		EventID:   s.uuid.Generate(),
		Contact:   contact,
		Channel:   ch.String(),
		Purpose:   ventity.PurposePasswordReset.String(),
		Code:      out.Code,
		ExpiresAt: out.ExpiresAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish otp requested", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &PasswordForgotOutput{ExpiresAt: out.ExpiresAt}, nil
}
