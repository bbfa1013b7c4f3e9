package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/gostore/internal/identity/entity"
	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
	ventity "github.com/shandysiswandi/gostore/internal/verification/entity"
)

var errResetUnauthorized = goerror.NewBusiness("invalid or expired reset request", goerror.CodeUnauthorized)

// CompletePasswordReset applies a verified reset. The token is spent and the
// password replaced in one transaction.
func (s *Usecase) CompletePasswordReset(ctx context.Context, p ventity.PasswordResetPayload, contact string, ch ventity.Channel) error {
	ctx, span := s.startSpan(ctx, "CompletePasswordReset")
	defer span.End()

	password, err := s.box.Decrypt(scope(contact, ventity.PurposePasswordReset), p.EncryptedPassword)
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt pending password", "contact", contact, "error", err)
		return goerror.NewServer(err)
	}

	user, err := s.findUser(ctx, contact, ch)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "password reset verified for unavailable user", "contact", contact)
		return errResetUnauthorized
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find user by contact", "contact", contact, "error", err)
		return goerror.NewServer(err)
	}
	if err := user.Status.Err(); err != nil {
		slog.WarnContext(ctx, "password reset verified for ineligible user", "user_id", user.ID, "status", user.Status.String())
		return errResetUnauthorized
	}

	if errs := entity.PasswordPolicy(password); errs != nil {
		return identityFailure(ctx, "password reset failed", errs)
	}

	hashed, err := s.password.Hash(password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	tokenHash, err := s.hmac.Hash(p.ResetToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash reset token", "error", err)
		return goerror.NewServer(err)
	}

	opts, timeout := s.txOptions()
	err = s.repoDB.DoInTx(ctx, opts, timeout, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.repoDB.UsePasswordReset(ctx, tx, user.ID, string(tokenHash), s.clock.Now()); err != nil {
			if errors.Is(err, goerror.ErrNotFound) {
				return entity.Errors{"reset token is invalid, expired or already used"}
			}
			return err
		}

		return s.repoDB.UpdateUserPassword(ctx, tx, user.ID, string(hashed))
	})
	if err != nil {
		return identityFailure(ctx, "password reset failed", err)
	}

	bg := context.WithoutCancel(ctx)
	if err := s.verifier.Remove(bg, contact, ventity.PurposePasswordReset); err != nil {
		slog.WarnContext(ctx, "failed to remove consumed reset code", "contact", contact, "error", err)
	}
	if err := s.verifier.ClearRateLimit(bg, contact); err != nil {
		slog.WarnContext(ctx, "failed to clear rate limit after reset", "contact", contact, "error", err)
	}

	if err := s.repoMessaging.PublishUserPasswordReset(bg, UserPasswordResetEvent{
		EventID:    s.uuid.Generate(),
		UserID:     user.ID,
		Email:      user.Email,
		Phone:      user.Phone,
		Channel:    ch.String(),
		OccurredAt: s.clock.Now(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish user password reset", "user_id", user.ID, "error", err)
	}

	return nil
}
