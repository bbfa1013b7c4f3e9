package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/gostore/internal/identity/entity"
	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
	"github.com/shandysiswandi/gostore/internal/pkg/rbac"
	ventity "github.com/shandysiswandi/gostore/internal/verification/entity"
)

type CompleteRegistrationOutput struct {
	UserID int64
}

// CompleteRegistration writes the user, its role and its profile in one
// transaction. Nothing is kept when any step fails.
func (s *Usecase) CompleteRegistration(ctx context.Context, contact string, ch ventity.Channel, p ventity.RegistrationPayload) (*CompleteRegistrationOutput, error) {
	ctx, span := s.startSpan(ctx, "CompleteRegistration")
	defer span.End()

	password, err := s.box.Decrypt(scope(contact, ventity.PurposeRegistration), p.EncryptedPassword)
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt pending password", "contact", contact, "error", err)
		return nil, goerror.NewServer(err)
	}

	hashed, err := s.password.Hash(password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, goerror.NewServer(err)
	}

	user := entity.NewUser{
		ID:       s.uid.Generate(),
		Email:    p.Email,
		Phone:    p.Phone,
		Password: string(hashed),
		Status:   entity.UserStatusActive,
	}
	profile := entity.Profile{UserID: user.ID, FullName: p.FullName}
	role := s.defaultRole()

	opts, timeout := s.txOptions()
	err = s.repoDB.DoInTx(ctx, opts, timeout, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.repoDB.CreateUser(ctx, tx, user); err != nil {
			if errors.Is(err, goerror.ErrConflict) {
				return entity.Errors{"account is already registered"}
			}
			return err
		}

		if err := s.roles.AssignRoleTx(ctx, tx, strconv.FormatInt(user.ID, 10), role); err != nil {
			if errors.Is(err, rbac.ErrRoleWithoutPermissions) {
				return entity.Errors{"role " + role + " cannot be assigned"}
			}
			return err
		}

		return s.repoDB.CreateProfile(ctx, tx, profile)
	})
	if err != nil {
		return nil, identityFailure(ctx, "registration failed", err)
	}

	// The verification consumer of this event drops the spent code.
	if err := s.repoMessaging.PublishUserRegistered(context.WithoutCancel(ctx), UserRegisteredEvent{
		EventID:    s.uuid.Generate(),
		UserID:     user.ID,
		Email:      user.Email,
		Phone:      user.Phone,
		FullName:   profile.FullName,
		Contact:    contact,
		Channel:    ch.String(),
		OccurredAt: s.clock.Now(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish user registered", "user_id", user.ID, "error", err)
	}

	return &CompleteRegistrationOutput{UserID: user.ID}, nil
}
