package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/gostore/internal/identity/entity"
	"github.com/shandysiswandi/gostore/internal/identity/outbound/db"
	"github.com/shandysiswandi/gostore/internal/pkg/clock"
	"github.com/shandysiswandi/gostore/internal/pkg/config"
	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
	"github.com/shandysiswandi/gostore/internal/pkg/hash"
	"github.com/shandysiswandi/gostore/internal/pkg/instrument"
	"github.com/shandysiswandi/gostore/internal/pkg/secretbox"
	"github.com/shandysiswandi/gostore/internal/pkg/uid"
	"github.com/shandysiswandi/gostore/internal/pkg/validator"
	ventity "github.com/shandysiswandi/gostore/internal/verification/entity"
	vusecase "github.com/shandysiswandi/gostore/internal/verification/usecase"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTxTimeout        = 5 * time.Second
	defaultRole             = "customer"
	defaultPasswordResetTTL = 15 * time.Minute
)

type OTPRequestedEvent struct {
	EventID   string
	Contact   string
	Channel   string
	Purpose   string
	Code      string
	FullName  string
	ExpiresAt time.Time
}

type UserRegisteredEvent struct {
	EventID    string
	UserID     int64
	Email      string
	Phone      string
	FullName   string
	Contact    string
	Channel    string
	OccurredAt time.Time
}

type UserPasswordResetEvent struct {
	EventID    string
	UserID     int64
	Email      string
	Phone      string
	Channel    string
	OccurredAt time.Time
}

type repoMessaging interface {
	PublishOTPRequested(ctx context.Context, msg OTPRequestedEvent) error
	PublishUserRegistered(ctx context.Context, msg UserRegisteredEvent) error
	PublishUserPasswordReset(ctx context.Context, msg UserPasswordResetEvent) error
}

type repoDB interface {
	DoInTx(ctx context.Context, opts pgx.TxOptions, timeout time.Duration, fn func(ctx context.Context, tx pgx.Tx) error) error

	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*entity.User, error)

	CreateUser(ctx context.Context, q db.Querier, u entity.NewUser) error
	CreateProfile(ctx context.Context, q db.Querier, p entity.Profile) error
	CreatePasswordReset(ctx context.Context, pr entity.PasswordReset) error

	UsePasswordReset(ctx context.Context, q db.Querier, userID int64, tokenHash string, now time.Time) error
	UpdateUserPassword(ctx context.Context, q db.Querier, userID int64, hash string) error
}

// roleAssigner grants a role inside the caller's transaction.
type roleAssigner interface {
	AssignRoleTx(ctx context.Context, tx pgx.Tx, subject, role string) error
}

type verifier interface {
	Issue(ctx context.Context, in vusecase.IssueInput) (*vusecase.IssueOutput, error)
	Verify(ctx context.Context, in vusecase.VerifyInput) (*vusecase.VerifyOutput, error)
	Remove(ctx context.Context, contact string, purpose ventity.Purpose) error
	ClearRateLimit(ctx context.Context, contact string) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	roles         roleAssigner
	verifier      verifier
	box           secretbox.Box
	validator     validator.Validator
	cfg           config.Config
	password      hash.Hash
	hmac          hash.Hash
	uid           uid.NumberID
	uuid          uid.StringID
	oid           uid.StringID
	clock         clock.Clocker
	ins           instrument.Instrumentation
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Roles         roleAssigner
	Verifier      verifier
	Box           secretbox.Box
	Validator     validator.Validator
	Config        config.Config
	Password      hash.Hash
	HMAC          hash.Hash
	UID           uid.NumberID
	UUID          uid.StringID
	OID           uid.StringID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		roles:         dep.Roles,
		verifier:      dep.Verifier,
		box:           dep.Box,
		validator:     dep.Validator,
		cfg:           dep.Config,
		password:      dep.Password,
		hmac:          dep.HMAC,
		uid:           dep.UID,
		uuid:          dep.UUID,
		oid:           dep.OID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func (s *Usecase) txOptions() (pgx.TxOptions, time.Duration) {
	timeout := s.cfg.GetSecond("modules.identity.tx_timeout")
	if timeout <= 0 {
		timeout = defaultTxTimeout
	}
	return pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, timeout
}

func (s *Usecase) defaultRole() string {
	if role := s.cfg.GetString("modules.identity.default_role"); role != "" {
		return role
	}
	return defaultRole
}

func (s *Usecase) passwordResetTTL() time.Duration {
	if d := s.cfg.GetMinute("modules.identity.password_reset_ttl_minutes"); d > 0 {
		return d
	}
	return defaultPasswordResetTTL
}

// findUser resolves the account a contact belongs to.
func (s *Usecase) findUser(ctx context.Context, contact string, ch ventity.Channel) (*entity.User, error) {
	if ch == ventity.ChannelSMS {
		return s.repoDB.GetUserByPhone(ctx, contact)
	}
	return s.repoDB.GetUserByEmail(ctx, contact)
}

// identityFailure turns the outcome of an identity transaction into the
// error returned to the caller.
func identityFailure(ctx context.Context, msg string, err error) error {
	var errs entity.Errors
	if errors.As(err, &errs) {
		slog.WarnContext(ctx, msg, "reasons", []string(errs))
		return goerror.NewBusinessWithDetails(msg, goerror.CodeInvalidInput, errs)
	}

	slog.ErrorContext(ctx, "failed to run identity transaction", "error", err)
	return goerror.NewServer(err)
}

func scope(contact string, purpose ventity.Purpose) secretbox.Scope {
	return secretbox.Scope{Contact: contact, Purpose: purpose.String()}
}
