package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/gostore/internal/pkg/clock"
	"github.com/shandysiswandi/gostore/internal/pkg/config"
	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
	"github.com/shandysiswandi/gostore/internal/pkg/hash"
	"github.com/shandysiswandi/gostore/internal/pkg/idempotency"
	"github.com/shandysiswandi/gostore/internal/pkg/instrument"
	"github.com/shandysiswandi/gostore/internal/pkg/rbac"
	"github.com/shandysiswandi/gostore/internal/pkg/uid"
	"github.com/shandysiswandi/gostore/internal/pkg/validator"
	"github.com/shandysiswandi/gostore/internal/verification/entity"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultExpiration  = 5 * time.Minute
	defaultMaxAttempts = 5
	defaultThreshold   = 3
	defaultWindow      = time.Hour
)

var (
	errTooManyRequests = goerror.NewBusiness("too many requests, try again later", goerror.CodeTooManyRequest)
	errInvalidCode     = goerror.NewBusiness("invalid verification code", goerror.CodeInvalidInput)
	errCodeExpired     = goerror.NewBusiness("verification code has expired", goerror.CodeInvalidInput)
	errChannelMismatch = goerror.NewBusiness("verification code was not sent to this channel", goerror.CodeInvalidInput)
)

// Store keeps records and rate-limit trackers in a TTL-capable external store.
// Every method is atomic for its keys.
type Store interface {
	// Save admits the contact through its tracker and replaces the
	// (contact, purpose) record. It returns entity.ErrRateLimited without
	// writing the record when the tracker refuses.
	Save(ctx context.Context, rec entity.Record, rule entity.RateLimitRule) error

	// Find returns goerror.ErrNotFound when no record is live.
	Find(ctx context.Context, contact string, purpose entity.Purpose) (*entity.Record, error)

	// IncrementAttempts adds one attempt to the record with the given ID and
	// deletes it once MaxAttempts is reached. It returns goerror.ErrNotFound
	// when the record is gone and entity.ErrRecordReplaced when a newer one
	// took its place.
	IncrementAttempts(ctx context.Context, contact string, purpose entity.Purpose, id string) (int, error)

	// Delete removes the record. A non-empty id only removes that record.
	Delete(ctx context.Context, contact string, purpose entity.Purpose, id string) error

	GetRateLimit(ctx context.Context, contact string) (*entity.RateLimit, error)
	ClearRateLimit(ctx context.Context, contact string) error
}

type codeGenerator interface {
	Generate() (string, error)
	Length() int
}

type Usecase struct {
	store     Store
	validator validator.Validator
	cfg       config.Config
	clock     clock.Clocker
	oid       uid.StringID
	code      codeGenerator
	hmac      hash.Hash
	idemp     idempotency.Idempotency
	enforcer  rbac.Enforcer
	ins       instrument.Instrumentation
}

type Dependency struct {
	Store       Store
	Validator   validator.Validator
	Config      config.Config
	Clock       clock.Clocker
	OID         uid.StringID
	Code        codeGenerator
	HMAC        hash.Hash
	Idempotency idempotency.Idempotency
	Enforcer    rbac.Enforcer
	Instrument  instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		store:     dep.Store,
		validator: dep.Validator,
		cfg:       dep.Config,
		clock:     dep.Clock,
		oid:       dep.OID,
		code:      dep.Code,
		hmac:      dep.HMAC,
		idemp:     dep.Idempotency,
		enforcer:  dep.Enforcer,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("verification.usecase").Start(ctx, name)
}

func (s *Usecase) expiration() time.Duration {
	if d := s.cfg.GetMinute("modules.verification.otp.expiration_minutes"); d > 0 {
		return d
	}
	return defaultExpiration
}

func (s *Usecase) maxAttempts() int {
	if n := s.cfg.GetInt("modules.verification.otp.max_attempts"); n > 0 {
		return n
	}
	return defaultMaxAttempts
}

func (s *Usecase) rateLimitRule() entity.RateLimitRule {
	rule := entity.RateLimitRule{
		Threshold: s.cfg.GetInt("modules.verification.rate_limit.threshold"),
		Window:    s.cfg.GetMinute("modules.verification.rate_limit.window_minutes"),
	}
	if rule.Threshold <= 0 {
		rule.Threshold = defaultThreshold
	}
	if rule.Window <= 0 {
		rule.Window = defaultWindow
	}
	return rule
}

// codeMaterial binds a code to the pair it was issued for, so a digest
// copied to another record never matches.
func codeMaterial(purpose entity.Purpose, contact, code string) string {
	return purpose.String() + "\x00" + contact + "\x00" + code
}
