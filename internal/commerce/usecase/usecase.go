package usecase

import (
	"context"

	"github.com/shandysiswandi/gostore/internal/commerce/entity"
	"github.com/shandysiswandi/gostore/internal/pkg/idempotency"
	"github.com/shandysiswandi/gostore/internal/pkg/instrument"
	"github.com/shandysiswandi/gostore/internal/pkg/rbac"
	"github.com/shandysiswandi/gostore/internal/pkg/uid"
	"github.com/shandysiswandi/gostore/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	CreateCart(ctx context.Context, cart entity.Cart) (bool, error)
	GetCartByUserID(ctx context.Context, userID int64) (*entity.Cart, error)
}

type Usecase struct {
	repoDB    repoDB
	idemp     idempotency.Idempotency
	enforcer  rbac.Enforcer
	uid       uid.NumberID
	validator validator.Validator
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB      repoDB
	Idempotency idempotency.Idempotency
	Enforcer    rbac.Enforcer
	UID         uid.NumberID
	Validator   validator.Validator
	Instrument  instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		idemp:     dep.Idempotency,
		enforcer:  dep.Enforcer,
		uid:       dep.UID,
		validator: dep.Validator,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("commerce.usecase").Start(ctx, name)
}
