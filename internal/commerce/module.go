package commerce

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/gostore/internal/commerce/inbound"
	"github.com/shandysiswandi/gostore/internal/commerce/outbound/db"
	"github.com/shandysiswandi/gostore/internal/commerce/usecase"
	"github.com/shandysiswandi/gostore/internal/pkg/config"
	"github.com/shandysiswandi/gostore/internal/pkg/goroutine"
	"github.com/shandysiswandi/gostore/internal/pkg/idempotency"
	"github.com/shandysiswandi/gostore/internal/pkg/instrument"
	"github.com/shandysiswandi/gostore/internal/pkg/messaging"
	"github.com/shandysiswandi/gostore/internal/pkg/rbac"
	"github.com/shandysiswandi/gostore/internal/pkg/router"
	"github.com/shandysiswandi/gostore/internal/pkg/uid"
	"github.com/shandysiswandi/gostore/internal/pkg/validator"
)

type Dependency struct {
	Ctx         context.Context
	DBConn      *pgxpool.Pool
	Messaging   messaging.Consumer
	Idempotency idempotency.Idempotency
	Enforcer    rbac.Enforcer
	Router      *router.Router
	Config      config.Config
	Instrument  instrument.Instrumentation
	Goroutine   *goroutine.Manager
	UID         uid.NumberID
	Validator   validator.Validator
}

func New(dep Dependency) {
	uc := usecase.New(usecase.Dependency{
		RepoDB:      db.NewDB(dep.DBConn, dep.Instrument),
		Idempotency: dep.Idempotency,
		Enforcer:    dep.Enforcer,
		UID:         dep.UID,
		Validator:   dep.Validator,
		Instrument:  dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, uc, dep.Instrument)
	}
}
