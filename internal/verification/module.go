package verification

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gostore/internal/pkg/clock"
	"github.com/shandysiswandi/gostore/internal/pkg/config"
	"github.com/shandysiswandi/gostore/internal/pkg/goroutine"
	"github.com/shandysiswandi/gostore/internal/pkg/hash"
	"github.com/shandysiswandi/gostore/internal/pkg/idempotency"
	"github.com/shandysiswandi/gostore/internal/pkg/instrument"
	"github.com/shandysiswandi/gostore/internal/pkg/messaging"
	"github.com/shandysiswandi/gostore/internal/pkg/otpcode"
	"github.com/shandysiswandi/gostore/internal/pkg/rbac"
	"github.com/shandysiswandi/gostore/internal/pkg/router"
	"github.com/shandysiswandi/gostore/internal/pkg/uid"
	"github.com/shandysiswandi/gostore/internal/pkg/validator"
	"github.com/shandysiswandi/gostore/internal/verification/inbound"
	"github.com/shandysiswandi/gostore/internal/verification/outbound/cache"
	"github.com/shandysiswandi/gostore/internal/verification/outbound/dynamo"
	"github.com/shandysiswandi/gostore/internal/verification/usecase"
)

const (
	StoreDriverRedis    = "redis"
	StoreDriverDynamoDB = "dynamodb"
)

type Dependency struct {
	Ctx         context.Context
	CacheConn   redis.Cmdable `validate:"required"`
	DynamoConn  *dynamodb.Client
	Goroutine   *goroutine.Manager         `validate:"required"`
	Enforcer    rbac.Enforcer              `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Messaging   messaging.Consumer         `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	OID         uid.StringID               `validate:"required"`
	HMAC        hash.Hash                  `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
}

// New wires the verification module and returns its usecase so identity can
// issue and verify codes in-process.
func New(dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	store, err := newStore(dep)
	if err != nil {
		return nil, err
	}

	code, err := otpcode.NewHOTP(dep.Config.GetInt("modules.verification.otp.length"))
	if err != nil {
		return nil, err
	}

	uc := usecase.New(usecase.Dependency{
		Store:       store,
		Validator:   dep.Validator,
		Config:      dep.Config,
		Clock:       dep.Clock,
		OID:         dep.OID,
		Code:        code,
		HMAC:        dep.HMAC,
		Idempotency: dep.Idempotency,
		Enforcer:    dep.Enforcer,
		Instrument:  dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, uc, dep.Instrument)
	}

	return uc, nil
}

func newStore(dep Dependency) (usecase.Store, error) {
	retention := dep.Config.GetMinute("modules.verification.store.retention_minutes")

	switch driver := dep.Config.GetString("modules.verification.store.driver"); driver {
	case "", StoreDriverRedis:
		return cache.New(dep.CacheConn, retention, dep.Instrument), nil
	case StoreDriverDynamoDB:
		if dep.DynamoConn == nil {
			return nil, fmt.Errorf("verification: store driver %q needs a dynamodb client", driver)
		}
		return dynamo.New(dep.DynamoConn, dynamo.Config{
			Table:     dep.Config.GetString("modules.verification.store.dynamodb.table"),
			Retention: retention,
		}, dep.Clock, dep.Instrument), nil
	default:
		return nil, fmt.Errorf("verification: unknown store driver %q", driver)
	}
}
