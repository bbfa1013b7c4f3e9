package identity

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/gostore/internal/identity/inbound"
	"github.com/shandysiswandi/gostore/internal/identity/outbound/db"
	"github.com/shandysiswandi/gostore/internal/identity/outbound/mq"
	"github.com/shandysiswandi/gostore/internal/identity/usecase"
	"github.com/shandysiswandi/gostore/internal/pkg/clock"
	"github.com/shandysiswandi/gostore/internal/pkg/config"
	"github.com/shandysiswandi/gostore/internal/pkg/hash"
	"github.com/shandysiswandi/gostore/internal/pkg/instrument"
	"github.com/shandysiswandi/gostore/internal/pkg/messaging"
	"github.com/shandysiswandi/gostore/internal/pkg/rbac"
	"github.com/shandysiswandi/gostore/internal/pkg/router"
	"github.com/shandysiswandi/gostore/internal/pkg/secretbox"
	"github.com/shandysiswandi/gostore/internal/pkg/uid"
	"github.com/shandysiswandi/gostore/internal/pkg/validator"
	vusecase "github.com/shandysiswandi/gostore/internal/verification/usecase"
)

type Dependency struct {
	DBConn       *pgxpool.Pool              `validate:"required"`
	RBACAdapter  *rbac.Adapter              `validate:"required"`
	Verification *vusecase.Usecase          `validate:"required"`
	Router       *router.Router             `validate:"required"`
	Messaging    messaging.Publisher        `validate:"required"`
	SecretBox    secretbox.Box              `validate:"required"`
	Config       config.Config              `validate:"required"`
	Instrument   instrument.Instrumentation `validate:"required"`
	UID          uid.NumberID               `validate:"required"`
	UUID         uid.StringID               `validate:"required"`
	OID          uid.StringID               `validate:"required"`
	HMAC         hash.Hash                  `validate:"required"`
	Bcrypt       hash.Hash                  `validate:"required"`
	Argon2ID     hash.Hash                  `validate:"required"`
	Clock        clock.Clocker              `validate:"required"`
	Validator    validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	password := dep.Argon2ID
	if dep.Config.GetString("modules.identity.password_hasher") == "bcrypt" {
		password = dep.Bcrypt
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:        db.NewDB(dep.DBConn, dep.Instrument),
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Roles:         dep.RBACAdapter,
		Verifier:      dep.Verification,
		Box:           dep.SecretBox,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Password:      password,
		HMAC:          dep.HMAC,
		UID:           dep.UID,
		UUID:          dep.UUID,
		OID:           dep.OID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
