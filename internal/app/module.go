package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/gostore/internal/commerce"
	"github.com/shandysiswandi/gostore/internal/identity"
	"github.com/shandysiswandi/gostore/internal/notification"
	"github.com/shandysiswandi/gostore/internal/verification"
)

// initModules wires verification first: identity issues and verifies codes
// through its usecase in-process.
func (a *App) initModules() {
	verifier, err := verification.New(verification.Dependency{
		Ctx:         a.ctx,
		CacheConn:   a.cacheConn,
		DynamoConn:  a.dynamoConn,
		Goroutine:   a.goroutine,
		Enforcer:    a.casbin,
		Router:      a.router,
		Idempotency: a.idemp,
		Messaging:   a.messaging,
		Config:      a.config,
		Instrument:  a.ins,
		OID:         a.oid,
		HMAC:        a.hmac,
		Clock:       a.clock,
		Validator:   a.validator,
	})
	if err != nil {
		slog.Error("failed to init module verification", "error", err)
		os.Exit(1)
	}

	if a.config.GetBool("modules.identity.enabled") {
		if err := identity.New(identity.Dependency{
			DBConn:       a.dbConn,
			RBACAdapter:  a.rbacAdapter,
			Verification: verifier,
			Router:       a.router,
			Messaging:    a.messaging,
			SecretBox:    a.secretbox,
			Config:       a.config,
			Instrument:   a.ins,
			UID:          a.uid,
			UUID:         a.uuid,
			OID:          a.oid,
			HMAC:         a.hmac,
			Bcrypt:       a.bcrypt,
			Argon2ID:     a.argon2id,
			Clock:        a.clock,
			Validator:    a.validator,
		}); err != nil {
			slog.Error("failed to init module identity", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.notification.enabled") {
		notification.New(notification.Dependency{
			Ctx:         a.ctx,
			Messaging:   a.messaging,
			Config:      a.config,
			Instrument:  a.ins,
			Clock:       a.clock,
			Goroutine:   a.goroutine,
			Validator:   a.validator,
			Idempotency: a.idemp,
			Mail:        a.mail,
			SMS:         a.sms,
		})
	}

	if a.config.GetBool("modules.commerce.enabled") {
		commerce.New(commerce.Dependency{
			Ctx:         a.ctx,
			DBConn:      a.dbConn,
			Messaging:   a.messaging,
			Idempotency: a.idemp,
			Enforcer:    a.casbin,
			Router:      a.router,
			Config:      a.config,
			Instrument:  a.ins,
			Goroutine:   a.goroutine,
			UID:         a.uid,
			Validator:   a.validator,
		})
	}
}
