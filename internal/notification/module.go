package notification

import (
	"context"

	"github.com/shandysiswandi/gostore/internal/notification/inbound"
	"github.com/shandysiswandi/gostore/internal/notification/outbound/email"
	"github.com/shandysiswandi/gostore/internal/notification/outbound/sms"
	"github.com/shandysiswandi/gostore/internal/notification/usecase"
	"github.com/shandysiswandi/gostore/internal/pkg/clock"
	"github.com/shandysiswandi/gostore/internal/pkg/config"
	"github.com/shandysiswandi/gostore/internal/pkg/goroutine"
	"github.com/shandysiswandi/gostore/internal/pkg/idempotency"
	"github.com/shandysiswandi/gostore/internal/pkg/instrument"
	"github.com/shandysiswandi/gostore/internal/pkg/mail"
	"github.com/shandysiswandi/gostore/internal/pkg/messaging"
	pkgsms "github.com/shandysiswandi/gostore/internal/pkg/sms"
	"github.com/shandysiswandi/gostore/internal/pkg/validator"
)

type Dependency struct {
	Ctx         context.Context
	Messaging   messaging.Consumer
	Config      config.Config
	Instrument  instrument.Instrumentation
	Clock       clock.Clocker
	Goroutine   *goroutine.Manager
	Validator   validator.Validator
	Idempotency idempotency.Idempotency
	Mail        mail.Mail
	SMS         pkgsms.SMS
}

func New(dep Dependency) *usecase.Usecase {
	uc := usecase.NewNotification(usecase.Dependency{
		RepoMail:    email.New(dep.Mail, dep.Instrument),
		RepoSMS:     sms.New(dep.SMS, dep.Instrument),
		Idempotency: dep.Idempotency,
		Validator:   dep.Validator,
		Config:      dep.Config,
		Clock:       dep.Clock,
		Instrument:  dep.Instrument,
	})

	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, uc, dep.Instrument)
	}

	return uc
}
