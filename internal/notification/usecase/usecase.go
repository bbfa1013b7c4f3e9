package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/gostore/internal/notification/entity"
	"github.com/shandysiswandi/gostore/internal/pkg/clock"
	"github.com/shandysiswandi/gostore/internal/pkg/config"
	"github.com/shandysiswandi/gostore/internal/pkg/idempotency"
	"github.com/shandysiswandi/gostore/internal/pkg/instrument"
	"github.com/shandysiswandi/gostore/internal/pkg/mail"
	"github.com/shandysiswandi/gostore/internal/pkg/sms"
	"github.com/shandysiswandi/gostore/internal/pkg/validator"
	"github.com/shandysiswandi/gostore/internal/pkg/valueobject"
	"go.opentelemetry.io/otel/trace"
)

var errNotDelivered = errors.New("notification: no channel delivered")

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

type repoSMS interface {
	Send(ctx context.Context, msg sms.Message) error
}

type Usecase struct {
	repoMail  repoMail
	repoSMS   repoSMS
	idemp     idempotency.Idempotency
	validator validator.Validator
	cfg       config.Config
	clock     clock.Clocker
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoMail    repoMail
	RepoSMS     repoSMS
	Idempotency idempotency.Idempotency
	Validator   validator.Validator
	Config      config.Config
	Clock       clock.Clocker
	Instrument  instrument.Instrumentation
}

func NewNotification(dep Dependency) *Usecase {
	return &Usecase{
		repoMail:  dep.RepoMail,
		repoSMS:   dep.RepoSMS,
		idemp:     dep.Idempotency,
		validator: dep.Validator,
		cfg:       dep.Config,
		clock:     dep.Clock,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

func (s *Usecase) baseTemplateData() valueobject.JSONMap {
	return valueobject.JSONMap{
		"app_name":      s.cfg.GetString("app.name"),
		"support_email": s.cfg.GetString("modules.notification.support_email"),
		"company_name":  s.cfg.GetString("modules.notification.company_name"),
		"year":          s.clock.Now().Format("2006"),
	}
}

// exec runs fn once per event key. Redeliveries of a completed event are
// acknowledged without running fn again.
func (s *Usecase) exec(ctx context.Context, key string, fn func(context.Context) error) error {
	err := s.idemp.Exec(ctx, "notification:"+key, fn)
	if errors.Is(err, idempotency.ErrAlreadyCompleted) {
		slog.InfoContext(ctx, "event already handled", "key", key)
		return nil
	}

	return err
}

// deliver sends req and fails only when no channel went out, so the broker
// redelivers the event.
func (s *Usecase) deliver(ctx context.Context, req entity.Request, to entity.Recipient) error {
	if len(req.To) == 0 {
		slog.WarnContext(ctx, "recipient has no address to notify", "trigger_key", req.Template.String(), "user_id", to.UserID)
		return nil
	}

	results := s.Send(ctx, req, to)
	if entity.Delivered(results) {
		return nil
	}

	err := errors.Join(errNotDelivered, entity.JoinErrors(results))
	slog.ErrorContext(ctx, "failed to deliver notification", "trigger_key", req.Template.String(), "user_id", to.UserID, "error", err)
	return err
}
