package usecase

import (
	"context"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shandysiswandi/gostore/internal/notification/entity"
	"github.com/shandysiswandi/gostore/internal/pkg/mail"
	"github.com/shandysiswandi/gostore/internal/pkg/sms"
	"go.opentelemetry.io/otel/attribute"
)

// Send renders req.Template for each requested channel and delivers it to
// the matching address of to. Every channel gets one result, in request
// order, duplicates removed.
func (s *Usecase) Send(ctx context.Context, req entity.Request, to entity.Recipient) []entity.ChannelResult {
	ctx, span := s.startSpan(ctx, "Send")
	defer span.End()

	span.SetAttributes(attribute.String("notification.trigger_key", req.Template.String()))

	data := s.baseTemplateData().Merge(req.TemplateData)
	if data.GetString("full_name") == "" {
		data["full_name"] = to.FullName
	}

	channels := lo.Uniq(req.To)
	results := make([]entity.ChannelResult, 0, len(channels))

	tpl, ok := templates[req.Template]
	for _, ch := range channels {
		res := entity.ChannelResult{Channel: ch}

		addr, err := to.Address(ch)
		switch {
		case err != nil:
			res.Status, res.Err = entity.DeliveryStatusSkipped, err
		case !ok:
			res.Status, res.Err = entity.DeliveryStatusSkipped, entity.ErrNoTemplate
		default:
			res.Err = s.sendChannel(ctx, ch, addr, req.Template, tpl, data)
			res.Status = entity.DeliveryStatusSent
			if res.Err != nil {
				res.Status = entity.DeliveryStatusFailed
			}
		}

		if res.Status != entity.DeliveryStatusSent {
			slog.WarnContext(ctx, "notification channel not delivered",
				"trigger_key", req.Template.String(),
				"channel", ch.String(),
				"status", res.Status.String(),
				"user_id", to.UserID,
				"error", res.Err,
			)
		}
		results = append(results, res)
	}

	return results
}

func (s *Usecase) sendChannel(
	ctx context.Context,
	ch entity.Channel,
	addr string,
	tk entity.TriggerKey,
	tpl messageTemplate,
	data map[string]any,
) error {
	text, err := renderText(tk.String()+".text", tpl.Text, data)
	if err != nil {
		return err
	}

	switch ch {
	case entity.ChannelEmail:
		subject, err := renderText(tk.String()+".subject", tpl.Subject, data)
		if err != nil {
			return err
		}
		html, err := renderHTML(tk.String()+".html", tpl.HTML, data)
		if err != nil {
			return err
		}

		return s.repoMail.Send(ctx, mail.Message{
			To:       []string{addr},
			Subject:  subject,
			TextBody: text,
			HTMLBody: html,
		})
	case entity.ChannelSMS:
		return s.repoSMS.Send(ctx, sms.Message{To: addr, Body: text})
	default:
		return entity.ErrUnknownChannel
	}
}
