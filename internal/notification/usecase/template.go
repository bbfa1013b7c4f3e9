package usecase

import (
	"bytes"
	htmltemplate "html/template"
	"text/template"

	"github.com/shandysiswandi/gostore/internal/notification/entity"
)

type messageTemplate struct {
	Subject string
	HTML    string
	// Text is the SMS body and the plain-text part of the email.
	Text string
}

var templates = map[entity.TriggerKey]messageTemplate{
	entity.TriggerKeyOTPRegistration: {
		Subject: "Your {{.app_name}} verification code",
		HTML: `<p>Hi {{.full_name}},</p>
<p>Use <strong>{{.code}}</strong> to finish creating your {{.app_name}} account. The code expires in {{.expires_in_minutes}} minutes.</p>
<p>If you did not sign up, ignore this message.</p>
<p>{{.company_name}} &middot; {{.support_email}} &middot; {{.year}}</p>`,
		Text: "{{.app_name}}: your verification code is {{.code}}. It expires in {{.expires_in_minutes}} minutes.",
	},
	entity.TriggerKeyOTPPasswordReset: {
		Subject: "Reset your {{.app_name}} password",
		HTML: `<p>Hi {{.full_name}},</p>
<p>Use <strong>{{.code}}</strong> to confirm your new password. The code expires in {{.expires_in_minutes}} minutes.</p>
<p>If you did not ask for a reset, your password stays unchanged.</p>
<p>{{.company_name}} &middot; {{.support_email}} &middot; {{.year}}</p>`,
		Text: "{{.app_name}}: your password reset code is {{.code}}. It expires in {{.expires_in_minutes}} minutes.",
	},
	entity.TriggerKeyUserWelcome: {
		Subject: "Welcome to {{.app_name}}",
		HTML: `<p>Hi {{.full_name}},</p>
<p>Your {{.app_name}} account is ready. Happy shopping!</p>
<p>{{.company_name}} &middot; {{.support_email}} &middot; {{.year}}</p>`,
		Text: "Welcome to {{.app_name}}, {{.full_name}}! Your account is ready.",
	},
	entity.TriggerKeyPasswordChanged: {
		Subject: "Your {{.app_name}} password was changed",
		HTML: `<p>Hi {{.full_name}},</p>
<p>The password of your {{.app_name}} account was changed on {{.occurred_at}}.</p>
<p>If this was not you, contact {{.support_email}} right away.</p>
<p>{{.company_name}} &middot; {{.year}}</p>`,
		Text: "{{.app_name}}: your password was changed. Not you? Contact {{.support_email}}.",
	},
}

func renderHTML(name, tpl string, data map[string]any) (string, error) {
	t, err := htmltemplate.New(name).Option("missingkey=zero").Parse(tpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func renderText(name, tpl string, data map[string]any) (string, error) {
	t, err := template.New(name).Option("missingkey=zero").Parse(tpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
