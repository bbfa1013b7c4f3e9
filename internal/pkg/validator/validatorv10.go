package validator

import (
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shandysiswandi/gostore/internal/pkg/strcase"
)

var (
	rePassword = regexp.MustCompile(`^.{8,72}$`)
	rePhone    = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)
	reDigits   = regexp.MustCompile(`^[0-9]{4,10}$`)
)

// ErrTranslatorNotFound indicates the requested translator is unavailable.
var ErrTranslatorNotFound = errors.New("validator: translator not found")

// V10ValidationError maps snake_case field names to translated messages.
type V10ValidationError map[string]string

func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}
	b, _ := json.Marshal(map[string]string(vs))
	return string(b)
}

func (vs V10ValidationError) Values() map[string]string {
	return vs
}

type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// NewV10Validator registers the English translations plus the password,
// phone and otp_code rules.
func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	enLang := en.New()
	enTrans, ok := ut.New(enLang, enLang).GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}

	if err := enTranslations.RegisterDefaultTranslations(validate, enTrans); err != nil {
		return nil, err
	}

	rules := []struct {
		tag string
		re  *regexp.Regexp
		msg string
	}{
		{"password", rePassword, "{0} must be 8-72 characters"},
		{"phone", rePhone, "{0} must be an E.164 phone number"},
		{"otp_code", reDigits, "{0} must contain only digits"},
	}
	for _, r := range rules {
		if err := registerRegexp(validate, enTrans, r.tag, r.re, r.msg); err != nil {
			return nil, err
		}
	}

	return &V10Validator{validate: validate, translator: enTrans}, nil
}

func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(V10ValidationError, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[strcase.ToLowerSnake(fe.Field())] = fe.Translate(v.translator)
	}
	return out
}

func registerRegexp(validate *validator.Validate, trans ut.Translator, tag string, re *regexp.Regexp, msg string) error {
	err := validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && re.MatchString(s)
	})
	if err != nil {
		return err
	}

	return validate.RegisterTranslation(tag, trans,
		func(t ut.Translator) error {
			return t.Add(tag, msg, false)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			s, err := t.T(fe.Tag(), fe.Field())
			if err != nil {
				slog.Warn("validator: translation failed", "tag", fe.Tag(), "error", err)
				return fe.Error()
			}
			return s
		},
	)
}
