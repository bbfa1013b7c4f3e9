package usecase

import (
	"strings"

	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
	"github.com/shandysiswandi/gostore/internal/verification/entity"
)

type emailContact struct {
	Contact string `validate:"required,email,max=254"`
}

type phoneContact struct {
	Contact string `validate:"required,phone"`
}

// NormalizeContact returns the form a contact is stored under.
func NormalizeContact(contact string, ch entity.Channel) string {
	contact = strings.TrimSpace(contact)
	if ch == entity.ChannelEmail {
		return strings.ToLower(contact)
	}
	return contact
}

func (s *Usecase) validateContact(contact string, ch entity.Channel) error {
	var err error
	switch ch {
	case entity.ChannelEmail:
		err = s.validator.Validate(emailContact{Contact: contact})
	case entity.ChannelSMS:
		err = s.validator.Validate(phoneContact{Contact: contact})
	default:
		return goerror.NewInvalidInput(nil, "channel", "channel must be one of [email sms]")
	}
	if err != nil {
		return goerror.NewInvalidInput(err)
	}
	return nil
}
