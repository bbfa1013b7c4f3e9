package entity

import "errors"

var (
	ErrPurposeUnknown = errors.New("verification: purpose is unknown")
	ErrChannelUnknown = errors.New("verification: channel is unknown")
)

type Purpose string

const (
	// PurposeRegistration gates the creation of a new account.
	PurposeRegistration Purpose = "registration"

	// PurposePasswordReset gates replacing the password of an existing account.
	PurposePasswordReset Purpose = "password_reset"
)

func (p Purpose) String() string {
	return string(p)
}

func (p Purpose) IsUnknown() bool {
	switch p {
	case PurposeRegistration, PurposePasswordReset:
		return false
	default:
		return true
	}
}

func ParsePurpose(raw string) (Purpose, error) {
	p := Purpose(raw)
	if p.IsUnknown() {
		return "", ErrPurposeUnknown
	}
	return p, nil
}

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

func (c Channel) String() string {
	return string(c)
}

func (c Channel) IsUnknown() bool {
	switch c {
	case ChannelEmail, ChannelSMS:
		return false
	default:
		return true
	}
}

func ParseChannel(raw string) (Channel, error) {
	c := Channel(raw)
	if c.IsUnknown() {
		return "", ErrChannelUnknown
	}
	return c, nil
}
