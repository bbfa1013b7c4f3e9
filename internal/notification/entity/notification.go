package entity

import (
	"errors"

	"github.com/shandysiswandi/gostore/internal/pkg/valueobject"
)

var (
	ErrNoAddress      = errors.New("notification: recipient has no address for channel")
	ErrNoTemplate     = errors.New("notification: no template for trigger and channel")
	ErrUnknownChannel = errors.New("notification: unknown channel")
)

// Recipient is who a notification is addressed to. Only the addresses the
// requested channels need have to be set.
type Recipient struct {
	UserID   int64
	Email    string
	Phone    string
	FullName string
}

// Address returns the recipient address used on ch.
func (r Recipient) Address(ch Channel) (string, error) {
	var addr string
	switch ch {
	case ChannelEmail:
		addr = r.Email
	case ChannelSMS:
		addr = r.Phone
	default:
		return "", ErrUnknownChannel
	}
	if addr == "" {
		return "", ErrNoAddress
	}
	return addr, nil
}

type Request struct {
	To           []Channel
	Template     TriggerKey
	TemplateData valueobject.JSONMap
}

// ChannelResult is the outcome of one channel of a Send.
type ChannelResult struct {
	Channel Channel
	Status  DeliveryStatus
	Err     error
}

// Delivered reports whether at least one channel was sent.
func Delivered(results []ChannelResult) bool {
	for _, r := range results {
		if r.Status == DeliveryStatusSent {
			return true
		}
	}
	return false
}

// JoinErrors collects the errors of failed channels.
func JoinErrors(results []ChannelResult) error {
	errs := make([]error, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}
