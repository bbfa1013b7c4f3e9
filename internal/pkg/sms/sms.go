// Package sms sends transactional text messages.
package sms

import (
	"context"
	"errors"
)

var (
	ErrNoRecipient = errors.New("sms: recipient phone number is required")
	ErrEmptyBody   = errors.New("sms: message body is required")
)

// Message is a single text message to one E.164 phone number.
type Message struct {
	To   string
	Body string
}

type SMS interface {
	Send(ctx context.Context, msg Message) error
}
