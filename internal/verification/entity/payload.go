package entity

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrPayloadMalformed = errors.New("verification: payload is malformed")

// Payload is the business data released by a successful verification. The
// set of implementations is closed: RegistrationPayload and
// PasswordResetPayload.
type Payload interface {
	Purpose() Purpose
	isPayload()
}

// RegistrationPayload is a pending account. The password is sealed with
// secretbox under the contact and PurposeRegistration.
type RegistrationPayload struct {
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	FullName          string `json:"full_name"`
	EncryptedPassword string `json:"encrypted_password"`
}

func (RegistrationPayload) Purpose() Purpose { return PurposeRegistration }
func (RegistrationPayload) isPayload()       {}

// PasswordResetPayload is a pending credential change. ResetToken is the
// plaintext token whose hash the identity layer stored for the account.
type PasswordResetPayload struct {
	EncryptedPassword string `json:"encrypted_password"`
	ResetToken        string `json:"reset_token"`
}

func (PasswordResetPayload) Purpose() Purpose { return PurposePasswordReset }
func (PasswordResetPayload) isPayload()       {}

type payloadEnvelope struct {
	Purpose Purpose         `json:"purpose"`
	Data    json.RawMessage `json:"data"`
}

// MarshalPayload encodes p with its purpose as the discriminant.
func MarshalPayload(p Payload) ([]byte, error) {
	if p == nil {
		return nil, ErrPayloadMalformed
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	return json.Marshal(payloadEnvelope{Purpose: p.Purpose(), Data: data})
}

func UnmarshalPayload(raw []byte) (Payload, error) {
	var env payloadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPayloadMalformed, err)
	}

	switch env.Purpose {
	case PurposeRegistration:
		var p RegistrationPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPayloadMalformed, err)
		}
		return p, nil

	case PurposePasswordReset:
		var p PasswordResetPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPayloadMalformed, err)
		}
		return p, nil

	default:
		return nil, fmt.Errorf("%w: purpose %q", ErrPayloadMalformed, env.Purpose)
	}
}
