package entity

import (
	"strings"
)

type Channel int16

const (
	ChannelUnknown Channel = 0
	ChannelEmail   Channel = 2
	ChannelSMS     Channel = 3
)

func ChannelFromString(raw string) Channel {
	switch strings.TrimSpace(raw) {
	case "email":
		return ChannelEmail
	case "sms":
		return ChannelSMS
	default:
		return ChannelUnknown
	}
}

func (c Channel) String() string {
	switch c {
	case ChannelEmail:
		return "email"
	case ChannelSMS:
		return "sms"
	default:
		return "unknown"
	}
}

type DeliveryStatus int16

const (
	DeliveryStatusUnknown DeliveryStatus = 0
	DeliveryStatusSent    DeliveryStatus = 3
	DeliveryStatusFailed  DeliveryStatus = 4
	// DeliveryStatusSkipped means the recipient has no address for the channel
	// or no template exists for it.
	DeliveryStatusSkipped DeliveryStatus = 5
)

func (s DeliveryStatus) String() string {
	switch s {
	case DeliveryStatusSent:
		return "sent"
	case DeliveryStatusFailed:
		return "failed"
	case DeliveryStatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

type TriggerKey string

const (
	TriggerKeyOTPRegistration  TriggerKey = "otp_registration"
	TriggerKeyOTPPasswordReset TriggerKey = "otp_password_reset"
	TriggerKeyUserWelcome      TriggerKey = "user_welcome"
	TriggerKeyPasswordChanged  TriggerKey = "password_changed"
)

func (tk TriggerKey) String() string {
	return string(tk)
}

// TriggerKeyForPurpose maps an OTP purpose name to the template announcing
// the code.
func TriggerKeyForPurpose(purpose string) (TriggerKey, bool) {
	switch purpose {
	case "registration":
		return TriggerKeyOTPRegistration, true
	case "password_reset":
		return TriggerKeyOTPPasswordReset, true
	default:
		return "", false
	}
}
