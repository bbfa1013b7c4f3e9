package event

import "time"

const OTPRequestedDestination string = "identity.otp.requested"
const OTPRequestedConsumerNotification string = "identity.otp.requested.notification"

// OTPRequestedMessage asks the notification module to deliver a code. It is
// only published for contacts the code may be shown to.
type OTPRequestedMessage struct {
	EventID   string    `json:"event_id"`
	Contact   string    `json:"contact"`
	Channel   string    `json:"channel"`
	Purpose   string    `json:"purpose"`
	Code      string    `json:"code"`
	FullName  string    `json:"full_name"`
	ExpiresAt time.Time `json:"expires_at"`
}
