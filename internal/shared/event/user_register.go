package event

import "time"

const UserRegisteredDestination string = "identity.user.registered"

const (
	UserRegisteredConsumerCommerce     string = "identity.user.registered.commerce"
	UserRegisteredConsumerNotification string = "identity.user.registered.notification"
	UserRegisteredConsumerVerification string = "identity.user.registered.verification"
)

// UserRegisteredMessage is published once the account row is committed.
// Contact is the address the registration was verified through.
type UserRegisteredMessage struct {
	EventID    string    `json:"event_id"`
	UserID     int64     `json:"user_id"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	FullName   string    `json:"full_name"`
	Contact    string    `json:"contact"`
	Channel    string    `json:"channel"`
	OccurredAt time.Time `json:"occurred_at"`
}
