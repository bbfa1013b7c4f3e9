package event

import "time"

const UserPasswordResetDestination string = "identity.user.password_reset"
const UserPasswordResetConsumerNotification string = "identity.user.password_reset.notification"

type UserPasswordResetMessage struct {
	EventID    string    `json:"event_id"`
	UserID     int64     `json:"user_id"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Channel    string    `json:"channel"`
	OccurredAt time.Time `json:"occurred_at"`
}
