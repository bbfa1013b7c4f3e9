package inbound

import "time"

type RegisterRequest struct {
	Channel  string `json:"channel"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

func (RegisterResponse) Message() string {
	return "Registration started. Please enter the code we sent to verify your account."
}

// VerifyRequest submits a code for the contact it was sent to.
type VerifyRequest struct {
	Channel string `json:"channel"`
	Contact string `json:"contact"`
	Code    string `json:"code"`
}

type RegisterVerifyResponse struct {
	UserID int64 `json:"user_id,string"`
}

func (RegisterVerifyResponse) Message() string {
	return "Registration completed."
}

type PasswordForgotRequest struct {
	Channel     string `json:"channel"`
	Contact     string `json:"contact"`
	NewPassword string `json:"new_password"`
}

type PasswordForgotResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

func (PasswordForgotResponse) Message() string {
	return "If an account with that contact exists, we have sent a verification code."
}

type PasswordResetResponse struct{}

func (PasswordResetResponse) Message() string {
	return "Password has been reset."
}
