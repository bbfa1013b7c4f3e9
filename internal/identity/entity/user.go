package entity

import "time"

type User struct {
	ID        int64
	Email     string
	Phone     string
	Password  string // hashed
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Profile struct {
	UserID   int64
	FullName string
}

type NewUser struct {
	ID       int64
	Email    string
	Phone    string
	Password string // hashed
	Status   UserStatus
}

// PasswordReset is a single-use grant to replace the password of UserID. Only
// the HMAC of the token is stored.
type PasswordReset struct {
	ID        int64
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
}
