package entity

import "errors"

var (
	ErrUserStatusUnknown  = errors.New("identity: user status is unknown")
	ErrUserStatusBanned   = errors.New("identity: user status is banned")
	ErrUserStatusInactive = errors.New("identity: user status is inactive")
)

type UserStatus int16

const (
	// UserStatusUnknown is mean status is not known / not set.
	UserStatusUnknown UserStatus = 0

	// UserStatusActive mean user is verified and allowed to use the app.
	// Accounts are only written after their contact is verified, so this is
	// the status every new user starts with.
	UserStatusActive UserStatus = 2

	// UserStatusBanned mean user is blocked from using the app (policy/abuse/etc).
	UserStatusBanned UserStatus = 3

	// UserStatusInactive mean user is not currently active (e.g., deactivated, closed).
	UserStatusInactive UserStatus = 4
)

func (us UserStatus) String() string {
	switch us {
	case UserStatusActive:
		return "Active"
	case UserStatusBanned:
		return "Banned"
	case UserStatusInactive:
		return "Inactive"
	default:
		return "Unknown"
	}
}

func (us UserStatus) IsUnknown() bool {
	switch us {
	case UserStatusActive, UserStatusBanned, UserStatusInactive:
		return false
	default:
		return true
	}
}

// Err returns nil when the status allows the user to act on the account.
func (us UserStatus) Err() error {
	switch us {
	case UserStatusActive:
		return nil
	case UserStatusBanned:
		return ErrUserStatusBanned
	case UserStatusInactive:
		return ErrUserStatusInactive
	default:
		return ErrUserStatusUnknown
	}
}
