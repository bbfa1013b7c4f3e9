package entity

import (
	"errors"
	"time"
)

var (
	// ErrRateLimited is returned by a store when the contact's tracker refuses
	// another issuance.
	ErrRateLimited = errors.New("verification: rate limit exceeded")

	// ErrRecordReplaced is returned when a guarded write finds a record with a
	// different ID, meaning a newer issuance won the race.
	ErrRecordReplaced = errors.New("verification: record was replaced")
)

// Record is the single live code for a (contact, purpose) pair.
type Record struct {
	ID          string
	Contact     string
	Purpose     Purpose
	Channel     Channel
	CodeHash    string
	Payload     Payload
	IssuedAt    time.Time
	ExpiresAt   time.Time
	Attempts    int
	MaxAttempts int
}

// Expired reports whether the record can no longer be verified at now.
func (r *Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Exhausted reports whether every allowed attempt was used.
func (r *Record) Exhausted() bool {
	return r.MaxAttempts > 0 && r.Attempts >= r.MaxAttempts
}

// RateLimit is the issuance tracker of one contact.
type RateLimit struct {
	Contact         string
	Count           int
	WindowStartedAt time.Time
	LockedUntil     *time.Time
}

// Locked reports whether issuance is refused at now.
func (r *RateLimit) Locked(now time.Time) bool {
	return r.LockedUntil != nil && now.Before(*r.LockedUntil)
}

// RateLimitRule admits Threshold issuances per contact within Window.
type RateLimitRule struct {
	Threshold int
	Window    time.Duration
}
