package inbound

import "time"

type RateLimitResponse struct {
	Contact         string     `json:"contact"`
	Count           int        `json:"count"`
	WindowStartedAt time.Time  `json:"window_started_at"`
	LockedUntil     *time.Time `json:"locked_until,omitempty"`
}

type RateLimitClearResponse struct{}

func (RateLimitClearResponse) Message() string {
	return "Rate limit cleared."
}
