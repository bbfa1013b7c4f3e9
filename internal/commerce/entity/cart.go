package entity

import "time"

// Cart is the shopping cart every customer owns exactly one of.
type Cart struct {
	ID        int64
	UserID    int64
	CreatedAt time.Time
}
