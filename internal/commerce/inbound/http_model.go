package inbound

import "time"

type CartResponse struct {
	ID        int64     `json:"id,string"`
	UserID    int64     `json:"user_id,string"`
	CreatedAt time.Time `json:"created_at"`
}
