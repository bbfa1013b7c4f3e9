package uid

import "github.com/google/uuid"

// UUID generates time ordered UUID strings.
type UUID struct{}

func NewUUID() *UUID {
	return &UUID{}
}

func (u *UUID) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
