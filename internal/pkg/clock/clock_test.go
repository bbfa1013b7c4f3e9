package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixed_Advance(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewFixed(start)

	assert.Equal(t, start, c.Now())
	c.Advance(61 * time.Minute)
	assert.Equal(t, start.Add(61*time.Minute), c.Now())
}

func TestTimeClocker_Now(t *testing.T) {
	before := time.Now()
	got := New().Now()
	assert.False(t, got.Before(before))
}
