package dynamo

import (
	"time"

	"github.com/shandysiswandi/gostore/internal/verification/entity"
)

type recordItem struct {
	Contact     string `dynamodbav:"contact"`
	SK          string `dynamodbav:"sk"`
	ID          string `dynamodbav:"id"`
	Purpose     string `dynamodbav:"purpose"`
	Channel     string `dynamodbav:"channel"`
	CodeHash    string `dynamodbav:"code_hash"`
	Payload     string `dynamodbav:"payload"`
	IssuedAt    int64  `dynamodbav:"issued_at"`
	ExpiresAt   int64  `dynamodbav:"expires_at"`
	Attempts    int    `dynamodbav:"attempts"`
	MaxAttempts int    `dynamodbav:"max_attempts"`
	TTL         int64  `dynamodbav:"ttl"`
}

func (it recordItem) toEntity() (*entity.Record, error) {
	payload, err := entity.UnmarshalPayload([]byte(it.Payload))
	if err != nil {
		return nil, err
	}

	return &entity.Record{
		ID:          it.ID,
		Contact:     it.Contact,
		Purpose:     entity.Purpose(it.Purpose),
		Channel:     entity.Channel(it.Channel),
		CodeHash:    it.CodeHash,
		Payload:     payload,
		IssuedAt:    time.UnixMilli(it.IssuedAt).UTC(),
		ExpiresAt:   time.UnixMilli(it.ExpiresAt).UTC(),
		Attempts:    it.Attempts,
		MaxAttempts: it.MaxAttempts,
	}, nil
}

// rateItem carries a version so the tracker can be updated optimistically.
type rateItem struct {
	Contact         string `dynamodbav:"contact"`
	SK              string `dynamodbav:"sk"`
	Count           int    `dynamodbav:"count"`
	WindowStartedAt int64  `dynamodbav:"window_started_at"`
	LockedUntil     int64  `dynamodbav:"locked_until,omitempty"`
	Version         int64  `dynamodbav:"version"`
	TTL             int64  `dynamodbav:"ttl"`
}

func (it rateItem) toEntity() *entity.RateLimit {
	rl := &entity.RateLimit{
		Contact:         it.Contact,
		Count:           it.Count,
		WindowStartedAt: time.UnixMilli(it.WindowStartedAt).UTC(),
	}
	if it.LockedUntil > 0 {
		lu := time.UnixMilli(it.LockedUntil).UTC()
		rl.LockedUntil = &lu
	}
	return rl
}

// nextRate returns the tracker after one more issuance at now, and whether
// that issuance is admitted. cur is nil when no tracker exists.
func nextRate(cur *rateItem, contact string, now time.Time, rule entity.RateLimitRule) (rateItem, bool) {
	nowMs := now.UnixMilli()
	windowMs := rule.Window.Milliseconds()

	next := rateItem{Contact: contact, SK: skRate}
	if cur != nil {
		next = *cur
		if next.LockedUntil > nowMs {
			return next, false
		}
	}

	if cur == nil || nowMs-next.WindowStartedAt >= windowMs {
		next.WindowStartedAt = nowMs
		next.Count = 0
		next.LockedUntil = 0
	}

	end := next.WindowStartedAt + windowMs
	next.TTL = time.UnixMilli(end).Unix() + 1

	if next.Count >= rule.Threshold {
		next.LockedUntil = end
		return next, false
	}

	next.Count++
	if next.Count >= rule.Threshold {
		next.LockedUntil = end
	}
	return next, true
}
