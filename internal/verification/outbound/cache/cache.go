package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
	"github.com/shandysiswandi/gostore/internal/pkg/instrument"
	"github.com/shandysiswandi/gostore/internal/verification/entity"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var errUnexpectedReply = errors.New("cache: unexpected script reply")

// Cache stores records as hashes under otp:{contact}:record:{purpose} and the
// tracker under otp:{contact}:rate. The braces keep every key of a contact in
// one cluster slot so the scripts may touch both.
type Cache struct {
	client    redis.Cmdable
	retention time.Duration
	ins       instrument.Instrumentation
}

// New returns a store that keeps a record for retention past its expiry so
// verify can still tell an expired code from one never issued.
func New(client redis.Cmdable, retention time.Duration, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, retention: retention, ins: ins}
}

func recordKey(contact string, purpose entity.Purpose) string {
	return "otp:{" + contact + "}:record:" + purpose.String()
}

func rateKey(contact string) string {
	return "otp:{" + contact + "}:rate"
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("verification.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, entity.ErrRateLimited) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (c *Cache) Save(ctx context.Context, rec entity.Record, rule entity.RateLimitRule) (err error) {
	ctx, span := c.startSpan(ctx, "Save")
	defer func() { c.endSpan(span, err) }()

	payload, err := entity.MarshalPayload(rec.Payload)
	if err != nil {
		return err
	}

	ttl := rec.ExpiresAt.Sub(rec.IssuedAt) + c.retention
	args := []any{
		rec.IssuedAt.UnixMilli(),
		rule.Threshold,
		rule.Window.Milliseconds(),
		max(ttl.Milliseconds(), 1),
		"id", rec.ID,
		"contact", rec.Contact,
		"purpose", rec.Purpose.String(),
		"channel", rec.Channel.String(),
		"code_hash", rec.CodeHash,
		"payload", string(payload),
		"issued_at", rec.IssuedAt.UnixMilli(),
		"expires_at", rec.ExpiresAt.UnixMilli(),
		"attempts", rec.Attempts,
		"max_attempts", rec.MaxAttempts,
	}

	res, err := saveScript.Run(ctx, c.client, []string{rateKey(rec.Contact), recordKey(rec.Contact, rec.Purpose)}, args...).Int64Slice()
	if err != nil {
		return err
	}
	if len(res) != 2 {
		return errUnexpectedReply
	}
	if res[0] == 0 {
		return entity.ErrRateLimited
	}

	return nil
}

func (c *Cache) Find(ctx context.Context, contact string, purpose entity.Purpose) (_ *entity.Record, err error) {
	ctx, span := c.startSpan(ctx, "Find")
	defer func() { c.endSpan(span, err) }()

	fields, err := c.client.HGetAll(ctx, recordKey(contact, purpose)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, goerror.ErrNotFound
	}

	return parseRecord(fields)
}

func (c *Cache) IncrementAttempts(ctx context.Context, contact string, purpose entity.Purpose, id string) (_ int, err error) {
	ctx, span := c.startSpan(ctx, "IncrementAttempts")
	defer func() { c.endSpan(span, err) }()

	n, err := incrAttemptsScript.Run(ctx, c.client, []string{recordKey(contact, purpose)}, id).Int()
	if err != nil {
		return 0, err
	}

	switch n {
	case -1:
		return 0, goerror.ErrNotFound
	case -2:
		return 0, entity.ErrRecordReplaced
	default:
		return n, nil
	}
}

func (c *Cache) Delete(ctx context.Context, contact string, purpose entity.Purpose, id string) (err error) {
	ctx, span := c.startSpan(ctx, "Delete")
	defer func() { c.endSpan(span, err) }()

	return deleteScript.Run(ctx, c.client, []string{recordKey(contact, purpose)}, id).Err()
}

func (c *Cache) GetRateLimit(ctx context.Context, contact string) (_ *entity.RateLimit, err error) {
	ctx, span := c.startSpan(ctx, "GetRateLimit")
	defer func() { c.endSpan(span, err) }()

	fields, err := c.client.HGetAll(ctx, rateKey(contact)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, goerror.ErrNotFound
	}

	count, err := strconv.Atoi(fields["count"])
	if err != nil {
		return nil, fmt.Errorf("cache: rate count: %w", err)
	}
	started, err := strconv.ParseInt(fields["window_started_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cache: rate window: %w", err)
	}

	rl := &entity.RateLimit{
		Contact:         contact,
		Count:           count,
		WindowStartedAt: time.UnixMilli(started).UTC(),
	}
	if raw, ok := fields["locked_until"]; ok {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cache: rate lock: %w", err)
		}
		lu := time.UnixMilli(ms).UTC()
		rl.LockedUntil = &lu
	}

	return rl, nil
}

func (c *Cache) ClearRateLimit(ctx context.Context, contact string) (err error) {
	ctx, span := c.startSpan(ctx, "ClearRateLimit")
	defer func() { c.endSpan(span, err) }()

	return c.client.Del(ctx, rateKey(contact)).Err()
}

func parseRecord(f map[string]string) (*entity.Record, error) {
	ints := make(map[string]int64, 4)
	for _, k := range []string{"issued_at", "expires_at", "attempts", "max_attempts"} {
		n, err := strconv.ParseInt(f[k], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cache: record field %s: %w", k, err)
		}
		ints[k] = n
	}

	payload, err := entity.UnmarshalPayload([]byte(f["payload"]))
	if err != nil {
		return nil, err
	}

	return &entity.Record{
		ID:          f["id"],
		Contact:     f["contact"],
		Purpose:     entity.Purpose(f["purpose"]),
		Channel:     entity.Channel(f["channel"]),
		CodeHash:    f["code_hash"],
		Payload:     payload,
		IssuedAt:    time.UnixMilli(ints["issued_at"]).UTC(),
		ExpiresAt:   time.UnixMilli(ints["expires_at"]).UTC(),
		Attempts:    int(ints["attempts"]),
		MaxAttempts: int(ints["max_attempts"]),
	}, nil
}
