package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalPayload(t *testing.T) {
	t.Run("registration keeps its variant", func(t *testing.T) {
		in := RegistrationPayload{Email: "a@b.com", FullName: "Alice Doe", EncryptedPassword: "sealed"}
		raw, err := MarshalPayload(in)
		require.NoError(t, err)
		assert.JSONEq(t, `{"purpose":"registration","data":{"email":"a@b.com","phone":"","full_name":"Alice Doe","encrypted_password":"sealed"}}`, string(raw))

		out, err := UnmarshalPayload(raw)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("password reset keeps its variant", func(t *testing.T) {
		in := PasswordResetPayload{EncryptedPassword: "sealed", ResetToken: "tok"}
		raw, err := MarshalPayload(in)
		require.NoError(t, err)

		out, err := UnmarshalPayload(raw)
		require.NoError(t, err)
		assert.Equal(t, PurposePasswordReset, out.Purpose())
		assert.Equal(t, in, out)
	})

	t.Run("unknown purpose", func(t *testing.T) {
		_, err := UnmarshalPayload([]byte(`{"purpose":"login","data":{}}`))
		assert.ErrorIs(t, err, ErrPayloadMalformed)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := UnmarshalPayload([]byte(`nope`))
		assert.ErrorIs(t, err, ErrPayloadMalformed)
	})

	t.Run("nil payload", func(t *testing.T) {
		_, err := MarshalPayload(nil)
		assert.ErrorIs(t, err, ErrPayloadMalformed)
	})
}

func TestRecord_State(t *testing.T) {
	now := mustTime(t, "2026-01-02T10:00:00Z")
	rec := Record{ExpiresAt: now, MaxAttempts: 3, Attempts: 2}

	assert.True(t, rec.Expired(now))
	assert.False(t, rec.Expired(now.Add(-1)))
	assert.False(t, rec.Exhausted())

	rec.Attempts = 3
	assert.True(t, rec.Exhausted())
}

func TestParseChannel(t *testing.T) {
	c, err := ParseChannel("sms")
	require.NoError(t, err)
	assert.Equal(t, ChannelSMS, c)

	_, err = ParseChannel("whatsapp")
	assert.ErrorIs(t, err, ErrChannelUnknown)

	_, err = ParsePurpose("login")
	assert.ErrorIs(t, err, ErrPurposeUnknown)
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return tm
}
