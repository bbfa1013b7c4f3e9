package jwt

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/gostore/internal/pkg/clock"
)

type staticID string

func (s staticID) Generate() string { return string(s) }

func newSymmetric(t *testing.T, c *clock.Fixed) *Symmetric {
	t.Helper()
	s, err := NewHS512(Config{
		Secret:    []byte(strings.Repeat("k", 64)),
		Issuer:    "gostore",
		Audiences: []string{"gostore-admin"},
		TTL:       15 * time.Minute,
		Clock:     c,
		UUID:      staticID("jti-1"),
	})
	require.NoError(t, err)
	return s
}

func TestSymmetric_RoundTrip(t *testing.T) {
	c := clock.NewFixed(time.Now().Truncate(time.Second))
	s := newSymmetric(t, c)

	token, err := s.Generate(42, "admin@gostore.io")
	require.NoError(t, err)

	claims, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "jti-1", claims.ID)

	ctx := SetAuth(context.Background(), claims)
	assert.Equal(t, "admin@gostore.io", GetAuth(ctx).UserEmail)
	assert.Nil(t, GetAuth(context.Background()))
}

func TestSymmetric_Expired(t *testing.T) {
	c := clock.NewFixed(time.Now().Truncate(time.Second))
	s := newSymmetric(t, c)

	token, err := s.Generate(1, "a@b.com")
	require.NoError(t, err)

	c.Advance(16 * time.Minute)
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSymmetric_ForeignSecret(t *testing.T) {
	c := clock.NewFixed(time.Now())
	token, err := newSymmetric(t, c).Generate(1, "a@b.com")
	require.NoError(t, err)

	other, err := NewHS512(Config{Secret: []byte(strings.Repeat("x", 64)), Issuer: "gostore", Clock: c, UUID: staticID("j")})
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.Error(t, err)
}

func TestNewHS512_ShortSecret(t *testing.T) {
	_, err := NewHS512(Config{Secret: []byte("short")})
	assert.ErrorIs(t, err, ErrSigningKeyTooShort)
}
