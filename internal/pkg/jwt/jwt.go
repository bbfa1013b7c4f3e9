package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSigningMethod = errors.New("jwt: invalid signing method")
	ErrSigningKeyTooShort   = errors.New("jwt: HS512 signing key must be at least 64 bytes")
	ErrTokenExpired         = errors.New("jwt: token has expired")
	ErrInvalidToken         = errors.New("jwt: invalid token")
)

type JWT interface {
	Generate(uid int64, email string) (string, error)
	Verify(tokenStr string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type Config struct {
	Secret    []byte
	Issuer    string
	Audiences []string
	TTL       time.Duration
	Clock     clocker
	UUID      generator
}

// Claims are the registered claims plus the user identity. Subject holds the
// user ID in decimal and is what authorization policies are written against.
type Claims struct {
	jwt.RegisteredClaims
	UserID    int64  `json:"user_id,string"`
	UserEmail string `json:"user_email"`
}

type authKey struct{}

// GetAuth returns the claims stored by SetAuth, or nil.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(authKey{}).(Claims)
	if !ok {
		return nil
	}
	return &clm
}

func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, authKey{}, clm)
}
