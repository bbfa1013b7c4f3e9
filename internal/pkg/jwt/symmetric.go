package jwt

import (
	"errors"
	"strconv"

	libJWT "github.com/golang-jwt/jwt/v5"
)

// Symmetric signs and verifies HS512 tokens.
type Symmetric struct {
	cfg Config
}

func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < 64 {
		return nil, ErrSigningKeyTooShort
	}
	return &Symmetric{cfg: cfg}, nil
}

func (s *Symmetric) Generate(uid int64, email string) (string, error) {
	now := s.cfg.Clock.Now()
	claims := Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        s.cfg.UUID.Generate(),
			Subject:   strconv.FormatInt(uid, 10),
			Issuer:    s.cfg.Issuer,
			Audience:  s.cfg.Audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(s.cfg.TTL)),
		},
		UserID:    uid,
		UserEmail: email,
	}

	return libJWT.NewWithClaims(libJWT.SigningMethodHS512, claims).SignedString(s.cfg.Secret)
}

func (s *Symmetric) Verify(tokenStr string) (Claims, error) {
	var claims Claims

	opts := []libJWT.ParserOption{
		libJWT.WithIssuer(s.cfg.Issuer),
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
		libJWT.WithTimeFunc(s.cfg.Clock.Now),
	}
	if len(s.cfg.Audiences) > 0 {
		opts = append(opts, libJWT.WithAudience(s.cfg.Audiences...))
	}

	token, err := libJWT.ParseWithClaims(tokenStr, &claims, func(t *libJWT.Token) (any, error) {
		if t.Method != libJWT.SigningMethodHS512 {
			return nil, ErrInvalidSigningMethod
		}
		return s.cfg.Secret, nil
	}, opts...)
	if errors.Is(err, libJWT.ErrTokenExpired) {
		return Claims{}, ErrTokenExpired
	}
	if err != nil {
		return Claims{}, err
	}
	if !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
