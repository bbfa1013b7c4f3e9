package usecase

import (
	"context"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/shandysiswandi/gostore/internal/pkg/jwt"
)

func jwtContext(subject string) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{Subject: subject},
	})
}
