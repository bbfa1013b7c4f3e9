package inbound

import (
	"context"

	"github.com/shandysiswandi/gostore/internal/identity/usecase"
	"github.com/shandysiswandi/gostore/internal/pkg/router"
)

type uc interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error)
	RegisterVerify(ctx context.Context, in usecase.RegisterVerifyInput) (*usecase.CompleteRegistrationOutput, error)

	PasswordForgot(ctx context.Context, in usecase.PasswordForgotInput) (*usecase.PasswordForgotOutput, error)
	PasswordReset(ctx context.Context, in usecase.PasswordResetInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}
	limit := r.RateLimit()

	// Registration
	r.POST("/api/v1/identity/register", end.Register, limit)
	r.POST("/api/v1/identity/register/verify", end.RegisterVerify, limit)

	// Password Management
	r.POST("/api/v1/identity/password/forgot", end.PasswordForgot, limit)
	r.POST("/api/v1/identity/password/reset", end.PasswordReset, limit)
}
