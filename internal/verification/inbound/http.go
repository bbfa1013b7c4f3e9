package inbound

import (
	"context"

	"github.com/shandysiswandi/gostore/internal/pkg/router"
	"github.com/shandysiswandi/gostore/internal/verification/entity"
	"github.com/shandysiswandi/gostore/internal/verification/usecase"
)

type uc interface {
	GetContactRateLimit(ctx context.Context, in usecase.RateLimitInput) (*entity.RateLimit, error)
	ClearContactRateLimit(ctx context.Context, in usecase.RateLimitInput) error

	ConsumeUserRegistered(ctx context.Context, in usecase.ConsumeUserRegisteredInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Administration (need authenticated & authorization)
	r.GET("/api/v1/verification/rate-limits", end.RateLimitDetail)
	r.DELETE("/api/v1/verification/rate-limits", end.RateLimitClear)
}
