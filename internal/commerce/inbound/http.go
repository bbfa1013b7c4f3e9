package inbound

import (
	"context"

	"github.com/shandysiswandi/gostore/internal/commerce/entity"
	"github.com/shandysiswandi/gostore/internal/commerce/usecase"
	"github.com/shandysiswandi/gostore/internal/pkg/router"
)

type uc interface {
	GetMyCart(ctx context.Context) (*entity.Cart, error)

	ConsumeUserRegistered(ctx context.Context, in usecase.ConsumeUserRegisteredInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/api/v1/commerce/cart", end.MyCart)
}
