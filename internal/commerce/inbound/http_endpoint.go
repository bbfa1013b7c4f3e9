package inbound

import "github.com/shandysiswandi/gostore/internal/pkg/router"

type HTTPEndpoint struct {
	uc uc
}

func (h *HTTPEndpoint) MyCart(r *router.Request) (any, error) {
	cart, err := h.uc.GetMyCart(r.Context())
	if err != nil {
		return nil, err
	}

	return CartResponse{
		ID:        cart.ID,
		UserID:    cart.UserID,
		CreatedAt: cart.CreatedAt,
	}, nil
}
