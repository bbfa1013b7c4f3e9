package inbound

import (
	"github.com/shandysiswandi/gostore/internal/pkg/router"
	"github.com/shandysiswandi/gostore/internal/verification/usecase"
)

type HTTPEndpoint struct {
	uc uc
}

// RateLimitDetail shows the issuance tracker of the contact in ?contact=.
func (h *HTTPEndpoint) RateLimitDetail(r *router.Request) (any, error) {
	rl, err := h.uc.GetContactRateLimit(r.Context(), usecase.RateLimitInput{
		Contact: r.GetQuery("contact"),
	})
	if err != nil {
		return nil, err
	}

	return RateLimitResponse{
		Contact:         rl.Contact,
		Count:           rl.Count,
		WindowStartedAt: rl.WindowStartedAt,
		LockedUntil:     rl.LockedUntil,
	}, nil
}

// RateLimitClear lets support unblock a contact before its window ends.
func (h *HTTPEndpoint) RateLimitClear(r *router.Request) (any, error) {
	if err := h.uc.ClearContactRateLimit(r.Context(), usecase.RateLimitInput{
		Contact: r.GetQuery("contact"),
	}); err != nil {
		return nil, err
	}

	return RateLimitClearResponse{}, nil
}
