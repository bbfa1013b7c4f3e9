package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/shandysiswandi/gostore/internal/commerce/entity"
	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
	"github.com/shandysiswandi/gostore/internal/pkg/rbac"
)

// GetMyCart returns the cart of the authenticated caller.
func (s *Usecase) GetMyCart(ctx context.Context) (*entity.Cart, error) {
	ctx, span := s.startSpan(ctx, "GetMyCart")
	defer span.End()

	clm, err := rbac.Authorize(ctx, s.enforcer, "cart", "read")
	if err != nil {
		return nil, err
	}

	userID, err := strconv.ParseInt(clm.Subject, 10, 64)
	if err != nil {
		return nil, goerror.NewBusiness("Invalid or expired token", goerror.CodeUnauthorized)
	}

	cart, err := s.repoDB.GetCartByUserID(ctx, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("Cart not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get cart by user id", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return cart, nil
}
