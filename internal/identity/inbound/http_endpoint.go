package inbound

import (
	"github.com/shandysiswandi/gostore/internal/identity/usecase"
	"github.com/shandysiswandi/gostore/internal/pkg/router"
)

// HTTPEndpoint exposes the public registration and password reset flows.
type HTTPEndpoint struct {
	uc uc
}

// Register sends a verification code to the email or phone chosen by
// channel.
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.Register(r.Context(), usecase.RegisterInput{
		Channel:  req.Channel,
		Email:    req.Email,
		Phone:    req.Phone,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return &RegisterResponse{ExpiresAt: out.ExpiresAt}, nil
}

// RegisterVerify creates the account once the code matches.
func (h *HTTPEndpoint) RegisterVerify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.RegisterVerify(r.Context(), usecase.RegisterVerifyInput{
		Channel: req.Channel,
		Contact: req.Contact,
		Code:    req.Code,
	})
	if err != nil {
		return nil, err
	}

	return &RegisterVerifyResponse{UserID: out.UserID}, nil
}

func (h *HTTPEndpoint) PasswordForgot(r *router.Request) (any, error) {
	var req PasswordForgotRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.PasswordForgot(r.Context(), usecase.PasswordForgotInput{
		Channel:     req.Channel,
		Contact:     req.Contact,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return nil, err
	}

	return &PasswordForgotResponse{ExpiresAt: out.ExpiresAt}, nil
}

func (h *HTTPEndpoint) PasswordReset(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.PasswordReset(r.Context(), usecase.PasswordResetInput{
		Channel: req.Channel,
		Contact: req.Contact,
		Code:    req.Code,
	}); err != nil {
		return nil, err
	}

	return &PasswordResetResponse{}, nil
}
