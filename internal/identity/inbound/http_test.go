package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/gostore/internal/identity/usecase"
	"github.com/shandysiswandi/gostore/internal/pkg/config"
	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
	"github.com/shandysiswandi/gostore/internal/pkg/instrument"
	"github.com/shandysiswandi/gostore/internal/pkg/jwt"
	"github.com/shandysiswandi/gostore/internal/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUsecase struct{ mock.Mock }

func (m *mockUsecase) Register(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*usecase.RegisterOutput)
	return out, args.Error(1)
}

func (m *mockUsecase) RegisterVerify(ctx context.Context, in usecase.RegisterVerifyInput) (*usecase.CompleteRegistrationOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*usecase.CompleteRegistrationOutput)
	return out, args.Error(1)
}

func (m *mockUsecase) PasswordForgot(ctx context.Context, in usecase.PasswordForgotInput) (*usecase.PasswordForgotOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*usecase.PasswordForgotOutput)
	return out, args.Error(1)
}

func (m *mockUsecase) PasswordReset(ctx context.Context, in usecase.PasswordResetInput) error {
	return m.Called(ctx, in).Error(0)
}

type noJWT struct{}

func (noJWT) Generate(int64, string) (string, error) { return "", nil }
func (noJWT) Verify(string) (jwt.Claims, error)      { return jwt.Claims{}, jwt.ErrInvalidToken }

type fixedID string

func (f fixedID) Generate() string { return string(f) }

func newRouter(t *testing.T, uc uc) *router.Router {
	t.Helper()
	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  server:\n    http:\n      rate_limit:\n        per_second: 100\n        burst: 100\n"))
	require.NoError(t, err)
	r := router.NewRouter(router.Config{Config: cfg, UUID: fixedID("cid"), JWT: noJWT{}, Instrument: instrument.NewNoop()})
	RegisterHTTPEndpoint(r, uc)
	return r
}

func post(r http.Handler, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestHTTPEndpoint_Register(t *testing.T) {
	m := &mockUsecase{}
	r := newRouter(t, m)
	exp := time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC)

	m.On("Register", mock.Anything, usecase.RegisterInput{
		Channel: "email", Email: "ann@gostore.io", FullName: "Ann Lee", Password: "longenough",
	}).Return(&usecase.RegisterOutput{ExpiresAt: exp}, nil).Once()

	rec, body := post(r, "/api/v1/identity/register",
		`{"channel":"email","email":"ann@gostore.io","full_name":"Ann Lee","password":"longenough"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"expires_at": "2026-03-01T09:05:00Z"}, body["data"])

	rec, _ = post(r, "/api/v1/identity/register", `{"channel":"email","unknown":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	m.AssertExpectations(t)
}

func TestHTTPEndpoint_RegisterVerify(t *testing.T) {
	m := &mockUsecase{}
	r := newRouter(t, m)

	m.On("RegisterVerify", mock.Anything, usecase.RegisterVerifyInput{Channel: "sms", Contact: "+6281234567890", Code: "123456"}).
		Return(&usecase.CompleteRegistrationOutput{UserID: 42}, nil).Once()
	m.On("RegisterVerify", mock.Anything, usecase.RegisterVerifyInput{Channel: "sms", Contact: "+6281234567890", Code: "000000"}).
		Return(nil, goerror.NewBusiness("invalid verification code", goerror.CodeInvalidInput)).Once()

	rec, body := post(r, "/api/v1/identity/register/verify", `{"channel":"sms","contact":"+6281234567890","code":"123456"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"user_id": "42"}, body["data"])

	rec, body = post(r, "/api/v1/identity/register/verify", `{"channel":"sms","contact":"+6281234567890","code":"000000"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "invalid verification code", body["message"])

	m.AssertExpectations(t)
}

func TestHTTPEndpoint_Password(t *testing.T) {
	m := &mockUsecase{}
	r := newRouter(t, m)

	m.On("PasswordForgot", mock.Anything, usecase.PasswordForgotInput{Channel: "email", Contact: "bob@gostore.io", NewPassword: "brandnewpw"}).
		Return(&usecase.PasswordForgotOutput{}, nil).Once()
	m.On("PasswordReset", mock.Anything, usecase.PasswordResetInput{Channel: "email", Contact: "bob@gostore.io", Code: "123456"}).
		Return(goerror.NewBusinessWithDetails("password reset failed", goerror.CodeInvalidInput,
			[]string{"reset token is invalid, expired or already used"})).Once()

	rec, body := post(r, "/api/v1/identity/password/forgot", `{"channel":"email","contact":"bob@gostore.io","new_password":"brandnewpw"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "If an account with that contact exists, we have sent a verification code.", body["message"])

	rec, body = post(r, "/api/v1/identity/password/reset", `{"channel":"email","contact":"bob@gostore.io","code":"123456"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []any{"reset token is invalid, expired or already used"}, body["details"])

	m.AssertExpectations(t)
}
