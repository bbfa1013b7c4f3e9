package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/shandysiswandi/gostore/internal/commerce/entity"
	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
	"github.com/shandysiswandi/gostore/internal/pkg/idempotency"
	"github.com/shandysiswandi/gostore/internal/pkg/instrument"
	"github.com/shandysiswandi/gostore/internal/pkg/jwt"
	"github.com/shandysiswandi/gostore/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepoDB struct{ mock.Mock }

func (m *mockRepoDB) CreateCart(ctx context.Context, cart entity.Cart) (bool, error) {
	args := m.Called(ctx, cart)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepoDB) GetCartByUserID(ctx context.Context, userID int64) (*entity.Cart, error) {
	args := m.Called(ctx, userID)
	cart, _ := args.Get(0).(*entity.Cart)
	return cart, args.Error(1)
}

type fixedNumber int64

func (n fixedNumber) Generate() int64 { return int64(n) }

type stubEnforcer struct{ allow bool }

func (s stubEnforcer) Enforce(...any) (bool, error) { return s.allow, nil }

// memIdempotency runs each key once.
type memIdempotency struct {
	idempotency.Idempotency
	done map[string]bool
}

func (m *memIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	if m.done[key] {
		return idempotency.ErrAlreadyCompleted
	}
	if err := fn(ctx); err != nil {
		return err
	}
	m.done[key] = true
	return nil
}

func newUsecase(t *testing.T, repo *mockRepoDB, allow bool) (*Usecase, *memIdempotency) {
	t.Helper()

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	idemp := &memIdempotency{done: map[string]bool{}}
	return New(Dependency{
		RepoDB:      repo,
		Idempotency: idemp,
		Enforcer:    stubEnforcer{allow: allow},
		UID:         fixedNumber(500),
		Validator:   v,
		Instrument:  instrument.NewNoop(),
	}), idemp
}

func authContext(subject string) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{Subject: subject},
	})
}

func TestUsecase_ConsumeUserRegistered(t *testing.T) {
	t.Run("creates once", func(t *testing.T) {
		repo := &mockRepoDB{}
		uc, idemp := newUsecase(t, repo, true)
		repo.On("CreateCart", mock.Anything, entity.Cart{ID: 500, UserID: 42}).Return(true, nil).Once()

		in := ConsumeUserRegisteredInput{EventID: "evt-1", UserID: 42}
		require.NoError(t, uc.ConsumeUserRegistered(context.Background(), in))
		require.NoError(t, uc.ConsumeUserRegistered(context.Background(), in))
		assert.True(t, idemp.done["commerce:user_registered:evt-1"])
		repo.AssertExpectations(t)
	})

	t.Run("existing cart is kept", func(t *testing.T) {
		repo := &mockRepoDB{}
		uc, _ := newUsecase(t, repo, true)
		repo.On("CreateCart", mock.Anything, mock.Anything).Return(false, nil).Once()

		require.NoError(t, uc.ConsumeUserRegistered(context.Background(), ConsumeUserRegisteredInput{EventID: "evt-2", UserID: 42}))
	})

	t.Run("store failure is redelivered", func(t *testing.T) {
		repo := &mockRepoDB{}
		uc, idemp := newUsecase(t, repo, true)
		boom := errors.New("db down")
		repo.On("CreateCart", mock.Anything, mock.Anything).Return(false, boom).Once()

		err := uc.ConsumeUserRegistered(context.Background(), ConsumeUserRegisteredInput{EventID: "evt-3", UserID: 42})
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, idemp.done)
	})

	t.Run("invalid event is dropped", func(t *testing.T) {
		repo := &mockRepoDB{}
		uc, _ := newUsecase(t, repo, true)

		require.NoError(t, uc.ConsumeUserRegistered(context.Background(), ConsumeUserRegisteredInput{EventID: "evt-4"}))
		repo.AssertNotCalled(t, "CreateCart", mock.Anything, mock.Anything)
	})
}

func TestUsecase_GetMyCart(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo := &mockRepoDB{}
		uc, _ := newUsecase(t, repo, true)
		want := &entity.Cart{ID: 500, UserID: 42, CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
		repo.On("GetCartByUserID", mock.Anything, int64(42)).Return(want, nil).Once()

		got, err := uc.GetMyCart(authContext("42"))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("not found", func(t *testing.T) {
		repo := &mockRepoDB{}
		uc, _ := newUsecase(t, repo, true)
		repo.On("GetCartByUserID", mock.Anything, int64(42)).Return(nil, goerror.ErrNotFound).Once()

		_, err := uc.GetMyCart(authContext("42"))
		assert.Equal(t, goerror.CodeNotFound, goerror.CodeOf(err))
	})

	t.Run("forbidden", func(t *testing.T) {
		uc, _ := newUsecase(t, &mockRepoDB{}, false)

		_, err := uc.GetMyCart(authContext("42"))
		assert.Equal(t, goerror.CodeForbidden, goerror.CodeOf(err))
	})

	t.Run("anonymous", func(t *testing.T) {
		uc, _ := newUsecase(t, &mockRepoDB{}, true)

		_, err := uc.GetMyCart(context.Background())
		assert.Equal(t, goerror.CodeUnauthorized, goerror.CodeOf(err))
	})
}
