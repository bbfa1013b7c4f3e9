package inbound

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shandysiswandi/gostore/internal/commerce/entity"
	"github.com/shandysiswandi/gostore/internal/commerce/usecase"
	"github.com/shandysiswandi/gostore/internal/pkg/config"
	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
	"github.com/shandysiswandi/gostore/internal/pkg/goroutine"
	"github.com/shandysiswandi/gostore/internal/pkg/instrument"
	"github.com/shandysiswandi/gostore/internal/pkg/jwt"
	"github.com/shandysiswandi/gostore/internal/pkg/messaging"
	"github.com/shandysiswandi/gostore/internal/pkg/router"
	"github.com/shandysiswandi/gostore/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUsecase struct{ mock.Mock }

func (m *mockUsecase) GetMyCart(ctx context.Context) (*entity.Cart, error) {
	args := m.Called(ctx)
	cart, _ := args.Get(0).(*entity.Cart)
	return cart, args.Error(1)
}

func (m *mockUsecase) ConsumeUserRegistered(ctx context.Context, in usecase.ConsumeUserRegisteredInput) error {
	return m.Called(ctx, in).Error(0)
}

type customerJWT struct{}

func (customerJWT) Generate(int64, string) (string, error) { return "customer", nil }

func (customerJWT) Verify(string) (jwt.Claims, error) {
	c := jwt.Claims{UserID: 42}
	c.Subject = "42"
	return c, nil
}

type fixedID string

func (f fixedID) Generate() string { return string(f) }

func TestHTTPEndpoint_MyCart(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte("app: {}"))
	require.NoError(t, err)
	r := router.NewRouter(router.Config{Config: cfg, UUID: fixedID("cid"), JWT: customerJWT{}, Instrument: instrument.NewNoop()})

	m := &mockUsecase{}
	RegisterHTTPEndpoint(r, m)

	m.On("GetMyCart", mock.Anything).
		Return(&entity.Cart{ID: 500, UserID: 42, CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}, nil).Once()
	m.On("GetMyCart", mock.Anything).
		Return(nil, goerror.NewBusiness("Cart not found", goerror.CodeNotFound)).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/commerce/cart", nil)
	req.Header.Set("Authorization", "Bearer customer")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"500"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	m.AssertExpectations(t)
}

func TestRegisterMQConsumer(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  commerce:
    consumer_names: "`+event.UserRegisteredConsumerCommerce+`"
`))
	require.NoError(t, err)

	m := &mockUsecase{}
	done := make(chan struct{})
	m.On("ConsumeUserRegistered", mock.Anything, usecase.ConsumeUserRegisteredInput{EventID: "evt-1", UserID: 9}).
		Run(func(mock.Arguments) { close(done) }).Return(nil).Once()

	broker := messaging.NewMemory()
	t.Cleanup(func() { _ = broker.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	routine := goroutine.NewManager(4)
	RegisterMQConsumer(ctx, cfg, routine, broker, m, instrument.NewNoop())

	require.Eventually(t, func() bool { return broker.Subscribed(event.UserRegisteredDestination) }, time.Second, 10*time.Millisecond)
	require.NoError(t, broker.Publish(ctx, event.UserRegisteredDestination, messaging.Message{
		Body: []byte(`{"event_id":"evt-1","user_id":9,"email":"ann@gostore.io"}`),
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not run")
	}
	cancel()
	_ = routine.Wait()
	m.AssertExpectations(t)
}
