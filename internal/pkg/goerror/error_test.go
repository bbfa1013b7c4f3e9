package goerror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBusinessWithDetails(t *testing.T) {
	details := []string{"password too short", "password needs a digit"}
	err := NewBusinessWithDetails("registration failed", CodeInvalidInput, details)
	details[0] = "mutated"

	ge, ok := As(fmt.Errorf("wrap: %w", err))
	require.True(t, ok)
	assert.Equal(t, "registration failed", ge.Msg())
	assert.Equal(t, TypeBusiness, ge.Type())
	assert.Equal(t, []string{"password too short", "password needs a digit"}, ge.Details())
	assert.Equal(t, http.StatusUnprocessableEntity, ge.StatusCode())
}

func TestNewInvalidInput(t *testing.T) {
	t.Run("wrapped error", func(t *testing.T) {
		cause := errors.New("field required")
		err := NewInvalidInput(cause)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, CodeInvalidInput, CodeOf(err))
	})

	t.Run("key values", func(t *testing.T) {
		ge, ok := As(NewInvalidInput(nil, "code", "must be 6 digits"))
		require.True(t, ok)
		assert.Equal(t, map[string]string{"code": "must be 6 digits"}, ge.Fields())
	})

	t.Run("odd key values", func(t *testing.T) {
		assert.Equal(t, CodeInvalidFormat, CodeOf(NewInvalidInput(nil, "code")))
	})
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeTooManyRequest, http.StatusTooManyRequests},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeConflict, http.StatusConflict},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			ge, _ := As(NewBusiness("x", tt.code))
			assert.Equal(t, tt.want, ge.StatusCode())
		})
	}
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestNewServer_HidesCause(t *testing.T) {
	ge, ok := As(NewServer(errors.New("dial tcp: refused")))
	require.True(t, ok)
	assert.Equal(t, "Internal server error", ge.Msg())
	assert.Equal(t, "dial tcp: refused", ge.Error())
}
