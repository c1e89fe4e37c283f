package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomErrorIsMatchesCode(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := fmt.Errorf("save: %w", ErrStoreError.Wrap(cause))

	assert.ErrorIs(t, err, ErrStoreError)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "儲存失敗: dial tcp: refused", ErrStoreError.Wrap(cause).Error())
	assert.Equal(t, "無效的請求", ErrInvalidRequest.Error())
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"custom", ErrNotFound.Wrap(errors.New("x")), http.StatusNotFound},
		{"wrapped custom", fmt.Errorf("outer: %w", ErrTooFewIngredients), http.StatusUnprocessableEntity},
		{"validation", NewValidationError("bad id"), http.StatusBadRequest},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(fmt.Errorf("ctx: %w", NewValidationError("x"))))
	assert.False(t, IsValidationError(errors.New("x")))
}
