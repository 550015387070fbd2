package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(CodeAssetNotFound, "asset missing")
	require.NotNil(t, err)
	assert.Equal(t, CodeAssetNotFound, err.Code)
	assert.Equal(t, "asset missing", err.Message)
	assert.NotEmpty(t, err.Stack)
	assert.Equal(t, "[CAT_001] asset missing", err.Error())
}

func TestErrorWithDetail(t *testing.T) {
	err := New(CodeRunNotFound, "run not found").WithDetail("id=42")
	assert.Equal(t, "[RUN_001] run not found: id=42", err.Error())

	var nilErr *AppError
	assert.Nil(t, nilErr.WithDetail("ignored"))
}

func TestWrap(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, CodeDatabaseError, "query failed"))
	})

	t.Run("wraps and unwraps", func(t *testing.T) {
		cause := stderrors.New("connection refused")
		err := Wrap(cause, CodeDatabaseError, "query failed")
		require.NotNil(t, err)
		assert.Equal(t, CodeDatabaseError, err.Code)
		assert.True(t, stderrors.Is(err, cause))
	})

	t.Run("preserves code when wrapping with CodeUnknown", func(t *testing.T) {
		inner := New(CodeReductionTooLarge, "too many pixels")
		err := Wrap(inner, CodeUnknown, "reduction failed")
		assert.Equal(t, CodeReductionTooLarge, err.Code)
	})
}

func TestIsCode(t *testing.T) {
	inner := New(CodeAssetNotFound, "not found")
	wrapped := fmt.Errorf("outer: %w", Wrap(inner, CodeCatalogUnavailable, "catalog call failed"))

	assert.True(t, IsCode(wrapped, CodeCatalogUnavailable))
	assert.True(t, IsCode(wrapped, CodeAssetNotFound))
	assert.False(t, IsCode(wrapped, CodeDatabaseError))
	assert.False(t, IsCode(nil, CodeAssetNotFound))
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"generic not found", NotFound("missing"), true},
		{"asset not found", New(CodeAssetNotFound, "missing"), true},
		{"run not found", New(CodeRunNotFound, "missing"), true},
		{"aoi not found", New(CodeAOINotFound, "missing"), true},
		{"wrapped not found", Wrap(New(CodeRunNotFound, "missing"), CodeInternal, "lookup"), true},
		{"internal", Internal("boom"), false},
		{"plain error", stderrors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNotFound(tt.err))
		})
	}
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, CodeValidation, GetCode(New(CodeValidation, "bad")))
	assert.Equal(t, CodeCacheError, GetCode(fmt.Errorf("x: %w", New(CodeCacheError, "bad"))))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(CodeAssetNotFound))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(CodeReductionTooLarge))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(CodeCatalogUnavailable))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(ErrorCode("UNMAPPED")))
}
