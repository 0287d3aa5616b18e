package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("title is required"), http.StatusBadRequest},
		{"verification", Verification(errors.New("bad sig")), http.StatusBadRequest},
		{"not found", NotFound("task"), http.StatusNotFound},
		{"entitlement", EntitlementRequired(), http.StatusForbidden},
		{"unauthenticated", Unauthenticated("missing user"), http.StatusUnauthorized},
		{"upstream", Upstream("store: list", "failed", errors.New("conn reset")), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("ctx: %w", NotFound("listing")), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrorsIsMatchesSentinels(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := fmt.Errorf("outer: %w", Upstream("store: grant", "failed to update entitlement", cause))

	assert.True(t, errors.Is(err, ErrUpstream))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(EntitlementRequired(), ErrEntitlement))
}

func TestPublicMessageDoesNotLeakCause(t *testing.T) {
	err := Upstream("llm: generate", "task extraction failed", errors.New("x-api-key sk-123 rejected"))

	assert.Equal(t, "task extraction failed", PublicMessage(err))
	assert.Equal(t, "internal server error", PublicMessage(errors.New("secret detail")))
}
