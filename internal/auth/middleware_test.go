package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(UserID(r.Context(), "fallback")))
	})
}

func TestMiddlewareStoresIdentity(t *testing.T) {
	h := Middleware(HeaderResolver{})(echoUser())

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderUserID, "u1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Body.String())
}

func TestMiddlewarePassesThroughWithoutCredentials(t *testing.T) {
	h := Middleware(HeaderResolver{})(echoUser())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fallback", rec.Body.String())
}

func TestMiddlewareRejectsInvalidToken(t *testing.T) {
	v, err := NewVerifier("s3cret", "")
	require.NoError(t, err)
	h := Middleware(TokenResolver{Verifier: v})(echoUser())

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+signHS256(t, "wrong", "u1", time.Hour))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid token"}`, rec.Body.String())
}

func TestRequireIdentity(t *testing.T) {
	h := Middleware(HeaderResolver{})(RequireIdentity(echoUser()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderUserID, "u1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
}
