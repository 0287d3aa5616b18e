package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/PortNumber53/cohost-tasks/backend/internal/apperr"
)

// Middleware resolves the caller and stores the identity in the request
// context. Requests without credentials pass through unresolved; requests
// with invalid credentials are rejected with 401.
func Middleware(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := resolver.Resolve(r)
			switch {
			case err == nil:
				r = r.WithContext(WithIdentity(r.Context(), id))
			case errors.Is(err, ErrNoCredentials):
			default:
				hlog.FromRequest(r).Warn().Err(err).Str("path", r.URL.Path).Msg("auth failure")
				respondUnauthorized(w, apperr.PublicMessage(err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireIdentity rejects requests the Middleware could not resolve.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			respondUnauthorized(w, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
