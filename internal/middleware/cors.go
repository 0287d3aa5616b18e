package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

var (
	corsAllowMethods = []string{
		http.MethodGet, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions,
	}
	corsAllowHeaders = []string{
		"Accept", "Authorization", "Content-Type",
		"X-User-Id", "X-Request-Id", "Stripe-Signature",
	}
)

// CORS sets cross-origin headers. An empty allow list permits any origin
// without credentials. Preflight requests are answered directly with 204.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	origins := make([]string, 0, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins = append(origins, o)
		}
	}

	opts := cors.Options{
		AllowedMethods:       corsAllowMethods,
		AllowedHeaders:       corsAllowHeaders,
		MaxAge:               600,
		OptionsSuccessStatus: http.StatusNoContent,
	}
	if len(origins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	} else {
		opts.AllowedOrigins = origins
		opts.AllowCredentials = true
	}

	return cors.New(opts).Handler
}
