package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"
)

// Pinger checks connectivity to a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health reports liveness and database reachability. It returns 503 when the
// ping fails.
func Health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"status":    "ok",
			"database":  "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		}

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				hlog.FromRequest(r).Warn().Err(err).Msg("health: database ping failed")
				payload["status"] = "error"
				payload["database"] = "unreachable"
				writeJSON(w, http.StatusServiceUnavailable, payload)
				return
			}
		}

		writeJSON(w, http.StatusOK, payload)
	}
}
