package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/PortNumber53/cohost-tasks/backend/internal/apperr"
)

const maxJSONBody = 1 << 20

type errorResponse struct {
	Error   string `json:"error"`
	Upgrade bool   `json:"upgrade,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status and JSON body. Upstream failures are
// logged with their cause; only the public message reaches the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, errorResponse{
		Error:   apperr.PublicMessage(err),
		Upgrade: apperr.KindOf(err) == apperr.KindEntitlement,
	})
}

// decodeJSON reads a bounded JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Validation("invalid JSON payload")
	}
	return nil
}
