package handlers

import (
	"context"
	"net/http"

	"github.com/PortNumber53/cohost-tasks/backend/internal/apperr"
	"github.com/PortNumber53/cohost-tasks/backend/internal/auth"
	"github.com/PortNumber53/cohost-tasks/backend/internal/models"
)

// StatusReader reports a user's entitlement.
type StatusReader interface {
	Status(ctx context.Context, userID string) (models.UserStatus, error)
}

// UserStatus returns {userId, isPro} for the resolved caller, falling back to
// the userId query parameter.
func UserStatus(reader StatusReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context(), r.URL.Query().Get("userId"))
		if userID == "" {
			writeError(w, r, apperr.Validation("userId is required"))
			return
		}
		status, err := reader.Status(r.Context(), userID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}
