package handlers

import (
	"context"
	"net/http"

	"github.com/PortNumber53/cohost-tasks/backend/internal/auth"
	"github.com/PortNumber53/cohost-tasks/backend/internal/extract"
	"github.com/PortNumber53/cohost-tasks/backend/internal/models"
)

// Extractor runs the task extraction pipeline.
type Extractor interface {
	Extract(ctx context.Context, req extract.Request) ([]models.TaskDraft, error)
}

type extractRequest struct {
	Conversation string `json:"conversation"`
	ListingName  string `json:"listingName"`
	GuestName    string `json:"guestName"`
	UserID       string `json:"userId"`
}

// ExtractTasks returns task drafts for a conversation. Free users get 403 with
// "upgrade": true.
func ExtractTasks(ex Extractor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body extractRequest
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, r, err)
			return
		}

		drafts, err := ex.Extract(r.Context(), extract.Request{
			UserID:       auth.UserID(r.Context(), body.UserID),
			Conversation: body.Conversation,
			ListingName:  body.ListingName,
			GuestName:    body.GuestName,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tasks": drafts})
	}
}
