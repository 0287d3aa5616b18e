package handlers

import (
	"context"
	"net/http"

	"github.com/PortNumber53/cohost-tasks/backend/internal/auth"
	"github.com/PortNumber53/cohost-tasks/backend/internal/models"
	"github.com/PortNumber53/cohost-tasks/backend/internal/tasks"
)

// ListingService defines the listing operations the HTTP layer needs.
type ListingService interface {
	ListListings(ctx context.Context, userID string) ([]models.ListingWithTasks, error)
	CreateListing(ctx context.Context, userID string, in tasks.ListingInput) (*models.Listing, error)
}

// ListListings returns the caller's listings with up to five open tasks each.
func ListListings(svc ListingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listings, err := svc.ListListings(r.Context(), auth.UserID(r.Context(), ""))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, listings)
	}
}

// CreateListing stores a listing for the caller and returns it with 201.
func CreateListing(svc ListingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in tasks.ListingInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		listing, err := svc.CreateListing(r.Context(), auth.UserID(r.Context(), ""), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, listing)
	}
}
