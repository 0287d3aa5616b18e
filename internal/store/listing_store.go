package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/PortNumber53/cohost-tasks/backend/internal/models"
)

// CreateListing inserts listing, assigning an id when empty, and fills CreatedAt.
func (s *Store) CreateListing(ctx context.Context, listing *models.Listing) error {
	if listing.ID == "" {
		listing.ID = uuid.NewString()
	}
	if err := s.db.QueryRowContext(
		ctx,
		`INSERT INTO listings (id, user_id, airbnb_listing_id, name, address)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		listing.ID,
		listing.UserID,
		listing.AirbnbListingID,
		listing.Name,
		listing.Address,
	).Scan(&listing.CreatedAt); err != nil {
		return fmt.Errorf("store: create listing: %w", err)
	}
	return nil
}

// ListingOwnedBy reports whether listingID exists and belongs to userID.
func (s *Store) ListingOwnedBy(ctx context.Context, userID, listingID string) (bool, error) {
	var owned bool
	if err := s.db.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM listings WHERE id = $1 AND user_id = $2)`,
		listingID,
		userID,
	).Scan(&owned); err != nil {
		return false, fmt.Errorf("store: check listing owner: %w", err)
	}
	return owned, nil
}

// ListListingsWithOpenTasks returns the user's listings, newest first, each
// carrying up to perListing of its most recent tasks that are not completed.
// Only tasks owned by userID are attached.
func (s *Store) ListListingsWithOpenTasks(ctx context.Context, userID string, perListing int) ([]models.ListingWithTasks, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, user_id, airbnb_listing_id, name, address, created_at
		 FROM listings
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list listings: %w", err)
	}
	defer rows.Close()

	listings := []models.ListingWithTasks{}
	index := map[string]int{}
	for rows.Next() {
		var (
			l       models.Listing
			address sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.UserID, &l.AirbnbListingID, &l.Name, &address, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan listing: %w", err)
		}
		l.Address = nullStringPtr(address)
		index[l.ID] = len(listings)
		listings = append(listings, models.ListingWithTasks{Listing: l, Tasks: []models.Task{}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate listings: %w", err)
	}
	if len(listings) == 0 {
		return listings, nil
	}

	ids := make([]string, 0, len(listings))
	for _, l := range listings {
		ids = append(ids, l.ID)
	}

	taskRows, err := s.db.QueryContext(
		ctx,
		`SELECT `+taskColumns+`
		 FROM (
		   SELECT `+taskColumns+`,
		          ROW_NUMBER() OVER (PARTITION BY listing_id ORDER BY created_at DESC) AS rn
		   FROM tasks
		   WHERE listing_id = ANY($1) AND user_id = $3 AND status <> 'completed'
		 ) ranked
		 WHERE rn <= $2
		 ORDER BY listing_id, created_at DESC`,
		pq.Array(ids),
		perListing,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list open tasks: %w", err)
	}
	defer taskRows.Close()

	for taskRows.Next() {
		task, err := scanTask(taskRows)
		if err != nil {
			return nil, fmt.Errorf("store: scan open task: %w", err)
		}
		if i, ok := index[task.ListingID]; ok {
			listings[i].Tasks = append(listings[i].Tasks, task)
		}
	}
	if err := taskRows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate open tasks: %w", err)
	}

	return listings, nil
}
