package models

import "time"

// DefaultListingID is the sentinel listing for tasks not tied to a property.
const DefaultListingID = "default"

// MaxOpenTasksPerListing bounds the tasks embedded in a listing overview.
const MaxOpenTasksPerListing = 5

// Listing is a property managed by a co-host.
type Listing struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	AirbnbListingID string    `json:"airbnbListingId"`
	Name            string    `json:"name"`
	Address         *string   `json:"address,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ListingWithTasks is a listing plus its most recent open tasks.
type ListingWithTasks struct {
	Listing
	Tasks []Task `json:"tasks"`
}
