// Package tasks implements task and listing CRUD scoped to the calling user.
package tasks

import (
	"context"
	"errors"
	"strings"

	"github.com/PortNumber53/cohost-tasks/backend/internal/apperr"
	"github.com/PortNumber53/cohost-tasks/backend/internal/models"
)

// Store is the persistence the service needs.
type Store interface {
	ListTasks(ctx context.Context, userID string) ([]models.Task, error)
	GetTask(ctx context.Context, userID, id string) (*models.Task, error)
	CreateTask(ctx context.Context, task *models.Task) error
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, userID, id string) error
	CreateListing(ctx context.Context, listing *models.Listing) error
	ListListingsWithOpenTasks(ctx context.Context, userID string, perListing int) ([]models.ListingWithTasks, error)
	ListingOwnedBy(ctx context.Context, userID, listingID string) (bool, error)
}

// CreateInput is the body of POST /api/tasks.
type CreateInput struct {
	ListingID string  `json:"listingId"`
	Title     string  `json:"title"`
	Type      string  `json:"type"`
	Notes     *string `json:"notes"`
	DueDate   *string `json:"dueDate"`
}

// Patch is the body of PATCH /api/tasks/{id}. Absent fields are left alone;
// an explicit null clears notes or dueDate.
type Patch struct {
	ListingID models.Optional[string] `json:"listingId"`
	Title     models.Optional[string] `json:"title"`
	Type      models.Optional[string] `json:"type"`
	Status    models.Optional[string] `json:"status"`
	Notes     models.Optional[string] `json:"notes"`
	DueDate   models.Optional[string] `json:"dueDate"`
}

// ListingInput is the body of POST /api/listings.
type ListingInput struct {
	AirbnbListingID string  `json:"airbnbListingId"`
	Name            string  `json:"name"`
	Address         *string `json:"address"`
}

// Service validates input and delegates to the store.
type Service struct {
	store Store
}

// NewService returns a Service backed by store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

func requireUser(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", apperr.Unauthenticated("user id is required")
	}
	return userID, nil
}

// wrapStore passes categorised errors through and hides everything else.
func wrapStore(op string, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Upstream(op, "internal server error", err)
}

// checkListing accepts the shared default listing or one the caller owns.
func (s *Service) checkListing(ctx context.Context, userID, listingID string) error {
	if listingID == models.DefaultListingID {
		return nil
	}
	owned, err := s.store.ListingOwnedBy(ctx, userID, listingID)
	if err != nil {
		return wrapStore("listings: check owner", err)
	}
	if !owned {
		return apperr.Validation("unknown listingId %q", listingID)
	}
	return nil
}

// List returns the caller's tasks, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]models.Task, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.store.ListTasks(ctx, userID)
	if err != nil {
		return nil, wrapStore("tasks: list", err)
	}
	return tasks, nil
}

// Create validates in and stores a new pending task.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*models.Task, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validation("title is required")
	}

	taskType := models.TaskTypeCustom
	if raw := strings.TrimSpace(in.Type); raw != "" {
		taskType = models.TaskType(raw)
		if !taskType.Valid() {
			return nil, apperr.Validation("invalid task type %q", raw)
		}
	}

	listingID := strings.TrimSpace(in.ListingID)
	if listingID == "" {
		listingID = models.DefaultListingID
	}
	if err := s.checkListing(ctx, userID, listingID); err != nil {
		return nil, err
	}

	task := &models.Task{
		UserID:    userID,
		ListingID: listingID,
		Title:     title,
		Type:      taskType,
		Status:    models.TaskStatusPending,
		Notes:     in.Notes,
	}
	if in.DueDate != nil && strings.TrimSpace(*in.DueDate) != "" {
		d, err := models.ParseDate(*in.DueDate)
		if err != nil {
			return nil, apperr.Validation("invalid dueDate %q", *in.DueDate)
		}
		task.DueDate = &d
	}

	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, wrapStore("tasks: create", err)
	}
	return task, nil
}

// Update applies patch to the caller's task and returns the stored result.
func (s *Service) Update(ctx context.Context, userID, id string, patch Patch) (*models.Task, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return nil, err
	}

	task, err := s.store.GetTask(ctx, userID, id)
	if err != nil {
		return nil, wrapStore("tasks: get", err)
	}

	previousListing := task.ListingID
	if err := applyPatch(task, patch); err != nil {
		return nil, err
	}
	if task.ListingID != previousListing {
		if err := s.checkListing(ctx, userID, task.ListingID); err != nil {
			return nil, err
		}
	}

	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, wrapStore("tasks: update", err)
	}
	return task, nil
}

func applyPatch(task *models.Task, patch Patch) error {
	if patch.Title.Set {
		title := strings.TrimSpace(patch.Title.Value)
		if patch.Title.Null || title == "" {
			return apperr.Validation("title cannot be empty")
		}
		task.Title = title
	}

	if patch.ListingID.Set {
		listingID := strings.TrimSpace(patch.ListingID.Value)
		if patch.ListingID.Null || listingID == "" {
			listingID = models.DefaultListingID
		}
		task.ListingID = listingID
	}

	if patch.Type.Set {
		taskType := models.TaskType(strings.TrimSpace(patch.Type.Value))
		if patch.Type.Null || !taskType.Valid() {
			return apperr.Validation("invalid task type %q", patch.Type.Value)
		}
		task.Type = taskType
	}

	if patch.Status.Set {
		status := models.TaskStatus(strings.TrimSpace(patch.Status.Value))
		if patch.Status.Null || !status.Valid() {
			return apperr.Validation("invalid task status %q", patch.Status.Value)
		}
		task.Status = status
	}

	if patch.Notes.Set {
		if patch.Notes.Null {
			task.Notes = nil
		} else {
			notes := patch.Notes.Value
			task.Notes = &notes
		}
	}

	if patch.DueDate.Set {
		if patch.DueDate.Null || strings.TrimSpace(patch.DueDate.Value) == "" {
			task.DueDate = nil
		} else {
			d, err := models.ParseDate(patch.DueDate.Value)
			if err != nil {
				return apperr.Validation("invalid dueDate %q", patch.DueDate.Value)
			}
			task.DueDate = &d
		}
	}

	return nil
}

// Delete removes the caller's task.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	userID, err := requireUser(userID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, userID, id); err != nil {
		return wrapStore("tasks: delete", err)
	}
	return nil
}

// ListListings returns the caller's listings with their most recent open tasks.
func (s *Service) ListListings(ctx context.Context, userID string) ([]models.ListingWithTasks, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return nil, err
	}
	listings, err := s.store.ListListingsWithOpenTasks(ctx, userID, models.MaxOpenTasksPerListing)
	if err != nil {
		return nil, wrapStore("listings: list", err)
	}
	return listings, nil
}

// CreateListing validates in and stores a listing owned by the caller.
func (s *Service) CreateListing(ctx context.Context, userID string, in ListingInput) (*models.Listing, error) {
	userID, err := requireUser(userID)
	if err != nil {
		return nil, err
	}

	airbnbID := strings.TrimSpace(in.AirbnbListingID)
	name := strings.TrimSpace(in.Name)
	if airbnbID == "" || name == "" {
		return nil, apperr.Validation("Airbnb listing ID and name are required")
	}

	listing := &models.Listing{
		UserID:          userID,
		AirbnbListingID: airbnbID,
		Name:            name,
	}
	if in.Address != nil && strings.TrimSpace(*in.Address) != "" {
		addr := strings.TrimSpace(*in.Address)
		listing.Address = &addr
	}

	if err := s.store.CreateListing(ctx, listing); err != nil {
		return nil, wrapStore("listings: create", err)
	}
	return listing, nil
}
