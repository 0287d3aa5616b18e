package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PortNumber53/cohost-tasks/backend/internal/auth"
	"github.com/PortNumber53/cohost-tasks/backend/internal/models"
	"github.com/PortNumber53/cohost-tasks/backend/internal/tasks"
)

// TaskService defines the task operations the HTTP layer needs.
type TaskService interface {
	List(ctx context.Context, userID string) ([]models.Task, error)
	Create(ctx context.Context, userID string, in tasks.CreateInput) (*models.Task, error)
	Update(ctx context.Context, userID, id string, patch tasks.Patch) (*models.Task, error)
	Delete(ctx context.Context, userID, id string) error
}

// ListTasks returns the caller's tasks.
func ListTasks(svc TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context(), auth.UserID(r.Context(), ""))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// CreateTask stores a task from the JSON body and returns it with 201.
func CreateTask(svc TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in tasks.CreateInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		task, err := svc.Create(r.Context(), auth.UserID(r.Context(), ""), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, task)
	}
}

// UpdateTask applies a partial patch. It serves both PATCH and PUT.
func UpdateTask(svc TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch tasks.Patch
		if err := decodeJSON(r, &patch); err != nil {
			writeError(w, r, err)
			return
		}
		task, err := svc.Update(r.Context(), auth.UserID(r.Context(), ""), chi.URLParam(r, "id"), patch)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	}
}

// DeleteTask removes the caller's task.
func DeleteTask(svc TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), auth.UserID(r.Context(), ""), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}
