package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/PortNumber53/cohost-tasks/backend/internal/apperr"
	"github.com/PortNumber53/cohost-tasks/backend/internal/models"
)

const taskColumns = `id, user_id, listing_id, title, type, status, notes, due_date, created_at`

// ListTasks returns the user's tasks, newest first.
func (s *Store) ListTasks(ctx context.Context, userID string) ([]models.Task, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+taskColumns+`
		 FROM tasks
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate tasks: %w", err)
	}
	return tasks, nil
}

// GetTask loads a task owned by userID.
func (s *Store) GetTask(ctx context.Context, userID, id string) (*models.Task, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+taskColumns+`
		 FROM tasks
		 WHERE id = $1 AND user_id = $2`,
		id,
		userID,
	)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("task")
	}
	if err != nil {
		return nil, fmt.Errorf("store: get task: %w", err)
	}
	return &task, nil
}

// CreateTask inserts task, assigning an id when empty, and fills CreatedAt.
func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if err := s.db.QueryRowContext(
		ctx,
		`INSERT INTO tasks (id, user_id, listing_id, title, type, status, notes, due_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`,
		task.ID,
		task.UserID,
		task.ListingID,
		task.Title,
		string(task.Type),
		string(task.Status),
		task.Notes,
		datePtrArg(task.DueDate),
	).Scan(&task.CreatedAt); err != nil {
		return fmt.Errorf("store: create task: %w", err)
	}
	return nil
}

// UpdateTask writes every mutable column of task, scoped to its owner.
func (s *Store) UpdateTask(ctx context.Context, task *models.Task) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE tasks
		 SET listing_id = $3,
		     title = $4,
		     type = $5,
		     status = $6,
		     notes = $7,
		     due_date = $8
		 WHERE id = $1 AND user_id = $2`,
		task.ID,
		task.UserID,
		task.ListingID,
		task.Title,
		string(task.Type),
		string(task.Status),
		task.Notes,
		datePtrArg(task.DueDate),
	)
	if err != nil {
		return fmt.Errorf("store: update task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update task rows affected: %w", err)
	}
	if n == 0 {
		return apperr.NotFound("task")
	}
	return nil
}

// DeleteTask removes a task owned by userID.
func (s *Store) DeleteTask(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("store: delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete task rows affected: %w", err)
	}
	if n == 0 {
		return apperr.NotFound("task")
	}
	return nil
}

func scanTask(row rowScanner) (models.Task, error) {
	var (
		task       models.Task
		taskType   string
		taskStatus string
		notes      sql.NullString
		dueDate    sql.NullTime
	)
	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.ListingID,
		&task.Title,
		&taskType,
		&taskStatus,
		&notes,
		&dueDate,
		&task.CreatedAt,
	); err != nil {
		return models.Task{}, err
	}
	task.Type = models.TaskType(taskType)
	task.Status = models.TaskStatus(taskStatus)
	task.Notes = nullStringPtr(notes)
	task.DueDate = nullDatePtr(dueDate)
	return task, nil
}
