package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/PortNumber53/cohost-tasks/backend/internal/models"
)

// Store provides database-backed accessors for users, listings and tasks.
type Store struct {
	db *sql.DB
}

// New creates a Store using the provided sql.DB connection.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	return &Store{db: db}, nil
}

// Ping checks connectivity for the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("store: db cannot be nil")
	}
	return s.db.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func nullStringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

func nullTimePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	v := value.Time
	return &v
}

func nullDatePtr(value sql.NullTime) *models.Date {
	if !value.Valid {
		return nil
	}
	d := models.NewDate(value.Time)
	return &d
}

func datePtrArg(d *models.Date) any {
	if d == nil {
		return nil
	}
	return d.Time
}
